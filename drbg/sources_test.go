/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package drbg

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSystemEntropySource(t *testing.T) {
	src := NewSystemEntropySource()

	// output is delivered in whole blocks
	buf, err := src.GetEntropy(128, 16, 0)
	require.NoError(t, err)
	require.Len(t, buf, 16)

	buf, err = src.GetEntropy(129, 16, 0)
	require.NoError(t, err)
	require.Len(t, buf, 32)

	// the minimum byte count bumps the block count
	buf, err = src.GetEntropy(128, 40, 0)
	require.NoError(t, err)
	require.Len(t, buf, 48)

	// a maximum the block count cannot satisfy is an error
	_, err = src.GetEntropy(512, 6, 6)
	require.Error(t, err)
}

func TestSystemEntropySourceSelfTest(t *testing.T) {
	src := NewSystemEntropySource()
	require.Nil(t, src.SelfTestEntropy())

	require.NoError(t, src.SelfTest())

	saved := src.SelfTestEntropy()
	require.Len(t, saved, 32)

	// callers get a copy, not the retained buffer
	saved[0] ^= 0xff
	require.NotEqual(t, saved[0], src.SelfTestEntropy()[0])
}

func TestSystemEntropySourceDispose(t *testing.T) {
	src := NewSystemEntropySource()
	require.NoError(t, src.SelfTest())

	src.Dispose()
	_, err := src.GetEntropy(128, 16, 0)
	require.EqualError(t, err, "entropy source has been disposed")
	require.Nil(t, src.SelfTestEntropy())

	// dispose is idempotent
	src.Dispose()
}

func writeRandomFile(t *testing.T, size int) string {
	t.Helper()
	buf := make([]byte, size)
	_, err := rand.Read(buf)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "entropy.bin")
	require.NoError(t, os.WriteFile(path, buf, 0o600))
	return path
}

func TestNewFileEntropySource(t *testing.T) {
	_, err := NewFileEntropySource("", 32, 64)
	require.EqualError(t, err, "file entropy source requires a file name")

	_, err = NewFileEntropySource("x", 0, 64)
	require.EqualError(t, err, "block size 0 too small")

	_, err = NewFileEntropySource("x", 32, 257)
	require.EqualError(t, err, "entropy expectation 257 bits invalid for 32 byte blocks")

	src, err := NewFileEntropySource("x", 32, 64)
	require.NoError(t, err)
	require.Equal(t, "x", src.Destination())
}

func TestFileEntropySourceGetEntropy(t *testing.T) {
	path := writeRandomFile(t, 4096)
	src, err := NewFileEntropySource(path, 32, 64)
	require.NoError(t, err)

	// 256 bits at 64 bits per 32-byte block takes 4 blocks
	buf, err := src.GetEntropy(256, 32, 0)
	require.NoError(t, err)
	require.Len(t, buf, 128)

	// re-reading the file returns the same data
	again, err := src.GetEntropy(256, 32, 0)
	require.NoError(t, err)
	require.Equal(t, buf, again)

	// a minimum too small for the requested bits is rejected
	_, err = src.GetEntropy(256, 16, 0)
	require.Error(t, err)

	// a file shorter than the minimum fails
	short := writeRandomFile(t, 8)
	shortSrc, err := NewFileEntropySource(short, 32, 64)
	require.NoError(t, err)
	_, err = shortSrc.GetEntropy(256, 32, 0)
	require.Error(t, err)
}

func TestFileEntropySourceSelfTest(t *testing.T) {
	path := writeRandomFile(t, 4096)
	src, err := NewFileEntropySource(path, 32, 64)
	require.NoError(t, err)
	require.NoError(t, src.SelfTest())
	require.Nil(t, src.SelfTestEntropy())

	// a degenerate file fails the entropy quality checks
	flat := filepath.Join(t.TempDir(), "flat.bin")
	require.NoError(t, os.WriteFile(flat, make([]byte, 4096), 0o600))
	flatSrc, err := NewFileEntropySource(flat, 32, 64)
	require.NoError(t, err)
	require.Error(t, flatSrc.SelfTest())
}

func TestFileEntropySourceSaveEntropy(t *testing.T) {
	path := writeRandomFile(t, 4096)
	src, err := NewFileEntropySource(path, 32, 64)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "saved.bin")
	src.SetDestination(dest)
	require.Equal(t, dest, src.Destination())

	d, err := NewHashDRBG("saver", src)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, d.Instantiate(128, false, "", nil))

	require.NoError(t, src.SaveEntropy(d, 4))

	saved, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Len(t, saved, 128)
	require.False(t, allZero(saved))

	src.SetDestination("")
	require.EqualError(t, src.SaveEntropy(d, 4), "entropy saving is disabled")
}

func TestFileEntropySourceDispose(t *testing.T) {
	path := writeRandomFile(t, 4096)
	src, err := NewFileEntropySource(path, 32, 64)
	require.NoError(t, err)

	src.Dispose()
	_, err = src.GetEntropy(256, 32, 0)
	require.EqualError(t, err, "entropy source has been disposed")
}

func TestFixedValuesEntropySource(t *testing.T) {
	src := NewFixedValuesEntropySource()

	// empty source fails requests and its self-test
	_, err := src.GetEntropy(128, 16, 0)
	require.Error(t, err)
	require.Error(t, src.SelfTest())

	src.AddValue([]byte{1, 2, 3})
	require.NoError(t, src.AddHexValue("aabbcc"))
	require.Error(t, src.AddHexValue("not hex"))
	require.NoError(t, src.SelfTest())

	// values cycle, ignoring the request parameters
	for i := 0; i < 3; i++ {
		buf, err := src.GetEntropy(10000, 10000, 1)
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3}, buf)

		buf, err = src.GetEntropy(0, 0, 0)
		require.NoError(t, err)
		require.Equal(t, []byte{0xaa, 0xbb, 0xcc}, buf)
	}

	require.Nil(t, src.SelfTestEntropy())

	src.Dispose()
	_, err = src.GetEntropy(128, 16, 0)
	require.EqualError(t, err, "entropy source has been disposed")
	require.Error(t, src.SelfTest())
}

func TestLousyEntropySource(t *testing.T) {
	src := NewLousyEntropySource()
	require.NoError(t, src.SelfTest())
	require.Nil(t, src.SelfTestEntropy())

	buf, err := src.GetEntropy(256, 32, 0)
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{'a'}, 32), buf)

	src.Dispose()
	_, err = src.GetEntropy(256, 32, 0)
	require.EqualError(t, err, "entropy source has been disposed")
}

func TestDevRandomEntropySource(t *testing.T) {
	// any readable file works as the device; the default is only reachable
	// on a real host
	path := writeRandomFile(t, 4096)
	src, err := NewDevRandomEntropySource(path)
	require.NoError(t, err)
	require.Contains(t, src.String(), path)

	// 192 bits per 32 byte block, so 256 bits come back as 2 blocks
	buf, err := src.GetEntropy(256, 32, 0)
	require.NoError(t, err)
	require.Len(t, buf, 64)

	_, err = src.GetEntropy(512, 6, 6)
	require.Error(t, err)

	require.NoError(t, src.SelfTest())
	require.Len(t, src.SelfTestEntropy(), 64)

	src.Dispose()
	_, err = src.GetEntropy(128, 16, 0)
	require.EqualError(t, err, "entropy source has been disposed")
	require.Nil(t, src.SelfTestEntropy())
	src.Dispose()
}

func TestNewDevRandomEntropySourceMissingDevice(t *testing.T) {
	_, err := NewDevRandomEntropySource(filepath.Join(t.TempDir(), "nodev"))
	require.ErrorContains(t, err, "opening random device")
}
