/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package drbg

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewHash(t *testing.T) {
	for _, size := range []int{160, 256, 384, 512} {
		h, err := NewHash(size)
		require.NoError(t, err)
		require.Equal(t, size/8, h.Size())
	}

	h, err := NewHash(0)
	require.NoError(t, err)
	require.Equal(t, DefaultHashSize/8, h.Size())

	for _, size := range []int{8, 128, 224, 1024} {
		_, err := NewHash(size)
		require.EqualError(t, err, fmt.Sprintf("unsupported hash size %d", size))
	}
}

func TestHashDigest(t *testing.T) {
	h, err := NewHash(256)
	require.NoError(t, err)

	h.Update([]byte("abc"))
	got := make([]byte, h.Size())
	require.NoError(t, h.Digest(got))

	want := sha256.Sum256([]byte("abc"))
	require.Equal(t, want[:], got)

	short := make([]byte, h.Size()-1)
	require.Error(t, h.Digest(short))
}

func TestHashSelfTest(t *testing.T) {
	h, err := NewHash(256)
	require.NoError(t, err)
	require.NoError(t, h.SelfTest())
}

func TestHashDF(t *testing.T) {
	h, err := NewHash(256)
	require.NoError(t, err)

	out := make([]byte, 55)
	require.NoError(t, h.HashDF([]byte("seed material"), 440, out))

	// same input, same derivation
	again := make([]byte, 55)
	require.NoError(t, h.HashDF([]byte("seed material"), 440, again))
	require.Equal(t, out, again)

	// different input, different derivation
	other := make([]byte, 55)
	require.NoError(t, h.HashDF([]byte("other material"), 440, other))
	require.NotEqual(t, out, other)

	// output crosses multiple digest blocks without repeating
	require.NotEqual(t, out[:16], out[32:48])
}

func TestHashDFRejectsBadRequests(t *testing.T) {
	h, err := NewHash(256)
	require.NoError(t, err)

	out := make([]byte, 64)
	err = h.HashDF([]byte("input"), 441, out)
	require.EqualError(t, err, "hash_df output bits 441 not a multiple of 8")

	err = h.HashDF([]byte("input"), 1024, out)
	require.EqualError(t, err, "hash_df output buffer too small for 1024 bits")
}

func TestHashDFKnownDerivation(t *testing.T) {
	// Single-round Hash_df: SHA-256(0x01 || 0x00000100 || "abc") truncated
	// to 32 bytes equals the full digest of that preimage.
	h, err := NewHash(256)
	require.NoError(t, err)

	out := make([]byte, 32)
	require.NoError(t, h.HashDF([]byte("abc"), 256, out))

	want := sha256.Sum256([]byte{0x01, 0x00, 0x00, 0x01, 0x00, 'a', 'b', 'c'})
	require.Equal(t, hex.EncodeToString(want[:]), hex.EncodeToString(out))
}
