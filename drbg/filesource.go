/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package drbg

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

const (
	fileShortTestMinEntropy = 2.0
	fileLongTestMinEntropy  = 2.5
)

// FileEntropySource reads entropy from a file. It re-reads the file on
// every request, which works well for pseudo-files that deliver something
// different each time but is lousy for normal files. It can also save
// DRBG output back to a file for use on a later run.
type FileEntropySource struct {
	mutex           sync.Mutex
	source          string
	destination     string
	blockSize       int
	entropyPerBlock int // bits
	disposed        bool
}

// NewFileEntropySource creates an entropy source reading from the named
// file, consuming blockSize bytes per block and crediting bitsPerBlock
// bits of entropy to each block.
func NewFileEntropySource(filename string, blockSize, bitsPerBlock int) (*FileEntropySource, error) {
	if filename == "" {
		return nil, errors.New("file entropy source requires a file name")
	}
	if blockSize <= 0 {
		return nil, errors.Errorf("block size %d too small", blockSize)
	}
	if bitsPerBlock < 1 || bitsPerBlock > blockSize*8 {
		return nil, errors.Errorf("entropy expectation %d bits invalid for %d byte blocks", bitsPerBlock, blockSize)
	}
	return &FileEntropySource{
		source:          filename,
		destination:     filename,
		blockSize:       blockSize,
		entropyPerBlock: bitsPerBlock,
	}, nil
}

func (s *FileEntropySource) String() string {
	return "FileEntropySource[src=" + s.source + ",dest=" + s.destination + "]"
}

// SetDestination changes the file entropy is saved to. An empty name
// disables saving.
func (s *FileEntropySource) SetDestination(filename string) {
	s.mutex.Lock()
	s.destination = filename
	s.mutex.Unlock()
}

// Destination returns the file entropy is saved to, or "" when saving is
// disabled.
func (s *FileEntropySource) Destination() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.destination
}

// GetEntropy reads the source file anew and returns up to the computed
// block count of data. The source does not guarantee the requested bits
// of entropy; it delivers what the file holds, failing when fewer than
// minBytes could be read. maxBytes is ignored.
func (s *FileEntropySource) GetEntropy(requestedBits, minBytes, maxBytes int) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.disposed {
		return nil, errors.New("entropy source has been disposed")
	}
	if minBytes < requestedBits/8 {
		return nil, errors.Errorf("minimum of %d bytes cannot carry %d bits", minBytes, requestedBits)
	}

	blocks := (requestedBits + s.entropyPerBlock - 1) / s.entropyPerBlock
	total := blocks * s.blockSize
	if total < minBytes {
		total = minBytes
	}

	f, err := os.Open(s.source)
	if err != nil {
		return nil, errors.Wrapf(err, "opening entropy file %s", s.source)
	}
	defer f.Close()

	buf := make([]byte, total)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errors.Wrapf(err, "reading entropy file %s", s.source)
	}
	if n < minBytes {
		return nil, errors.Errorf("entropy file %s delivered %d bytes, need at least %d", s.source, n, minBytes)
	}
	return buf[:n], nil
}

// SaveEntropy writes blocks of DRBG output to the destination file, for
// use as startup entropy on a later run.
func (s *FileEntropySource) SaveEntropy(rbg DRBG, blocks int) error {
	dest := s.Destination()
	if dest == "" {
		return errors.New("entropy saving is disabled")
	}
	if rbg.Strength() <= 0 {
		return errors.New("DRBG is not usable, cannot save entropy")
	}

	total := blocks * s.blockSize
	buf := make([]byte, total)
	if status := rbg.Generate(total, rbg.Strength(), false, nil, buf); status != StatusSuccess {
		return errors.Errorf("DRBG generate returned %s, cannot save entropy", status)
	}
	if err := os.WriteFile(dest, buf, 0o600); err != nil {
		return errors.Wrapf(err, "writing entropy file %s", dest)
	}
	return nil
}

// SelfTest checks that a malformed request fails and that short and long
// requests both meet the configured entropy thresholds.
func (s *FileEntropySource) SelfTest() error {
	if _, err := s.GetEntropy(512, 6, 6); err == nil {
		return errors.New("request that should have failed on size limits succeeded")
	}

	buf, err := s.GetEntropy(256, ((256/8)/s.blockSize+1)*s.blockSize, 0)
	if err != nil {
		return errors.Wrap(err, "short self-test entropy request failed")
	}
	if !CheckByteEntropy(buf, fileShortTestMinEntropy) {
		return errors.Errorf("short self-test output below %.1f bits/byte entropy threshold", fileShortTestMinEntropy)
	}

	buf, err = s.GetEntropy(2048, 2048/8, 2048)
	if err != nil {
		return errors.Wrap(err, "long self-test entropy request failed")
	}
	if len(buf) < 2048/8 {
		return errors.Errorf("long self-test request returned %d bytes, want at least %d", len(buf), 2048/8)
	}
	if !CheckByteEntropy(buf, fileLongTestMinEntropy) {
		return errors.Errorf("long self-test output below %.1f bits/byte entropy threshold", fileLongTestMinEntropy)
	}

	return nil
}

// SelfTestEntropy always returns nil; this source does not retain entropy
// gathered during self-test.
func (s *FileEntropySource) SelfTestEntropy() []byte {
	return nil
}

// Dispose makes this source unusable. It is idempotent.
func (s *FileEntropySource) Dispose() {
	s.mutex.Lock()
	s.disposed = true
	s.mutex.Unlock()
}
