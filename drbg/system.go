/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package drbg

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/pkg/errors"
)

const (
	// systemBlockSize is the number of bytes read from the OS generator
	// per block.
	systemBlockSize = 16

	// systemBitsPerBlock is the entropy credited to each block. The OS
	// CSPRNG delivers fully conditioned output, so a full credit of 8
	// bits per byte is taken.
	systemBitsPerBlock = 128

	systemSelfTestMinEntropy = 3.5
)

// SystemEntropySource draws entropy from the operating system CSPRNG via
// crypto/rand.
type SystemEntropySource struct {
	mutex           sync.Mutex
	reader          io.Reader
	selfTestEntropy []byte
	passedSelfTest  bool
}

// NewSystemEntropySource creates an entropy source backed by the OS
// CSPRNG.
func NewSystemEntropySource() *SystemEntropySource {
	return &SystemEntropySource{reader: rand.Reader}
}

func (s *SystemEntropySource) String() string {
	return "SystemEntropySource[crypto/rand]"
}

// GetEntropy reads whole blocks from the OS CSPRNG, enough to cover the
// requested bits and the caller's minimum byte count.
func (s *SystemEntropySource) GetEntropy(requestedBits, minBytes, maxBytes int) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.reader == nil {
		return nil, errors.New("entropy source has been disposed")
	}

	blocks := (requestedBits + systemBitsPerBlock - 1) / systemBitsPerBlock
	for minBytes > blocks*systemBlockSize {
		blocks++
	}
	if maxBytes != 0 && blocks*systemBlockSize > maxBytes {
		return nil, errors.Errorf("cannot deliver %d bits within %d bytes", requestedBits, maxBytes)
	}

	buf := make([]byte, blocks*systemBlockSize)
	if _, err := io.ReadFull(s.reader, buf); err != nil {
		return nil, errors.Wrap(err, "reading system entropy")
	}
	return buf, nil
}

// SelfTest checks that an impossible request fails and that a normal
// request returns output meeting the entropy threshold.
func (s *SystemEntropySource) SelfTest() error {
	if _, err := s.GetEntropy(512, 6, 6); err == nil {
		return errors.New("request that should have failed on size limits succeeded")
	}

	buf, err := s.GetEntropy(256, systemBlockSize, systemBlockSize*2)
	if err != nil {
		return errors.Wrap(err, "self-test entropy request failed")
	}
	if len(buf) != systemBlockSize*2 {
		return errors.Errorf("self-test request returned %d bytes, want %d", len(buf), systemBlockSize*2)
	}
	if !CheckByteEntropy(buf, systemSelfTestMinEntropy) {
		return errors.Errorf("self-test output below %.1f bits/byte entropy threshold", systemSelfTestMinEntropy)
	}

	s.mutex.Lock()
	s.selfTestEntropy = buf
	s.passedSelfTest = true
	s.mutex.Unlock()
	return nil
}

// SelfTestEntropy returns a copy of the entropy gathered during a passing
// self-test, or nil.
func (s *SystemEntropySource) SelfTestEntropy() []byte {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.passedSelfTest || s.selfTestEntropy == nil {
		return nil
	}
	out := make([]byte, len(s.selfTestEntropy))
	copy(out, s.selfTestEntropy)
	return out
}

// Dispose makes this source unusable. It is idempotent.
func (s *SystemEntropySource) Dispose() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.reader = nil
	s.passedSelfTest = false
	for i := range s.selfTestEntropy {
		s.selfTestEntropy[i] = 0
	}
	s.selfTestEntropy = nil
}
