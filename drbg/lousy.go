/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package drbg

import "github.com/pkg/errors"

// LousyEntropySource is completely deterministic. It returns exactly the
// minimum requested bytes, all 'a'. It exists only to drive self-tests of
// the DRBG machinery.
type LousyEntropySource struct {
	disposed bool
}

// NewLousyEntropySource creates a lousy source.
func NewLousyEntropySource() *LousyEntropySource {
	return &LousyEntropySource{}
}

func (s *LousyEntropySource) String() string {
	return "LousyEntropySource[deterministic]"
}

// GetEntropy returns minBytes bytes of 'a', regardless of what was
// requested.
func (s *LousyEntropySource) GetEntropy(requestedBits, minBytes, maxBytes int) ([]byte, error) {
	if s.disposed {
		return nil, errors.New("entropy source has been disposed")
	}
	buf := make([]byte, minBytes)
	for i := range buf {
		buf[i] = 'a'
	}
	return buf, nil
}

// SelfTest always passes. The whole point of this source is to slip past
// source-level checks and get caught downstream.
func (s *LousyEntropySource) SelfTest() error {
	return nil
}

// SelfTestEntropy always returns nil.
func (s *LousyEntropySource) SelfTestEntropy() []byte {
	return nil
}

// Dispose makes this source unusable.
func (s *LousyEntropySource) Dispose() {
	s.disposed = true
}
