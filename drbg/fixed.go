/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package drbg

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

// FixedValuesEntropySource is completely deterministic. It holds a list of
// fixed values and returns them in a cycle, ignoring the request
// parameters. It exists only to drive known-answer tests.
type FixedValuesEntropySource struct {
	values [][]byte
	index  int
}

// NewFixedValuesEntropySource creates an empty fixed-value source. At
// least one value must be added before use.
func NewFixedValuesEntropySource() *FixedValuesEntropySource {
	return &FixedValuesEntropySource{values: [][]byte{}}
}

// AddValue appends a byte array to the cycle.
func (s *FixedValuesEntropySource) AddValue(value []byte) {
	if s.values != nil {
		s.values = append(s.values, value)
	}
}

// AddHexValue appends a hex-encoded value to the cycle.
func (s *FixedValuesEntropySource) AddHexValue(value string) error {
	b, err := hex.DecodeString(value)
	if err != nil {
		return errors.Wrap(err, "decoding fixed entropy value")
	}
	s.AddValue(b)
	return nil
}

// GetEntropy returns the next value in the cycle, regardless of what was
// requested.
func (s *FixedValuesEntropySource) GetEntropy(requestedBits, minBytes, maxBytes int) ([]byte, error) {
	if s.values == nil {
		return nil, errors.New("entropy source has been disposed")
	}
	if len(s.values) == 0 {
		return nil, errors.New("no fixed entropy values loaded")
	}
	ret := s.values[s.index%len(s.values)]
	s.index++
	return ret, nil
}

// SelfTest passes whenever values have been loaded.
func (s *FixedValuesEntropySource) SelfTest() error {
	if s.values == nil {
		return errors.New("entropy source has been disposed")
	}
	if len(s.values) == 0 {
		return errors.New("no fixed entropy values loaded")
	}
	return nil
}

// SelfTestEntropy always returns nil.
func (s *FixedValuesEntropySource) SelfTestEntropy() []byte {
	return nil
}

// Dispose makes this source unusable.
func (s *FixedValuesEntropySource) Dispose() {
	s.values = nil
	s.index = 0
}
