/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package drbg

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

const (
	// DefaultRandomDevice is the device read for entropy. Always use
	// "random" not "urandom": urandom delivers bytes whether it has
	// entropy for them or not.
	DefaultRandomDevice = "/dev/random"

	devRandomBlockSize = 32

	// devRandomBitsPerBlock credits 0.75 bits of entropy per output bit,
	// a conservative bound for a device designed to deliver fully
	// conditioned randomness.
	devRandomBitsPerBlock = 192

	devRandomSelfTestMinEntropy = 4.0
)

// DevRandomEntropySource reads entropy from a Unix random device. Reads
// may block until the kernel has gathered enough entropy; that blocking
// propagates to the caller.
type DevRandomEntropySource struct {
	mutex           sync.Mutex
	device          string
	file            *os.File
	reader          *bufio.Reader
	selfTestEntropy []byte
	passedSelfTest  bool
}

// NewDevRandomEntropySource opens the given random device, or
// DefaultRandomDevice when device is empty. Supplying a non-default
// device is dangerous since its quality is not vetted.
func NewDevRandomEntropySource(device string) (*DevRandomEntropySource, error) {
	if device == "" {
		device = DefaultRandomDevice
	}
	f, err := os.Open(device)
	if err != nil {
		return nil, errors.Wrapf(err, "opening random device %s", device)
	}
	return &DevRandomEntropySource{
		device: device,
		file:   f,
		reader: bufio.NewReaderSize(f, devRandomBlockSize),
	}, nil
}

func (s *DevRandomEntropySource) String() string {
	return "DevRandomEntropySource[src=" + s.device + "]"
}

// GetEntropy reads whole blocks from the device, enough to cover the
// requested bits and the caller's minimum byte count.
func (s *DevRandomEntropySource) GetEntropy(requestedBits, minBytes, maxBytes int) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.reader == nil {
		return nil, errors.New("entropy source has been disposed")
	}

	blocks := (requestedBits + devRandomBitsPerBlock - 1) / devRandomBitsPerBlock
	for minBytes > blocks*devRandomBlockSize {
		blocks++
	}
	if maxBytes != 0 && blocks*devRandomBlockSize > maxBytes {
		return nil, errors.Errorf("cannot deliver %d bits within %d bytes", requestedBits, maxBytes)
	}

	buf := make([]byte, blocks*devRandomBlockSize)
	if _, err := io.ReadFull(s.reader, buf); err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.device)
	}
	return buf, nil
}

// SelfTest checks that an impossible request fails and that a normal
// request returns output meeting the entropy threshold.
func (s *DevRandomEntropySource) SelfTest() error {
	if _, err := s.GetEntropy(512, 6, 6); err == nil {
		return errors.New("request that should have failed on size limits succeeded")
	}

	buf, err := s.GetEntropy(256, devRandomBlockSize, devRandomBlockSize*2)
	if err != nil {
		return errors.Wrap(err, "self-test entropy request failed")
	}
	if len(buf) != devRandomBlockSize*2 {
		return errors.Errorf("self-test request returned %d bytes, want %d", len(buf), devRandomBlockSize*2)
	}
	if !CheckByteEntropy(buf, devRandomSelfTestMinEntropy) {
		return errors.Errorf("self-test output below %.1f bits/byte entropy threshold", devRandomSelfTestMinEntropy)
	}

	s.mutex.Lock()
	s.selfTestEntropy = buf
	s.passedSelfTest = true
	s.mutex.Unlock()
	return nil
}

// SelfTestEntropy returns a copy of the entropy gathered during a passing
// self-test, or nil.
func (s *DevRandomEntropySource) SelfTestEntropy() []byte {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.passedSelfTest || s.selfTestEntropy == nil {
		return nil
	}
	out := make([]byte, len(s.selfTestEntropy))
	copy(out, s.selfTestEntropy)
	return out
}

// Dispose closes the device. It is idempotent.
func (s *DevRandomEntropySource) Dispose() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
	s.reader = nil
	s.passedSelfTest = false
	for i := range s.selfTestEntropy {
		s.selfTestEntropy[i] = 0
	}
	s.selfTestEntropy = nil
}
