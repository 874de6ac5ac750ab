/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package drbg

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"

	"github.com/pkg/errors"
)

// DefaultHashSize is the digest size used when a caller passes 0.
const DefaultHashSize = 256

// Hash wraps a digest engine selected by output size and provides the
// Hash_df derivation function from SP800-90 section 10.4.1.
type Hash struct {
	engine  hash.Hash
	outBits int
}

func newDigest(sizeBits int) (hash.Hash, error) {
	switch sizeBits {
	case 160:
		return sha1.New(), nil
	case 256:
		return sha256.New(), nil
	case 384:
		return sha512.New384(), nil
	case 512:
		return sha512.New(), nil
	default:
		return nil, errors.Errorf("unsupported hash size %d", sizeBits)
	}
}

// NewHash creates a Hash for the given output size in bits. A size of 0
// selects DefaultHashSize. Sizes outside the 160/256/384/512 table are
// rejected.
func NewHash(sizeBits int) (*Hash, error) {
	if sizeBits == 0 {
		sizeBits = DefaultHashSize
	}
	engine, err := newDigest(sizeBits)
	if err != nil {
		return nil, err
	}
	return &Hash{engine: engine, outBits: sizeBits}, nil
}

// Reset re-initializes the digest engine.
func (h *Hash) Reset() {
	h.engine.Reset()
}

// Update feeds bytes into the digest.
func (h *Hash) Update(b []byte) {
	h.engine.Write(b)
}

// UpdateByte feeds a single byte into the digest.
func (h *Hash) UpdateByte(b byte) {
	h.engine.Write([]byte{b})
}

// Size returns the digest length in bytes.
func (h *Hash) Size() int {
	return h.outBits / 8
}

// Digest writes the digest into out. The digest engine is not reset.
func (h *Hash) Digest(out []byte) error {
	if len(out) < h.Size() {
		return errors.Errorf("digest buffer too small: %d < %d", len(out), h.Size())
	}
	copy(out, h.engine.Sum(nil))
	return nil
}

// HashDF is the hash-based derivation function from SP800-90 section
// 10.4.1. It iterates a one-byte counter from 1 upward, each iteration
// hashing counter || reqBits(32-bit big-endian) || input, concatenating
// digest blocks until reqBits bits are produced, then truncates to exactly
// that length. reqBits must be a multiple of 8 and out must hold reqBits/8
// bytes. The engine is reset at each iteration, so any intermediate hash
// state is lost.
func (h *Hash) HashDF(input []byte, reqBits int, out []byte) error {
	if reqBits%8 != 0 {
		return errors.Errorf("hash_df output bits %d not a multiple of 8", reqBits)
	}
	if reqBits > 8*len(out) {
		return errors.Errorf("hash_df output buffer too small for %d bits", reqBits)
	}

	outLen := h.Size()
	rounds := (reqBits/8 + outLen - 1) / outLen

	temp := make([]byte, 0, rounds*outLen)
	digest := make([]byte, outLen)
	for counter := 1; counter <= rounds; counter++ {
		h.Reset()
		h.UpdateByte(byte(counter))
		h.UpdateByte(byte(reqBits >> 24))
		h.UpdateByte(byte(reqBits >> 16))
		h.UpdateByte(byte(reqBits >> 8))
		h.UpdateByte(byte(reqBits))
		h.Update(input)
		if err := h.Digest(digest); err != nil {
			return err
		}
		temp = append(temp, digest...)
	}
	copy(out, temp[:reqBits/8])
	return nil
}

// Known digests of "abc" for the self-test, from the algorithm standards.
var hashSelfTestVectors = []struct {
	sizeBits int
	digest   string
}{
	{160, "a9993e364706816aba3e25717850c26c9cd0d89d"},
	{256, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	{512, "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"},
}

// SelfTest checks the digest engines against known answers, feeding the
// input both whole and byte at a time.
func (h *Hash) SelfTest() error {
	input := []byte("abc")
	for _, v := range hashSelfTestVectors {
		want, err := hex.DecodeString(v.digest)
		if err != nil {
			return err
		}

		th, err := NewHash(v.sizeBits)
		if err != nil {
			return err
		}
		th.Update(input)
		got := make([]byte, th.Size())
		if err := th.Digest(got); err != nil {
			return err
		}
		if !bytes.Equal(got, want) {
			return errors.Errorf("hash self-test failed at size %d", v.sizeBits)
		}

		th.Reset()
		for _, b := range input {
			th.UpdateByte(b)
		}
		if err := th.Digest(got); err != nil {
			return err
		}
		if !bytes.Equal(got, want) {
			return errors.Errorf("hash self-test failed at size %d (incremental)", v.sizeBits)
		}
	}
	return nil
}
