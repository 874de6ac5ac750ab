/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gen

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/iacrypto/randpassgen/drbg"
)

// Character groups for composing password alphabets.
const (
	// UppercaseLetters holds the uppercase letters for English.
	UppercaseLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// LowercaseLetters holds the lowercase letters for English.
	LowercaseLetters = "abcdefghijklmnopqrstuvwxyz"

	// Digits holds the decimal digits.
	Digits = "0123456789"

	// Punctuation holds basic punctuation.
	Punctuation = ".,:;-+"

	// SpecialChars holds more punctuation, less commonly accepted.
	SpecialChars = "\"'?/!~`|{}[]()^&%$#@*"

	// DefaultUsable is the base unambiguous set, no 0 vs O or l vs 1,
	// exactly 64 characters so each carries 6 bits.
	DefaultUsable = "ABCDEFGHIJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789.+:%#$"
)

// maxCharSetSize bounds the alphabet so one 15-bit draw covers it.
const maxCharSetSize = 32767

// charBufferFill is the number of 15-bit values fetched from the DRBG at
// a time, 2 bytes each.
const charBufferFill = 24

// CharacterSet is an alphabet from which passwords are sampled, each
// character chosen uniformly. Added groups are concatenated and deduped,
// first occurrence winning, so repeated characters never skew the output
// distribution.
type CharacterSet struct {
	sets    []string
	charset []rune

	shortBuf   []uint16
	shortIndex int
}

// NewCharacterSet creates a CharacterSet from the given groups. At least
// one non-empty group must be added, here or via AddSet, before sampling.
func NewCharacterSet(groups ...string) (*CharacterSet, error) {
	cs := &CharacterSet{}
	for _, g := range groups {
		if _, err := cs.AddSet(g); err != nil {
			return nil, err
		}
	}
	return cs, nil
}

// AddSet merges the characters of s into the alphabet and returns the
// deduped size.
func (cs *CharacterSet) AddSet(s string) (int, error) {
	cs.sets = append(cs.sets, s)
	cs.charset = uniqueRunes(strings.Join(cs.sets, ""))

	// the draw buffer is discarded on rebuild even though its contents
	// are alphabet-independent
	cs.shortBuf = nil
	cs.shortIndex = 0

	if len(cs.charset) > maxCharSetSize {
		return 0, errors.Errorf("character set size %d exceeds limit %d", len(cs.charset), maxCharSetSize)
	}
	return len(cs.charset), nil
}

// uniqueRunes returns the runes of s with duplicates dropped, keeping
// first occurrences in order.
func uniqueRunes(s string) []rune {
	seen := make(map[rune]bool, len(s))
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// Size returns the number of unique characters in the alphabet.
func (cs *CharacterSet) Size() int {
	return len(cs.charset)
}

// BitsPerItem returns the entropy carried by one character, log2 of the
// deduped size.
func (cs *CharacterSet) BitsPerItem() float64 {
	return math.Log2(float64(len(cs.charset)))
}

// fillShortBuf refills the buffer of 15-bit values from the DRBG, two
// bytes per value with the top bit dropped.
func (cs *CharacterSet) fillShortBuf(src RandomSource) error {
	raw := make([]byte, charBufferFill*2)
	if status := src.Generate(len(raw), 0, false, nil, raw); status != drbg.StatusSuccess {
		return errors.Errorf("DRBG generate returned %s", status)
	}

	cs.shortBuf = make([]uint16, charBufferFill)
	cs.shortIndex = 0
	for i := range cs.shortBuf {
		cs.shortBuf[i] = (uint16(raw[2*i])<<8 | uint16(raw[2*i+1])) & 0x7fff
	}
	return nil
}

// nextUniformShort returns a uniformly distributed value on [0, max),
// rejection sampling over the 15-bit draw buffer.
func (cs *CharacterSet) nextUniformShort(max int, src RandomSource) (int, error) {
	rlim := (maxCharSetSize / max) * max
	for {
		if cs.shortBuf == nil || cs.shortIndex >= len(cs.shortBuf) {
			if err := cs.fillShortBuf(src); err != nil {
				return 0, err
			}
		}
		v := int(cs.shortBuf[cs.shortIndex])
		cs.shortIndex++
		if v < rlim {
			return v % max, nil
		}
	}
}

// RandomString samples a string of the given length, each character
// uniform over the alphabet.
func (cs *CharacterSet) RandomString(length int, src RandomSource) (string, error) {
	if length <= 0 {
		return "", errors.Errorf("requested length %d must be positive", length)
	}
	if cs.Size() == 0 {
		return "", errors.New("character set is empty")
	}

	var sb strings.Builder
	for i := 0; i < length; i++ {
		v, err := cs.nextUniformShort(cs.Size(), src)
		if err != nil {
			logger.Warnf("random string aborted: %s", err)
			return "", errors.WithMessage(err, "sampling character")
		}
		sb.WriteRune(cs.charset[v])
	}
	return sb.String(), nil
}

// RandomStringByEntropy samples a string long enough to carry the
// requested bits of entropy. Requests above twice the DRBG's strength
// are refused.
func (cs *CharacterSet) RandomStringByEntropy(strength int, src RandomSource) (string, error) {
	if strength < 1 {
		return "", errors.Errorf("requested strength %d must be positive", strength)
	}
	if strength > src.Strength()*2 {
		return "", errors.Errorf("requested strength %d exceeds twice the DRBG strength %d", strength, src.Strength())
	}

	length := int(math.Ceil(float64(strength) / cs.BitsPerItem()))
	return cs.RandomString(length, src)
}
