/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gen

import (
	"math"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/require"

	"github.com/iacrypto/randpassgen/drbg"
)

var testNonce = []byte{1, 2, 1, 2, 1, 2, 5, 2, 1, 2, 1, 2, 1, 2, 15, 3}

func newTestDRBG(t *testing.T) *drbg.HashDRBG {
	t.Helper()
	d, err := drbg.NewHashDRBG("gen-tester", drbg.NewLousyEntropySource())
	require.NoError(t, err)
	require.Equal(t, drbg.StatusSuccess, d.Instantiate(256, false, "gen test", testNonce))
	return d
}

func TestCharacterSetDedup(t *testing.T) {
	cs, err := NewCharacterSet("aaabbbccc123")
	require.NoError(t, err)
	require.Equal(t, 6, cs.Size())
	require.InDelta(t, math.Log2(6), cs.BitsPerItem(), 1e-12)

	// adding an overlapping group only contributes its new characters
	n, err := cs.AddSet("abc456")
	require.NoError(t, err)
	require.Equal(t, 9, n)
}

func TestCharacterSetSizeLimit(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 32768; i++ {
		sb.WriteRune(rune(0x4E00 + i))
	}
	_, err := NewCharacterSet(sb.String())
	require.EqualError(t, err, "character set size 32768 exceeds limit 32767")
}

func TestDefaultUsableSet(t *testing.T) {
	cs, err := NewCharacterSet(DefaultUsable)
	require.NoError(t, err)
	require.Equal(t, 64, cs.Size())
	require.Equal(t, 6.0, cs.BitsPerItem())
}

func TestRandomString(t *testing.T) {
	d := newTestDRBG(t)
	cs, err := NewCharacterSet(LowercaseLetters, UppercaseLetters)
	require.NoError(t, err)
	require.Equal(t, 52, cs.Size())

	s, err := cs.RandomString(12, d)
	require.NoError(t, err)
	require.Len(t, s, 12)
	for _, r := range s {
		require.Contains(t, LowercaseLetters+UppercaseLetters, string(r))
	}

	_, err = cs.RandomString(0, d)
	require.Error(t, err)
	_, err = cs.RandomString(-3, d)
	require.Error(t, err)
}

func TestRandomStringEmptySet(t *testing.T) {
	d := newTestDRBG(t)
	cs, err := NewCharacterSet()
	require.NoError(t, err)

	_, err = cs.RandomString(8, d)
	require.EqualError(t, err, "character set is empty")
}

func TestRandomStringFailedDRBG(t *testing.T) {
	d, err := drbg.NewHashDRBG("gen-dead", drbg.NewLousyEntropySource())
	require.NoError(t, err)
	// never instantiated, so every generate fails

	cs, err := NewCharacterSet(DefaultUsable)
	require.NoError(t, err)
	_, err = cs.RandomString(8, d)
	require.Error(t, err)
}

func TestRandomStringByEntropy(t *testing.T) {
	d := newTestDRBG(t)
	cs, err := NewCharacterSet(DefaultUsable)
	require.NoError(t, err)

	// 160 bits at 6 bits per character takes 27 characters
	s, err := cs.RandomStringByEntropy(160, d)
	require.NoError(t, err)
	require.Len(t, s, 27)

	s, err = cs.RandomStringByEntropy(256, d)
	require.NoError(t, err)
	require.Len(t, s, 43)

	_, err = cs.RandomStringByEntropy(0, d)
	require.Error(t, err)

	// requests beyond twice the DRBG strength are refused
	_, err = cs.RandomStringByEntropy(513, d)
	require.Error(t, err)
	_, err = cs.RandomStringByEntropy(512, d)
	require.NoError(t, err)
}

func TestRandomStringUniformity(t *testing.T) {
	gt := NewGomegaWithT(t)
	d := newTestDRBG(t)
	cs, err := NewCharacterSet(DefaultUsable)
	require.NoError(t, err)

	// draw well over 10k characters and check the frequencies against
	// the uniform expectation
	counts := make(map[rune]int, 64)
	const draws = 200
	const length = 64
	for i := 0; i < draws; i++ {
		s, err := cs.RandomString(length, d)
		require.NoError(t, err)
		for _, r := range s {
			counts[r]++
		}
	}

	total := float64(draws * length)
	expected := total / 64
	stat := 0.0
	for _, c := range counts {
		diff := float64(c) - expected
		stat += diff * diff / expected
	}
	// the 5% critical value at 63 degrees of freedom is 82.5; allow a
	// wide margin since the sequence is fixed
	gt.Expect(stat).To(BeNumerically("<", 110))
	gt.Expect(len(counts)).To(Equal(64))
}
