/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gen

import (
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/require"
)

const testDictionary = `
apple
banana
fig
kiwi
pear
plum
grape
lemon
mango
melon
olive
peach
apple
berry
cherry
extraordinarily
ox
`

func newTestWordSet(t *testing.T) *WordSet {
	t.Helper()
	ws, err := NewWordSet(strings.NewReader(testDictionary))
	require.NoError(t, err)
	return ws
}

func TestNewWordSet(t *testing.T) {
	ws := newTestWordSet(t)

	// blanks dropped, "apple" deduped, "extraordinarily" and "ox" are
	// outside the default 3..12 length range
	require.Equal(t, 14, ws.Size())

	_, err := NewWordSet(strings.NewReader("\n\n"))
	require.EqualError(t, err, "word list is empty")
}

func TestSetLengthRange(t *testing.T) {
	ws := newTestWordSet(t)

	n, err := ws.SetLengthRange(4, 5)
	require.NoError(t, err)
	require.Equal(t, 11, n)
	for _, w := range ws.currentSet {
		require.True(t, len(w) >= 4 && len(w) <= 5)
	}

	// a range matching nothing leaves an empty set
	n, err = ws.SetLengthRange(20, 30)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	_, err = ws.SetLengthRange(-1, 5)
	require.EqualError(t, err, "minimum length cannot be negative")
	_, err = ws.SetLengthRange(0, 1)
	require.EqualError(t, err, "maximum length must be greater than 1")
	_, err = ws.SetLengthRange(5, 5)
	require.EqualError(t, err, "maximum length must be greater than minimum length")
}

func TestRandomWord(t *testing.T) {
	d := newTestDRBG(t)
	ws := newTestWordSet(t)

	for i := 0; i < 20; i++ {
		w, err := ws.RandomWord(d)
		require.NoError(t, err)
		require.Contains(t, ws.currentSet, w)
	}

	_, err := ws.SetLengthRange(20, 30)
	require.NoError(t, err)
	_, err = ws.RandomWord(d)
	require.EqualError(t, err, "no words within the current length range")
}

func TestRandomWordList(t *testing.T) {
	d := newTestDRBG(t)
	ws := newTestWordSet(t)

	words, err := ws.RandomWordList(5, d)
	require.NoError(t, err)
	require.Len(t, words, 5)

	_, err = ws.RandomWordList(0, d)
	require.Error(t, err)
}

func TestRandomWordListByEntropy(t *testing.T) {
	d := newTestDRBG(t)
	ws := newTestWordSet(t)

	// 14 words carry log2(14) = 3.81 bits each; 38 bits need 10 words
	words, err := ws.RandomWordListByEntropy(38, d)
	require.NoError(t, err)
	require.Len(t, words, 10)

	_, err = ws.RandomWordListByEntropy(0, d)
	require.Error(t, err)
	_, err = ws.RandomWordListByEntropy(513, d)
	require.Error(t, err)
}

func TestRandomWordUniformity(t *testing.T) {
	gt := NewGomegaWithT(t)
	d := newTestDRBG(t)
	ws := newTestWordSet(t)

	counts := make(map[string]int)
	const draws = 14000
	for i := 0; i < draws; i++ {
		w, err := ws.RandomWord(d)
		require.NoError(t, err)
		counts[w]++
	}

	expected := float64(draws) / 14
	stat := 0.0
	for _, c := range counts {
		diff := float64(c) - expected
		stat += diff * diff / expected
	}
	// the 5% critical value at 13 degrees of freedom is 22.4; allow a
	// wide margin since the sequence is fixed
	gt.Expect(stat).To(BeNumerically("<", 35))
	gt.Expect(len(counts)).To(Equal(14))
}

func TestRandomUpcase(t *testing.T) {
	d := newTestDRBG(t)
	ws := newTestWordSet(t)

	// n of 0 or less returns the word untouched without drawing
	w, err := ws.RandomUpcase("banana", 0, d)
	require.NoError(t, err)
	require.Equal(t, "banana", w)

	w, err = ws.RandomUpcase("banana", 3, d)
	require.NoError(t, err)
	require.Len(t, w, 6)
	require.Equal(t, "ana", w[3:])
	require.Equal(t, "banana", strings.ToLower(w))

	// n beyond the length covers the whole word
	w, err = ws.RandomUpcase("fig", 10, d)
	require.NoError(t, err)
	require.Equal(t, "fig", strings.ToLower(w))
}

func TestReverseRandomUpcase(t *testing.T) {
	d := newTestDRBG(t)
	ws := newTestWordSet(t)

	w, err := ws.ReverseRandomUpcase("banana", 0, d)
	require.NoError(t, err)
	require.Equal(t, "banana", w)

	w, err = ws.ReverseRandomUpcase("banana", 3, d)
	require.NoError(t, err)
	require.Len(t, w, 6)
	require.Equal(t, "ban", w[:3])
	require.Equal(t, "banana", strings.ToLower(w))
}

func TestRandomUpcaseEventuallyFlips(t *testing.T) {
	d := newTestDRBG(t)
	ws := newTestWordSet(t)

	// over many draws at probability 1/2 per letter, some uppercase
	// letters must appear
	flipped := false
	for i := 0; i < 50 && !flipped; i++ {
		w, err := ws.RandomUpcase("banana", 6, d)
		require.NoError(t, err)
		flipped = w != strings.ToLower(w)
	}
	require.True(t, flipped)
}
