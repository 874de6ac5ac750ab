/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gen

import (
	"bufio"
	"io"
	"math"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

const (
	// DefaultMinWordLength is the minimum word length a new WordSet
	// accepts.
	DefaultMinWordLength = 3

	// DefaultMaxWordLength is the maximum word length a new WordSet
	// accepts.
	DefaultMaxWordLength = 12
)

// WordSet loads a dictionary and samples passphrases from it, each word
// chosen uniformly over a length-constrained subset. Duplicate dictionary
// entries are dropped so every unique word has equal probability.
type WordSet struct {
	baseWords  []string
	currentSet []string
	rlimit     int
}

// NewWordSet loads a dictionary from r, one word per line, trimming
// whitespace, dropping blank lines and duplicates. The length range
// starts at the defaults.
func NewWordSet(r io.Reader) (*WordSet, error) {
	ws := &WordSet{}

	seen := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || seen[word] {
			continue
		}
		seen[word] = true
		ws.baseWords = append(ws.baseWords, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading word list")
	}
	if len(ws.baseWords) == 0 {
		return nil, errors.New("word list is empty")
	}
	logger.Infof("loaded %d unique words into candidate set", len(ws.baseWords))

	if _, err := ws.SetLengthRange(DefaultMinWordLength, DefaultMaxWordLength); err != nil {
		return nil, err
	}
	return ws, nil
}

// SetLengthRange restricts sampling to words whose length falls within
// [minLen, maxLen] and returns the size of the restricted set, which may
// be 0.
func (ws *WordSet) SetLengthRange(minLen, maxLen int) (int, error) {
	if minLen < 0 {
		return 0, errors.New("minimum length cannot be negative")
	}
	if maxLen < 2 {
		return 0, errors.New("maximum length must be greater than 1")
	}
	if minLen >= maxLen {
		return 0, errors.New("maximum length must be greater than minimum length")
	}

	ws.currentSet = nil
	for _, w := range ws.baseWords {
		if len(w) >= minLen && len(w) <= maxLen {
			ws.currentSet = append(ws.currentSet, w)
		}
	}

	// rlimit removes the bias a plain modulus would introduce
	ws.rlimit = 0
	if len(ws.currentSet) > 0 {
		ws.rlimit = (math.MaxInt32 / len(ws.currentSet)) * len(ws.currentSet)
	}
	return len(ws.currentSet), nil
}

// Size returns the size of the current length-constrained set.
func (ws *WordSet) Size() int {
	return len(ws.currentSet)
}

// BitsPerItem returns the entropy carried by one word, log2 of the
// current set size.
func (ws *WordSet) BitsPerItem() float64 {
	return math.Log2(float64(ws.Size()))
}

// RandomWord samples one word uniformly from the current set. The draw
// size adapts to the set: 2, 3, or 4 bytes of DRBG output per attempt,
// rejection sampling under rlimit.
func (ws *WordSet) RandomWord(src RandomSource) (string, error) {
	if ws.Size() == 0 {
		return "", errors.New("no words within the current length range")
	}

	intsize := 4
	if ws.rlimit < 1<<20 {
		intsize = 3
	}
	if ws.rlimit < 1<<12 {
		intsize = 2
	}

	for {
		v, err := src.GenerateIntAtSize(0, intsize)
		if err != nil {
			logger.Warnf("random word aborted: %s", err)
			return "", errors.WithMessage(err, "sampling word index")
		}
		if v >= ws.rlimit {
			continue
		}
		return ws.currentSet[v%ws.Size()], nil
	}
}

// RandomWordList samples n words. A DRBG failure part way through aborts
// the whole list.
func (ws *WordSet) RandomWordList(n int, src RandomSource) ([]string, error) {
	if n < 1 {
		return nil, errors.Errorf("requested word count %d must be positive", n)
	}

	words := make([]string, n)
	for i := range words {
		w, err := ws.RandomWord(src)
		if err != nil {
			return nil, err
		}
		words[i] = w
	}
	return words, nil
}

// RandomWordListByEntropy samples enough words to carry the requested
// bits of entropy. Requests above twice the DRBG's strength are refused.
func (ws *WordSet) RandomWordListByEntropy(strength int, src RandomSource) ([]string, error) {
	if strength < 1 {
		return nil, errors.Errorf("requested strength %d must be positive", strength)
	}
	if strength > src.Strength()*2 {
		return nil, errors.Errorf("requested strength %d exceeds twice the DRBG strength %d", strength, src.Strength())
	}

	n := int(math.Ceil(float64(strength) / ws.BitsPerItem()))
	return ws.RandomWordList(n, src)
}

// RandomUpcase flips the first n letters of word to uppercase with
// probability 1/2 each, one DRBG byte per letter. An n at or beyond the
// word length covers the whole word.
func (ws *WordSet) RandomUpcase(word string, n int, src RandomSource) (string, error) {
	if n <= 0 {
		return word, nil
	}

	runes := []rune(word)
	for i := range runes {
		if i >= n {
			break
		}
		b, err := src.GenerateByte()
		if err != nil {
			return "", errors.WithMessage(err, "sampling upcase byte")
		}
		if b > 127 {
			runes[i] = unicode.ToUpper(runes[i])
		}
	}
	return string(runes), nil
}

// ReverseRandomUpcase is RandomUpcase measured from the end of the word.
func (ws *WordSet) ReverseRandomUpcase(word string, n int, src RandomSource) (string, error) {
	if n <= 0 {
		return word, nil
	}

	runes := []rune(word)
	start := len(runes) - n
	for i := range runes {
		if i < start {
			continue
		}
		b, err := src.GenerateByte()
		if err != nil {
			return "", errors.WithMessage(err, "sampling upcase byte")
		}
		if b > 127 {
			runes[i] = unicode.ToUpper(runes[i])
		}
	}
	return string(runes), nil
}
