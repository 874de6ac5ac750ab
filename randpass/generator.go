/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randpass

import (
	"bufio"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"

	"github.com/iacrypto/randpassgen/common/flogging"
	"github.com/iacrypto/randpassgen/gen"
)

const (
	// DefaultStrength is the default strength for generated values in
	// bits. It is unrelated to the strength of the underlying DRBG,
	// which is fixed by the Manager.
	DefaultStrength = 160

	// MinWordLength is the minimum word length used in passphrases.
	MinWordLength = 3

	// MaxWordLength is the default maximum word length used in
	// passphrases.
	MaxWordLength = 8

	// DefaultChunkSeparator separates groups when chunk formatting is
	// enabled.
	DefaultChunkSeparator = "-"
)

// keyLogger records the ID of every generated key, the key generation
// transaction log.
var keyLogger = flogging.MustGetLogger("randpass.keys")

// Generator produces passwords, passphrases, and hex keys through a
// Manager, writing results to the configured output.
type Generator struct {
	manager *Manager
	out     io.Writer

	useChunking bool
	chunkSize   int
	chunkSep    string
}

// NewGenerator creates a Generator writing to out.
func NewGenerator(manager *Manager, out io.Writer) (*Generator, error) {
	if manager == nil {
		return nil, errors.New("manager may not be nil")
	}
	if out == nil {
		return nil, errors.New("output writer may not be nil")
	}
	return &Generator{manager: manager, out: out}, nil
}

// SetChunkFormatting enables grouping of keys and passwords into chunks
// of size characters separated by sep, an empty sep selecting the
// default. A size of 0 or less disables chunking. Chunking never applies
// to passphrases.
func (g *Generator) SetChunkFormatting(size int, sep string) {
	if size <= 0 {
		g.useChunking = false
		g.chunkSize = 0
		g.chunkSep = ""
		return
	}
	g.useChunking = true
	g.chunkSize = size
	g.chunkSep = sep
	if g.chunkSep == "" {
		g.chunkSep = DefaultChunkSeparator
	}
}

// FormatWithSeparators returns src split into groups of groupSize
// characters joined by sep. The last group may be short. A groupSize of
// 0 or less, or an empty separator, returns src unchanged.
func FormatWithSeparators(src string, groupSize int, sep string) string {
	if groupSize <= 0 || sep == "" {
		return src
	}

	var sb strings.Builder
	for pos := 0; pos < len(src); pos += groupSize {
		if pos > 0 {
			sb.WriteString(sep)
		}
		end := pos + groupSize
		if end > len(src) {
			end = len(src)
		}
		sb.WriteString(src[pos:end])
	}
	return sb.String()
}

func (g *Generator) chunked(s string) string {
	if !g.useChunking {
		return s
	}
	return FormatWithSeparators(s, g.chunkSize, g.chunkSep)
}

// drbgForGeneration fetches a usable DRBG and applies the shared strength
// ceiling check.
func (g *Generator) drbgForGeneration(count, strength int) (gen.RandomSource, error) {
	if count < 1 {
		return nil, errors.Errorf("requested count %d must be positive", count)
	}
	drbg := g.manager.DRBG()
	if drbg == nil {
		return nil, errors.New("DRBG is not usable")
	}
	if strength > drbg.Strength()*2 {
		return nil, errors.Errorf("requested strength %d exceeds twice the DRBG strength %d", strength, drbg.Strength())
	}
	return drbg, nil
}

// charsetFromSpec builds the password alphabet from a selection string: a
// lowercase letter selects lowercase, an uppercase letter uppercase, a
// digit digits, and any other character basic punctuation. An empty
// result falls back to the default unambiguous set.
func charsetFromSpec(spec string) (*gen.CharacterSet, error) {
	cs, err := gen.NewCharacterSet()
	if err != nil {
		return nil, err
	}
	for _, r := range spec {
		var group string
		switch {
		case unicode.IsLower(r):
			group = gen.LowercaseLetters
		case unicode.IsUpper(r):
			group = gen.UppercaseLetters
		case unicode.IsDigit(r):
			group = gen.Digits
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			group = gen.Punctuation
		default:
			continue
		}
		if _, err := cs.AddSet(group); err != nil {
			return nil, err
		}
	}
	if cs.Size() == 0 {
		if _, err := cs.AddSet(gen.DefaultUsable); err != nil {
			return nil, err
		}
	}
	return cs, nil
}

// charsetFromFile builds the password alphabet from the lines of a custom
// charset file.
func charsetFromFile(r io.Reader) (*gen.CharacterSet, error) {
	cs, err := gen.NewCharacterSet()
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if _, err := cs.AddSet(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading custom charset")
	}
	if cs.Size() == 0 {
		return nil, errors.New("custom charset is empty")
	}
	return cs, nil
}

// GeneratePasswords generates count passwords of the given strength and
// writes them to the output, one per line, chunk formatted when enabled.
// The alphabet comes from charsetFile when non-nil, else from the
// selection string spec, else the default unambiguous set. It returns
// the number generated.
func (g *Generator) GeneratePasswords(count, strength int, spec string, charsetFile io.Reader) (int, error) {
	drbg, err := g.drbgForGeneration(count, strength)
	if err != nil {
		return 0, err
	}

	var cs *gen.CharacterSet
	if charsetFile != nil {
		cs, err = charsetFromFile(charsetFile)
	} else {
		cs, err = charsetFromSpec(spec)
	}
	if err != nil {
		return 0, err
	}
	logger.Debugf("initialized password character set, size=%d", cs.Size())

	passwords := make([]string, 0, count)
	for i := 0; i < count; i++ {
		p, err := cs.RandomStringByEntropy(strength, drbg)
		if err != nil {
			return 0, errors.WithMessage(err, "generating password")
		}
		passwords = append(passwords, p)
	}
	logger.Infof("generated %d passwords at strength %d", len(passwords), strength)

	for _, p := range passwords {
		fmt.Fprintln(g.out, g.chunked(p))
	}
	return len(passwords), nil
}

// GeneratePassphrases generates count passphrases of the given strength
// from the word list and writes them to the output, one per line, words
// separated by spaces. Words longer than maxWordLen are excluded, a
// maxWordLen at or below the minimum selecting the default. When
// randomUpcase is positive, each word has its first randomUpcase letters
// upcased with probability 1/2 each. It returns the number generated.
func (g *Generator) GeneratePassphrases(count, strength int, wordlist io.Reader, maxWordLen, randomUpcase int) (int, error) {
	drbg, err := g.drbgForGeneration(count, strength)
	if err != nil {
		return 0, err
	}
	if randomUpcase < 0 {
		randomUpcase = 0
	}

	ws, err := gen.NewWordSet(wordlist)
	if err != nil {
		return 0, errors.WithMessage(err, "loading word list")
	}
	if maxWordLen <= MinWordLength {
		maxWordLen = MaxWordLength
	}
	n, err := ws.SetLengthRange(MinWordLength, maxWordLen)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("no words within the passphrase length range")
	}
	logger.Debugf("initialized passphrase word set, size=%d", n)

	passphrases := make([]string, 0, count)
	for i := 0; i < count; i++ {
		words, err := ws.RandomWordListByEntropy(strength, drbg)
		if err != nil {
			return 0, errors.WithMessage(err, "generating passphrase")
		}
		for j, w := range words {
			words[j], err = ws.RandomUpcase(w, randomUpcase, drbg)
			if err != nil {
				return 0, errors.WithMessage(err, "upcasing passphrase word")
			}
		}
		passphrases = append(passphrases, strings.Join(words, " "))
	}
	logger.Infof("generated %d passphrases at strength %d", len(passphrases), strength)

	for _, p := range passphrases {
		fmt.Fprintln(g.out, p)
	}
	return len(passphrases), nil
}

// keyID builds the identifier recorded for a generated key, the
// generation timestamp followed by the first 64 bits of the SHA-384 hash
// of the key's hex form.
func keyID(hexKey string, now time.Time) string {
	sum := sha512.Sum384([]byte(hexKey))
	return now.Format("20060102_150405") + hex.EncodeToString(sum[:8])
}

// GenerateKeys generates count raw hex keys of the given strength and
// writes each to the output, chunk formatted when enabled, followed by
// its key ID. Every key ID is recorded in the key transaction log. When
// password is non-empty, each key is additionally wrapped under the
// password into a file named <keyID>.enc. It returns the number
// generated.
func (g *Generator) GenerateKeys(count, strength int, password string) (int, error) {
	drbg, err := g.drbgForGeneration(count, strength)
	if err != nil {
		return 0, err
	}

	keys := make([]string, 0, count)
	for i := 0; i < count; i++ {
		k, err := gen.GenerateHexKey(strength, drbg)
		if err != nil {
			return 0, errors.WithMessage(err, "generating key")
		}
		keys = append(keys, k)
	}
	logger.Infof("generated %d keys at strength %d", len(keys), strength)

	for _, k := range keys {
		id := keyID(k, time.Now())

		fmt.Fprintln(g.out, g.chunked(k))
		fmt.Fprintln(g.out, "Key ID:")
		fmt.Fprintln(g.out, id)
		keyLogger.Infof("%s", id)

		if password != "" {
			if err := EncryptKeyToFile(password, k, id+".enc"); err != nil {
				return 0, errors.WithMessagef(err, "encrypting key %s", id)
			}
			logger.Debugf("encrypted key %s with password", id)
		}
	}
	return len(keys), nil
}

// ReadWordList opens a word list file for GeneratePassphrases. The
// caller closes the returned file.
func ReadWordList(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening word list %s", path)
	}
	return f, nil
}
