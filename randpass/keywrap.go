/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randpass

import (
	"crypto/aes"
	"crypto/sha512"
	"crypto/subtle"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// MinWrapPasswordLength is the shortest password accepted for key
	// encryption. A 16-character random password from the default 64
	// character set carries 96 bits of entropy.
	MinWrapPasswordLength = 16

	// keyWrapSalt is a fixed 256-bit salt, generated once from a DRNG.
	// Its ASCII bytes are fed to the KDF, following NIST SP800-132 usage
	// with a public salt.
	keyWrapSalt = "762043c38a8e1ad1c8502ec6e53d8c503fe9b28bf73f583e4fadd5888737a5ae"

	keyWrapIterations = 100000
	kekBytes          = 32
)

// keyWrapIV is the default initial value from RFC 3394 section 2.2.3.1.
var keyWrapIV = [8]byte{0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6}

// deriveKEK derives a 256-bit AES key-encryption key from a password,
// PBKDF2-HMAC-SHA512 per NIST SP800-132.
func deriveKEK(password string) []byte {
	return pbkdf2.Key([]byte(password), []byte(keyWrapSalt), keyWrapIterations, kekBytes, sha512.New)
}

// WrapKey wraps plaintext under kek using the AES key wrap of RFC 3394.
// The plaintext must be a multiple of 8 bytes and at least 16; the result
// is 8 bytes longer.
func WrapKey(kek, plaintext []byte) ([]byte, error) {
	if len(plaintext)%8 != 0 || len(plaintext) < 16 {
		return nil, errors.Errorf("key wrap input of %d bytes is not a multiple of 8 of at least 16", len(plaintext))
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, errors.Wrap(err, "creating key wrap cipher")
	}

	n := len(plaintext) / 8
	a := keyWrapIV
	r := make([]byte, len(plaintext))
	copy(r, plaintext)

	var b [16]byte
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(b[:8], a[:])
			copy(b[8:], r[(i-1)*8:i*8])
			block.Encrypt(b[:], b[:])
			copy(a[:], b[:8])
			t := uint64(n*j + i)
			for k := 0; k < 8; k++ {
				a[7-k] ^= byte(t >> (8 * uint(k)))
			}
			copy(r[(i-1)*8:i*8], b[8:])
		}
	}

	out := make([]byte, 8+len(r))
	copy(out, a[:])
	copy(out[8:], r)
	return out, nil
}

// UnwrapKey inverts WrapKey, failing when the integrity check of RFC 3394
// section 2.2.2 does not hold.
func UnwrapKey(kek, wrapped []byte) ([]byte, error) {
	if len(wrapped)%8 != 0 || len(wrapped) < 24 {
		return nil, errors.Errorf("wrapped key of %d bytes is not a multiple of 8 of at least 24", len(wrapped))
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, errors.Wrap(err, "creating key wrap cipher")
	}

	n := len(wrapped)/8 - 1
	var a [8]byte
	copy(a[:], wrapped[:8])
	r := make([]byte, len(wrapped)-8)
	copy(r, wrapped[8:])

	var b [16]byte
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			copy(b[:8], a[:])
			for k := 0; k < 8; k++ {
				b[7-k] ^= byte(t >> (8 * uint(k)))
			}
			copy(b[8:], r[(i-1)*8:i*8])
			block.Decrypt(b[:], b[:])
			copy(a[:], b[:8])
			copy(r[(i-1)*8:i*8], b[8:])
		}
	}

	if subtle.ConstantTimeCompare(a[:], keyWrapIV[:]) != 1 {
		return nil, errors.New("key unwrap integrity check failed")
	}
	return r, nil
}

// EncryptKeyToFile wraps the ASCII bytes of a hex key under a KEK derived
// from password and writes the result to path. The password must carry
// enough entropy to protect the key, so short ones are refused.
func EncryptKeyToFile(password, hexKey, path string) error {
	if len(password) < MinWrapPasswordLength {
		return errors.Errorf("password must be at least %d characters", MinWrapPasswordLength)
	}

	wrapped, err := WrapKey(deriveKEK(password), []byte(hexKey))
	if err != nil {
		return errors.WithMessage(err, "wrapping key")
	}
	if err := os.WriteFile(path, wrapped, 0o600); err != nil {
		return errors.Wrapf(err, "writing encrypted key file %s", path)
	}
	return nil
}

// DecryptKeyFile unwraps an encrypted key file and writes the recovered
// key to outPath.
func DecryptKeyFile(password, encPath, outPath string) error {
	if len(password) < MinWrapPasswordLength {
		return errors.Errorf("password must be at least %d characters", MinWrapPasswordLength)
	}

	wrapped, err := os.ReadFile(encPath)
	if err != nil {
		return errors.Wrapf(err, "reading encrypted key file %s", encPath)
	}
	key, err := UnwrapKey(deriveKEK(password), wrapped)
	if err != nil {
		return errors.WithMessage(err, "unwrapping key")
	}
	if err := os.WriteFile(outPath, key, 0o600); err != nil {
		return errors.Wrapf(err, "writing decrypted key file %s", outPath)
	}
	return nil
}
