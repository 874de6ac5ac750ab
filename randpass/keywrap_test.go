/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randpass

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestWrapKeyKnownAnswer(t *testing.T) {
	// RFC 3394 section 4.1, 128-bit data under a 128-bit KEK
	kek := mustHex(t, "000102030405060708090A0B0C0D0E0F")
	plaintext := mustHex(t, "00112233445566778899AABBCCDDEEFF")
	want := mustHex(t, "1FA68B0A8112B447AEF34BD8FB5A7B829D3E862371D2CFE5")

	wrapped, err := WrapKey(kek, plaintext)
	require.NoError(t, err)
	require.Equal(t, want, wrapped)

	unwrapped, err := UnwrapKey(kek, wrapped)
	require.NoError(t, err)
	require.Equal(t, plaintext, unwrapped)
}

func TestWrapKeyRoundTrip(t *testing.T) {
	kek := deriveKEK("a sufficiently long password")
	plaintext := []byte("0123456789abcdef0123456789abcdef")

	wrapped, err := WrapKey(kek, plaintext)
	require.NoError(t, err)
	require.Len(t, wrapped, len(plaintext)+8)
	require.NotContains(t, string(wrapped), string(plaintext[:8]))

	unwrapped, err := UnwrapKey(kek, wrapped)
	require.NoError(t, err)
	require.Equal(t, plaintext, unwrapped)
}

func TestUnwrapKeyIntegrity(t *testing.T) {
	kek := deriveKEK("a sufficiently long password")
	wrapped, err := WrapKey(kek, []byte("0123456789abcdef"))
	require.NoError(t, err)

	// wrong KEK
	_, err = UnwrapKey(deriveKEK("a different long password"), wrapped)
	require.EqualError(t, err, "key unwrap integrity check failed")

	// corrupted ciphertext
	wrapped[9] ^= 0x01
	_, err = UnwrapKey(kek, wrapped)
	require.EqualError(t, err, "key unwrap integrity check failed")
}

func TestWrapKeySizeChecks(t *testing.T) {
	kek := deriveKEK("a sufficiently long password")

	_, err := WrapKey(kek, []byte("12345678"))
	require.Error(t, err)
	_, err = WrapKey(kek, []byte("123456789012345678"))
	require.Error(t, err)

	_, err = UnwrapKey(kek, []byte("1234567890123456"))
	require.Error(t, err)
}

func TestEncryptKeyToFile(t *testing.T) {
	dir := t.TempDir()
	encPath := filepath.Join(dir, "key.enc")
	outPath := filepath.Join(dir, "key.txt")
	const hexKey = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	const password = "my wrapping password"

	require.NoError(t, EncryptKeyToFile(password, hexKey, encPath))

	wrapped, err := os.ReadFile(encPath)
	require.NoError(t, err)
	require.Len(t, wrapped, len(hexKey)+8)

	require.NoError(t, DecryptKeyFile(password, encPath, outPath))
	recovered, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, hexKey, string(recovered))

	err = DecryptKeyFile("another wrapping password", encPath, outPath)
	require.ErrorContains(t, err, "integrity check failed")
}

func TestEncryptKeyToFileShortPassword(t *testing.T) {
	err := EncryptKeyToFile("short", "00112233445566778899aabbccddeeff", filepath.Join(t.TempDir(), "k.enc"))
	require.EqualError(t, err, "password must be at least 16 characters")

	err = DecryptKeyFile("short", "nosuchfile.enc", "out.txt")
	require.EqualError(t, err, "password must be at least 16 characters")
}
