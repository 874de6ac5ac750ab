/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gen

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iacrypto/randpassgen/drbg"
)

func TestGenerateHexKey(t *testing.T) {
	d := newTestDRBG(t)

	key, err := GenerateHexKey(128, d)
	require.NoError(t, err)
	require.Len(t, key, 32)
	_, err = hex.DecodeString(key)
	require.NoError(t, err)

	key, err = GenerateHexKey(256, d)
	require.NoError(t, err)
	require.Len(t, key, 64)

	// consecutive keys differ
	other, err := GenerateHexKey(256, d)
	require.NoError(t, err)
	require.NotEqual(t, key, other)
}

func TestGenerateHexKeyRejections(t *testing.T) {
	d := newTestDRBG(t)

	_, err := GenerateHexKey(0, d)
	require.Error(t, err)
	_, err = GenerateHexKey(-8, d)
	require.Error(t, err)

	_, err = GenerateHexKey(130, d)
	require.EqualError(t, err, "requested strength 130 must be a multiple of 8")

	// twice the DRBG strength is the ceiling
	_, err = GenerateHexKey(520, d)
	require.Error(t, err)
	_, err = GenerateHexKey(512, d)
	require.NoError(t, err)
}

func TestGenerateHexKeyFailedDRBG(t *testing.T) {
	d, err := drbg.NewHashDRBG("hexkey-dead", drbg.NewLousyEntropySource())
	require.NoError(t, err)

	_, err = GenerateHexKey(128, d)
	require.Error(t, err)
}
