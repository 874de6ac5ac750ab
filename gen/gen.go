/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package gen provides uniform samplers over character sets, word sets,
// and raw hex keys, drawing their randomness from an instantiated DRBG.
package gen

import (
	"github.com/iacrypto/randpassgen/common/flogging"
	"github.com/iacrypto/randpassgen/drbg"
)

var logger = flogging.MustGetLogger("gen")

// RandomSource is the slice of DRBG behavior the samplers consume. An
// instantiated *drbg.HashDRBG satisfies it.
type RandomSource interface {
	Generate(numBytes, requestedStrength int, predictionResistance bool, additionalInput []byte, out []byte) drbg.Status

	// Strength returns the instantiated bit strength, or 0 when the
	// generator is not usable.
	Strength() int

	// GenerateByte draws one random byte.
	GenerateByte() (int, error)

	// GenerateIntAtSize draws numBytes bytes (1 to 4) assembled big-endian
	// into a non-negative int.
	GenerateIntAtSize(requestedStrength, numBytes int) (int, error)
}
