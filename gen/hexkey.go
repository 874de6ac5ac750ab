/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gen

import (
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/iacrypto/randpassgen/drbg"
)

// GenerateHexKey draws a key of the given strength in bits and returns it
// hex encoded. The strength must be a positive multiple of 8 and no more
// than twice the DRBG's strength. All hex digits are uniformly
// distributed; any formatting is up to the caller.
func GenerateHexKey(strength int, src RandomSource) (string, error) {
	if strength < 1 {
		return "", errors.Errorf("requested strength %d must be positive", strength)
	}
	if strength > src.Strength()*2 {
		return "", errors.Errorf("requested strength %d exceeds twice the DRBG strength %d", strength, src.Strength())
	}
	if strength%8 != 0 {
		return "", errors.Errorf("requested strength %d must be a multiple of 8", strength)
	}

	buf := make([]byte, strength/8)
	if status := src.Generate(len(buf), 0, false, nil, buf); status != drbg.StatusSuccess {
		logger.Warnf("hex key generation failed, DRBG returned %s", status)
		return "", errors.Errorf("DRBG generate returned %s", status)
	}
	return hex.EncodeToString(buf), nil
}
