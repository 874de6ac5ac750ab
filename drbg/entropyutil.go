/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package drbg

import (
	"math"
)

// ByteEntropy computes the empirical Shannon entropy of buf in bits per
// byte, using byte-level frequencies. The result is at most 8.0.
func ByteEntropy(buf []byte) float64 {
	if len(buf) == 0 {
		return 0
	}

	var counts [256]int
	for _, b := range buf {
		counts[b]++
	}

	total := float64(len(buf))
	entropy := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// CheckByteEntropy reports whether the empirical byte entropy of buf meets
// the given threshold in bits per byte.
func CheckByteEntropy(buf []byte, threshold float64) bool {
	return ByteEntropy(buf) >= threshold
}

// ChiSquaredStatistic computes the chi-squared statistic of buf viewed as
// a stream of chunkBits-wide values (2 to 16 bits), against the uniform
// expectation. Bits are consumed most significant first; a trailing
// partial chunk is dropped.
func ChiSquaredStatistic(buf []byte, chunkBits int) float64 {
	if chunkBits < 2 || chunkBits > 16 {
		return math.NaN()
	}

	bins := 1 << uint(chunkBits)
	counts := make([]int, bins)

	chunks := (len(buf) * 8) / chunkBits
	acc, accBits := 0, 0
	next := 0
	for _, b := range buf {
		acc = (acc << 8) | int(b)
		accBits += 8
		for accBits >= chunkBits && next < chunks {
			accBits -= chunkBits
			counts[(acc>>uint(accBits))&(bins-1)]++
			next++
		}
		acc &= (1 << uint(accBits)) - 1
	}
	if chunks == 0 {
		return 0
	}

	expected := float64(chunks) / float64(bins)
	stat := 0.0
	for _, c := range counts {
		diff := float64(c) - expected
		stat += diff * diff / expected
	}
	return stat
}

// chiSquaredMax holds the acceptance limits for the chi-squared statistic,
// indexed by chunk width in bits.
var chiSquaredMax = map[int]float64{
	2:  5.99,
	3:  7.82,
	4:  9.49,
	5:  11.1,
	6:  12.6,
	7:  14.1,
	8:  15.5,
	9:  16.9,
	10: 18.3,
	11: 19.7,
	12: 21.0,
	13: 22.4,
	14: 23.7,
	15: 25.0,
	16: 26.3,
}

// TestChiSquared reports whether a chi-squared statistic for the given
// chunk width is within the acceptance limit.
func TestChiSquared(stat float64, chunkBits int) bool {
	limit, ok := chiSquaredMax[chunkBits]
	if !ok {
		return false
	}
	return stat <= limit
}
