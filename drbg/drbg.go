/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package drbg implements a deterministic random bit generator following
// the Hash_DRBG construction of NIST SP800-90, together with the entropy
// source abstraction it consumes and the self-test and known-answer-test
// harnesses that validate both at startup.
package drbg

import "github.com/iacrypto/randpassgen/common/flogging"

var logger = flogging.MustGetLogger("drbg")

// Status is the tri-state result of a DRBG operation, per SP800-90.
type Status int

const (
	// StatusSuccess indicates the operation completed.
	StatusSuccess Status = iota
	// StatusError indicates a recoverable failure. The instance remains
	// usable and the caller may retry.
	StatusError
	// StatusCatastrophic indicates an unrecoverable failure. The instance
	// is permanently failed and must be discarded.
	StatusCatastrophic
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusError:
		return "ERROR"
	case StatusCatastrophic:
		return "CATASTROPHIC_ERROR"
	default:
		return "UNKNOWN"
	}
}

// DRBG is the operation set of an SP800-90 deterministic random bit
// generator. Management of the entropy source is deliberately not part of
// this interface; SP800-90 mandates the entropy source but keeps it out of
// the basic API.
type DRBG interface {
	// Instantiate initializes the generator. It must be called exactly
	// once before the generator is used for anything else.
	Instantiate(strength int, predictionResistance bool, personalization string, nonce []byte) Status

	// Reseed mixes fresh entropy from the generator's source, plus the
	// supplied additional input, into the internal state.
	Reseed(additionalInput []byte) Status

	// Generate writes numBytes of pseudorandom output into out. The call
	// fails if requestedStrength exceeds the instantiated strength, or if
	// predictionResistance is requested but was not enabled at
	// instantiation. The argument order follows SP800-90.
	Generate(numBytes, requestedStrength int, predictionResistance bool, additionalInput []byte, out []byte) Status

	// Uninstantiate wipes the internal state and makes the generator
	// unusable until re-instantiated.
	Uninstantiate() Status

	// Strength returns the instantiated bit strength, or 0 if the
	// generator is not usable.
	Strength() int

	// IsOkay reports whether the generator is instantiated and has not
	// failed.
	IsOkay() bool
}

// EntropySource supports the Get_entropy_input function of SP800-90.
// Implementations must deliver entropy upon request, though a request may
// block until enough entropy is available.
type EntropySource interface {
	// GetEntropy returns at least minBytes of entropy, rounded up to the
	// source's internal block size, or an error. It never returns short
	// data. A maxBytes of 0 means unlimited; a nonzero maxBytes that the
	// computed block count would exceed is an error.
	GetEntropy(requestedBits, minBytes, maxBytes int) ([]byte, error)

	// SelfTest exercises the source and checks the statistical quality of
	// what it returns.
	SelfTest() error

	// SelfTestEntropy returns entropy gathered during a passing self-test,
	// or nil if the source does not retain any.
	SelfTestEntropy() []byte

	// Dispose releases any held resources. It is idempotent; all
	// subsequent GetEntropy calls fail.
	Dispose()
}
