/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package drbg

import (
	"math/big"
	"sync"

	"github.com/iacrypto/randpassgen/common/flogging"
	"github.com/pkg/errors"
)

const (
	// MaxStrength is the largest strength request this DRBG accepts.
	MaxStrength = 256
	// MinStrength is the smallest strength request this DRBG accepts.
	MinStrength = 64

	// maxRequestsBetweenReseeds is the SP800-90 section 10.1 bound on
	// generate calls before a reseed becomes mandatory.
	maxRequestsBetweenReseeds = uint64(1) << 48
)

// Hash size to use for each DRBG strength, from SP800-57. The strength is
// half the hash size.
var strengthToHashSize = [][2]int{
	{80, 160},
	{128, 256},
	{192, 384},
	{256, 512},
}

// Seed length in bits to use for each DRBG strength, from SP800-90.
var strengthToSeedLen = [][2]int{
	{80, 440},
	{128, 440},
	{192, 888},
	{256, 888},
}

// HashDRBG implements the Hash_DRBG construction from NIST SP800-90
// section 10. The hash algorithm is chosen from the requested strength.
// All operations on one instance are mutually exclusive; entropy source
// calls may block and that blocking propagates to the caller.
type HashDRBG struct {
	mutex  sync.Mutex
	name   string
	logger *flogging.Logger

	source EntropySource

	instantiated bool
	failed       bool
	predResist   bool

	baseStrength   int
	seedLen        int // bits
	hashSize       int // bits
	minSeedEntropy int // bits
	reseedCounter  uint64

	h       *Hash
	v       *big.Int
	c       *big.Int
	modulus *big.Int
}

// NewHashDRBG creates an uninstantiated HashDRBG with the given state
// handle and entropy source. The source may not be nil; configuration is
// rejected here rather than mid-operation.
func NewHashDRBG(name string, source EntropySource) (*HashDRBG, error) {
	if source == nil {
		return nil, errors.New("entropy source may not be nil")
	}
	return &HashDRBG{
		name:    name,
		logger:  logger.With("drbg", name),
		source:  source,
		v:       new(big.Int),
		c:       new(big.Int),
		modulus: new(big.Int),
	}, nil
}

// Name returns the state handle of this DRBG.
func (d *HashDRBG) Name() string { return d.name }

// ReplaceEntropySource installs a new entropy source, for use when the old
// source is exhausted or no longer usable.
func (d *HashDRBG) ReplaceEntropySource(source EntropySource) error {
	if source == nil {
		return errors.New("entropy source may not be nil")
	}
	d.mutex.Lock()
	d.source = source
	d.mutex.Unlock()
	return nil
}

// IsOkay reports whether this DRBG is instantiated and usable.
func (d *HashDRBG) IsOkay() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.instantiated && !d.failed
}

// Strength returns the instantiated bit strength, or 0 when the DRBG is
// not usable.
func (d *HashDRBG) Strength() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.instantiated || d.failed {
		return 0
	}
	return d.baseStrength
}

// ReseedCounter returns the number of generate requests satisfied since
// the last reseed or instantiation.
func (d *HashDRBG) ReseedCounter() uint64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.reseedCounter
}

// stateBytes is the canonical encoding of a state value: exactly
// seedLen/8 bytes, zero padded on the left, never carrying a sign byte.
func (d *HashDRBG) stateBytes(x *big.Int) []byte {
	out := make([]byte, d.seedLen/8)
	x.FillBytes(out)
	return out
}

func zeroBig(x *big.Int) {
	bits := x.Bits()
	for i := range bits {
		bits[i] = 0
	}
	x.SetInt64(0)
}

// Instantiate implements SP800-90 section 10.1.1.2.
func (d *HashDRBG) Instantiate(strength int, predictionResistance bool, personalization string, nonce []byte) Status {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.instantiated {
		d.logger.Warnf("instantiate failed: already instantiated")
		return StatusError
	}
	if d.failed {
		d.logger.Warnf("instantiate failed: DRBG is in failed state")
		return StatusError
	}
	if strength > MaxStrength || strength < MinStrength {
		d.logger.Errorf("requested strength %d bits not supported", strength)
		d.failed = true
		return StatusCatastrophic
	}
	if d.source == nil {
		d.logger.Errorf("no entropy source configured, cannot instantiate")
		d.failed = true
		return StatusCatastrophic
	}

	// SP800-90 section 10.1 sets the minimum acceptable entropy input
	// length to the strength value.
	d.minSeedEntropy = strength

	d.logger.Infof("instantiating using source %T", d.source)
	if err := d.source.SelfTest(); err != nil {
		d.logger.Errorf("entropy source failed self-test: %s", err)
		d.failed = true
		return StatusCatastrophic
	}
	d.logger.Infof("entropy source passed self-test")

	d.predResist = predictionResistance
	d.seedLen = 0
	for _, row := range strengthToSeedLen {
		if row[0] >= strength {
			d.seedLen = row[1]
			break
		}
	}
	d.hashSize = 0
	for _, row := range strengthToHashSize {
		if row[0] >= strength {
			d.hashSize = row[1]
			d.baseStrength = d.hashSize / 2
			break
		}
	}
	if d.seedLen == 0 || d.hashSize == 0 {
		d.logger.Errorf("unable to select parameters for strength %d", strength)
		d.failed = true
		return StatusCatastrophic
	}
	d.logger.Debugf("instantiation parameters: seedlen=%d hash=%d", d.seedLen, d.hashSize)

	h, err := NewHash(d.hashSize)
	if err != nil {
		d.logger.Errorf("unable to create hash of size %d: %s", d.hashSize, err)
		d.failed = true
		return StatusCatastrophic
	}
	if err := h.SelfTest(); err != nil {
		d.logger.Errorf("hash self-test failed: %s", err)
		d.failed = true
		return StatusCatastrophic
	}
	d.h = h

	d.modulus.Lsh(big.NewInt(1), uint(d.seedLen))

	ent, err := d.source.GetEntropy(d.seedLen, d.seedLen/8, 0)
	if err != nil {
		d.logger.Errorf("entropy source unable to deliver entropy during instantiation: %s", err)
		d.failed = true
		return StatusCatastrophic
	}
	if len(ent)*8 < d.minSeedEntropy {
		d.logger.Errorf("entropy source delivered %d bits, below minimum %d", len(ent)*8, d.minSeedEntropy)
		d.failed = true
		return StatusCatastrophic
	}
	d.logger.Debugf("entropy source delivered %d bits for instantiation", len(ent)*8)

	// seed_material = entropy_input || nonce || personalization_string
	seedMaterial := make([]byte, 0, len(ent)+len(nonce)+len(personalization))
	seedMaterial = append(seedMaterial, ent...)
	seedMaterial = append(seedMaterial, nonce...)
	seedMaterial = append(seedMaterial, personalization...)

	if status := d.deriveState(seedMaterial); status != StatusSuccess {
		d.failed = true
		return StatusCatastrophic
	}

	d.reseedCounter = 1
	d.instantiated = true
	d.logger.Debugf("instantiation complete, reseed counter=%d", d.reseedCounter)
	return StatusSuccess
}

// deriveState computes seed = Hash_df(seedMaterial, seedLen), sets
// V = seed and C = Hash_df(0x00 || seed, seedLen).
func (d *HashDRBG) deriveState(seedMaterial []byte) Status {
	seed := make([]byte, d.seedLen/8)
	if err := d.h.HashDF(seedMaterial, d.seedLen, seed); err != nil {
		d.logger.Errorf("hash_df failed during state derivation: %s", err)
		return StatusError
	}
	d.v.SetBytes(seed)

	cInput := make([]byte, 0, 1+len(seed))
	cInput = append(cInput, 0x00)
	cInput = append(cInput, seed...)
	cSeed := make([]byte, d.seedLen/8)
	if err := d.h.HashDF(cInput, d.seedLen, cSeed); err != nil {
		d.logger.Errorf("hash_df failed during constant derivation: %s", err)
		return StatusError
	}
	d.c.SetBytes(cSeed)
	return StatusSuccess
}

// Reseed implements SP800-90 section 10.1.1.3, mixing fresh entropy and
// the optional additional input into the state.
func (d *HashDRBG) Reseed(additionalInput []byte) Status {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.reseed(additionalInput)
}

func (d *HashDRBG) reseed(additionalInput []byte) Status {
	if !d.instantiated {
		d.logger.Warnf("reseed failed: DRBG is not instantiated")
		return StatusError
	}
	if d.failed {
		d.logger.Warnf("reseed failed: DRBG is in failed state")
		return StatusError
	}

	ent, err := d.source.GetEntropy(d.seedLen, d.seedLen/8, 0)
	if err != nil {
		d.logger.Errorf("entropy source unable to deliver entropy during reseed: %s", err)
		return StatusError
	}
	if len(ent)*8 < d.minSeedEntropy {
		d.logger.Errorf("entropy source delivered %d bits during reseed, below minimum %d", len(ent)*8, d.minSeedEntropy)
		return StatusError
	}

	// seed_material = 0x01 || V || entropy_input || additional_input
	seedMaterial := make([]byte, 0, 1+d.seedLen/8+len(ent)+len(additionalInput))
	seedMaterial = append(seedMaterial, 0x01)
	seedMaterial = append(seedMaterial, d.stateBytes(d.v)...)
	seedMaterial = append(seedMaterial, ent...)
	seedMaterial = append(seedMaterial, additionalInput...)

	if status := d.deriveState(seedMaterial); status != StatusSuccess {
		return status
	}

	d.reseedCounter = 1
	return StatusSuccess
}

// reseedRequired reports whether a reseed must happen before output:
// either prediction resistance is in force for this request, or another
// generate would exceed the allowed requests between reseeds.
func (d *HashDRBG) reseedRequired(predictionResistance bool) bool {
	if !d.instantiated || d.failed {
		return false
	}
	if d.predResist && predictionResistance {
		return true
	}
	return d.reseedCounter+1 > maxRequestsBetweenReseeds
}

// Generate implements SP800-90 section 10.1.1.4. Note that the call fails
// when prediction resistance is requested but the instantiation did not
// enable it; SP800-90 section 9.3 mandates this behavior.
func (d *HashDRBG) Generate(numBytes, requestedStrength int, predictionResistance bool, additionalInput []byte, out []byte) Status {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.instantiated {
		d.logger.Warnf("generate failed: DRBG is not instantiated")
		return StatusError
	}
	if d.failed {
		d.logger.Warnf("generate failed: DRBG is in failed state")
		return StatusError
	}
	if requestedStrength > d.baseStrength {
		d.logger.Warnf("generate failed: requested strength %d exceeds %d", requestedStrength, d.baseStrength)
		return StatusError
	}
	if predictionResistance && !d.predResist {
		d.logger.Warnf("generate failed: prediction resistance requested but not enabled at instantiation (SP800-90 section 9.3)")
		return StatusError
	}
	d.logger.Debugf("generate proceeding, requested bytes %d", numBytes)

	// step 1
	if d.reseedRequired(predictionResistance) {
		d.logger.Debugf("reseed required before generate")
		if status := d.reseed(additionalInput); status != StatusSuccess {
			d.logger.Warnf("generate failed: mandatory reseed failed")
			return status
		}
	}

	digest := make([]byte, d.h.Size())

	// step 2
	if len(additionalInput) > 0 {
		d.h.Reset()
		d.h.UpdateByte(0x02)
		d.h.Update(d.stateBytes(d.v))
		d.h.Update(additionalInput)
		if err := d.h.Digest(digest); err != nil {
			d.logger.Warnf("generate failed: hashing additional input: %s", err)
			return StatusError
		}
		w := new(big.Int).SetBytes(digest)
		d.v.Add(d.v, w).Mod(d.v, d.modulus)
	}

	// step 3
	if status := d.hashgen(numBytes, out); status != StatusSuccess {
		d.logger.Warnf("generate failed: hashgen failed")
		return status
	}

	// steps 4 and 5
	d.h.Reset()
	d.h.UpdateByte(0x03)
	d.h.Update(d.stateBytes(d.v))
	if err := d.h.Digest(digest); err != nil {
		d.logger.Warnf("generate failed: hashing state: %s", err)
		return StatusError
	}
	hv := new(big.Int).SetBytes(digest)
	d.v.Add(d.v, hv)
	d.v.Add(d.v, d.c)
	d.v.Add(d.v, new(big.Int).SetUint64(d.reseedCounter))
	d.v.Mod(d.v, d.modulus)

	// step 6
	d.reseedCounter++

	d.logger.Debugf("generate produced %d bytes", numBytes)
	return StatusSuccess
}

// hashgen implements the Hashgen function from SP800-90 section 10.1.1.4.
func (d *HashDRBG) hashgen(numBytes int, out []byte) Status {
	if len(out) < numBytes {
		return StatusError
	}

	hashLen := d.h.Size()
	rounds := (numBytes + hashLen - 1) / hashLen

	data := new(big.Int).Set(d.v)
	acc := make([]byte, 0, rounds*hashLen)
	digest := make([]byte, hashLen)
	for i := 0; i < rounds; i++ {
		d.h.Reset()
		d.h.Update(d.stateBytes(data))
		if err := d.h.Digest(digest); err != nil {
			return StatusError
		}
		acc = append(acc, digest...)
		data.Add(data, bigOne).Mod(data, d.modulus)
	}
	copy(out, acc[:numBytes])
	return StatusSuccess
}

var bigOne = big.NewInt(1)

// Uninstantiate wipes V and C, drops the hash engine, and marks the DRBG
// uninstantiated. A second call returns StatusError.
func (d *HashDRBG) Uninstantiate() Status {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.instantiated {
		d.logger.Warnf("uninstantiate failed: DRBG is not instantiated")
		return StatusError
	}
	if d.failed {
		d.logger.Warnf("uninstantiate failed: DRBG is in failed state")
		return StatusError
	}

	zeroBig(d.v)
	zeroBig(d.c)
	d.h = nil
	d.instantiated = false
	return StatusSuccess
}

// GenerateByte draws a single random byte. It is a convenience wrapper
// around Generate, not part of SP800-90.
func (d *HashDRBG) GenerateByte() (int, error) {
	buf := make([]byte, 1)
	if status := d.Generate(1, 32, false, nil, buf); status != StatusSuccess {
		return 0, errors.Errorf("generate returned %s", status)
	}
	return int(buf[0]), nil
}

// GenerateIntAtSize draws numBytes random bytes (1 to 4) and assembles
// them big-endian into an int. It is a convenience wrapper around
// Generate, not part of SP800-90.
func (d *HashDRBG) GenerateIntAtSize(requestedStrength, numBytes int) (int, error) {
	if numBytes < 1 || numBytes > 4 {
		return 0, errors.Errorf("integer size %d out of range", numBytes)
	}
	buf := make([]byte, numBytes)
	if status := d.Generate(numBytes, requestedStrength, false, nil, buf); status != StatusSuccess {
		return 0, errors.Errorf("generate returned %s", status)
	}
	ret := 0
	for _, b := range buf {
		ret = (ret << 8) | int(b)
	}
	return ret, nil
}

var selfTestStrengths = []int{64, 80, 80, 128, 192}
var selfTestPredRes = []bool{false, true, false, false, false}
var selfTestSizes = []int{8, 32, 10001}

var selfTestNonce = []byte{67, 44, 120, 199, 1, 44, 58, 0, 224, 41, 33, 161, 22, 7}

// SelfTest exercises this DRBG through a cycle of instantiate, generate at
// several sizes, reseed, and uninstantiate at several strengths. The
// generate output is checked for degeneracy, with up to 3 attempts per
// size since a legitimate output can look degenerate with small
// probability. A passing self-test gives excellent confidence that the
// DRBG code works; the quality of the output still depends on the entropy
// source.
func (d *HashDRBG) SelfTest() error {
	for cycle := range selfTestStrengths {
		strength := selfTestStrengths[cycle]
		predRes := selfTestPredRes[cycle]
		d.logger.Debugf("self-test cycle %d, strength=%d", cycle, strength)

		if status := d.Instantiate(strength, predRes, "selftest", selfTestNonce); status != StatusSuccess {
			return errors.Errorf("self-test instantiate at strength %d returned %s", strength, status)
		}
		for _, size := range selfTestSizes {
			passed := false
			for retries := 0; retries < 3 && !passed; retries++ {
				out := make([]byte, size)
				if status := d.Generate(size, strength, predRes, []byte("foobar"), out); status != StatusSuccess {
					return errors.Errorf("self-test generate of %d bytes returned %s", size, status)
				}
				passed = !allZero(out)
				if !passed {
					d.logger.Warnf("self-test generate returned a degenerate buffer, retrying")
				}
			}
			if !passed {
				return errors.Errorf("self-test generate of %d bytes produced degenerate output after retries", size)
			}
		}
		if status := d.Reseed(nil); status != StatusSuccess {
			return errors.Errorf("self-test reseed at strength %d returned %s", strength, status)
		}
		if status := d.Uninstantiate(); status != StatusSuccess {
			return errors.Errorf("self-test uninstantiate at strength %d returned %s", strength, status)
		}
	}
	return nil
}

func allZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
