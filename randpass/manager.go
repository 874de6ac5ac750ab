/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package randpass orchestrates the DRBG and its entropy sources to
// produce passwords, passphrases, and raw keys, and provides
// password-based encryption of generated keys.
package randpass

import (
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/iacrypto/randpassgen/common/flogging"
	"github.com/iacrypto/randpassgen/drbg"
)

var logger = flogging.MustGetLogger("randpass")

const (
	// SaveBlocks is the number of entropy blocks saved at shutdown when
	// the startup source supports saving.
	SaveBlocks = 16

	// DRBGStrength is the strength requested for the managed DRBG.
	// Overriding it is deliberately not supported; 192 selects SHA-384,
	// the largest recommended hash for this construction.
	DRBGStrength = 192

	// StartupSourceEntropy is the bits of entropy requested from the
	// startup source for the instantiation nonce.
	StartupSourceEntropy = 512
)

// entropySaver is satisfied by sources that can persist DRBG output for a
// later run, such as drbg.FileEntropySource.
type entropySaver interface {
	SaveEntropy(rbg drbg.DRBG, blocks int) error
}

// Manager owns the entropy sources and the DRBG used for generation.
//
// It distinguishes three source roles. The primary source seeds the DRBG
// and must deliver high entropy per byte on every call. The supplemental
// source, when set, provides occasional additional input. The startup
// source provides the instantiation nonce and, when it supports saving,
// receives saved entropy at shutdown.
//
// The usual sequence is NewManager, set sources, PerformKAT, Initialize,
// SelfTest, GenerateKey any number of times, Shutdown.
type Manager struct {
	name string

	primary      drbg.EntropySource
	supplemental drbg.EntropySource
	startup      drbg.EntropySource

	rbg  *drbg.HashDRBG
	okay bool
}

// NewManager creates a Manager. It is not usable until a primary source
// is set and Initialize has succeeded.
func NewManager(name string) (*Manager, error) {
	if name == "" {
		return nil, errors.New("manager name may not be empty")
	}
	logger.Debugf("created rand manager %s", name)
	return &Manager{name: name}, nil
}

// SetPrimarySource installs the source that seeds the DRBG. It must be
// set before Initialize. A previously set source is disposed.
func (m *Manager) SetPrimarySource(src drbg.EntropySource) error {
	if src == nil {
		return errors.New("primary entropy source may not be nil")
	}
	if src == m.primary {
		return nil
	}
	if m.primary != nil {
		m.primary.Dispose()
	}
	m.primary = src
	logger.Infof("manager %s primary entropy source set to %s", m.name, src)
	return nil
}

// SetSupplementalSource installs an optional source of additional input.
// A previously set source is disposed; nil clears it.
func (m *Manager) SetSupplementalSource(src drbg.EntropySource) {
	if src == m.supplemental {
		return
	}
	if m.supplemental != nil {
		m.supplemental.Dispose()
	}
	m.supplemental = src
	if src != nil {
		logger.Infof("manager %s supplemental entropy source set to %s", m.name, src)
	} else {
		logger.Infof("manager %s supplemental entropy source cleared", m.name)
	}
}

// SetStartupSource installs the source used for the instantiation nonce.
// A previously set source is disposed; nil clears it. The primary source
// may double as the startup source; in that case it is never disposed
// twice.
func (m *Manager) SetStartupSource(src drbg.EntropySource) {
	if src == m.startup {
		return
	}
	if m.startup != nil && m.startup != m.primary {
		m.startup.Dispose()
	}
	m.startup = src
	if src != nil {
		logger.Infof("manager %s startup entropy source set to %s", m.name, src)
	} else {
		logger.Infof("manager %s startup entropy source cleared", m.name)
	}
}

// IsOkay reports whether this Manager is in a usable state.
func (m *Manager) IsOkay() bool {
	return m.okay && m.rbg != nil && m.rbg.IsOkay()
}

// PerformKAT runs the NIST known-answer tests on the DRBG implementation.
// It should be called, and should pass, before Initialize.
func (m *Manager) PerformKAT() error {
	return drbg.PerformKnownAnswerTests()
}

// Initialize creates and instantiates the DRBG, building the nonce from
// the startup source or falling back to the system time. Instantiation
// self-tests the primary source. Calling Initialize on an already usable
// Manager is a no-op.
func (m *Manager) Initialize() error {
	if m.IsOkay() {
		return nil
	}
	if m.primary == nil {
		return errors.Errorf("cannot initialize manager %s, no primary source has been set", m.name)
	}

	var nonce []byte
	if m.startup != nil {
		var err error
		nonce, err = m.startup.GetEntropy(StartupSourceEntropy, 8, 256)
		if err != nil {
			logger.Warnf("startup entropy source failed, falling back to system time: %s", err)
		} else {
			logger.Debugf("got %d byte startup nonce", len(nonce))
		}
	}
	if len(nonce) == 0 {
		nonce = []byte(strconv.FormatInt(time.Now().UnixMilli(), 10) + "x")
		logger.Debugf("got startup nonce from system time")
	}

	rbg, err := drbg.NewHashDRBG(m.name+"-drbg", m.primary)
	if err != nil {
		return errors.WithMessage(err, "creating DRBG")
	}
	if status := rbg.Instantiate(DRBGStrength, false, m.name, nonce); status != drbg.StatusSuccess {
		return errors.Errorf("DRBG instantiation returned %s, cannot generate", status)
	}
	logger.Infof("manager %s instantiated DRBG at strength %d", m.name, DRBGStrength)

	m.rbg = rbg
	m.okay = true
	return nil
}

// DRBG returns the managed DRBG, or nil when the Manager is not usable.
// Callers must not uninstantiate it; Shutdown does that.
func (m *Manager) DRBG() *drbg.HashDRBG {
	if !m.IsOkay() {
		return nil
	}
	return m.rbg
}

// GenerateKey draws numBytes of raw key material. Requests beyond
// strength/8 bytes are refused; a key longer than that cannot carry full
// strength per bit.
func (m *Manager) GenerateKey(numBytes int) ([]byte, error) {
	if !m.IsOkay() {
		return nil, errors.Errorf("manager %s is not usable", m.name)
	}
	if numBytes <= 0 {
		return nil, errors.Errorf("requested key size %d must be positive", numBytes)
	}
	if numBytes > m.rbg.Strength()/8 {
		return nil, errors.Errorf("requested key size %d exceeds available DRBG strength", numBytes)
	}

	out := make([]byte, numBytes)
	if status := m.rbg.Generate(numBytes, 0, false, nil, out); status != drbg.StatusSuccess {
		return nil, errors.Errorf("DRBG generate returned %s", status)
	}
	return out, nil
}

var selfTestKeySizes = []int{16, 32}

// SelfTest validates the DRBG machinery and this Manager. It first runs
// the HashDRBG class self-test over a throwaway deterministic source,
// then probes GenerateKey at several sizes: sizes within strength/8 must
// succeed, larger ones must be refused.
func (m *Manager) SelfTest() error {
	if !m.IsOkay() {
		return errors.Errorf("manager %s is not usable, failing self-test", m.name)
	}

	trbg, err := drbg.NewHashDRBG("self-test", drbg.NewLousyEntropySource())
	if err != nil {
		return errors.WithMessage(err, "creating self-test DRBG")
	}
	if err := trbg.SelfTest(); err != nil {
		return errors.WithMessage(err, "HashDRBG class self-test failed")
	}
	logger.Infof("HashDRBG class self-test passed, continuing to manager %s self-test", m.name)

	for _, size := range selfTestKeySizes {
		key, err := m.GenerateKey(size)
		if size*8 <= m.rbg.Strength() {
			if err != nil {
				return errors.WithMessagef(err, "self-test key generation at size %d failed", size)
			}
			if len(key) != size {
				return errors.Errorf("self-test key at size %d came back with %d bytes", size, len(key))
			}
		} else if err == nil {
			return errors.Errorf("self-test key generation at size %d succeeded past the DRBG strength limit", size)
		}
		logger.Debugf("self-test at key size %d behaved as required", size)
	}
	return nil
}

// Shutdown saves entropy to the startup source when it supports saving,
// uninstantiates the DRBG, and disposes every source. The Manager is
// unusable afterwards.
func (m *Manager) Shutdown() {
	if m.okay && m.rbg != nil && m.startup != nil {
		if saver, ok := m.startup.(entropySaver); ok {
			if err := saver.SaveEntropy(m.rbg, SaveBlocks); err != nil {
				logger.Warnf("manager %s could not save entropy: %s", m.name, err)
			} else {
				logger.Infof("manager %s saved entropy at shutdown", m.name)
			}
		}
	}

	if m.rbg != nil && m.rbg.IsOkay() {
		m.rbg.Uninstantiate()
	}
	m.rbg = nil
	m.okay = false

	if m.primary != nil {
		m.primary.Dispose()
	}
	if m.supplemental != nil {
		m.supplemental.Dispose()
	}
	if m.startup != nil && m.startup != m.primary {
		m.startup.Dispose()
	}
	m.primary = nil
	m.supplemental = nil
	m.startup = nil

	logger.Infof("shut down manager %s", m.name)
}
