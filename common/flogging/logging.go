/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package flogging

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	zaplogfmt "github.com/sykesm/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Encoding determines how log records are serialized.
type Encoding int8

const (
	// LOGFMT encodes records as logfmt key=value pairs.
	LOGFMT Encoding = iota
	// JSON encodes records as JSON objects.
	JSON
)

// Config is used to provide dependencies to a Logging instance.
type Config struct {
	// Format selects the record encoding, either "logfmt" or "json". An
	// empty Format behaves as "logfmt".
	Format string

	// LogSpec determines the log levels that are enabled for the logging
	// system. The spec must be in a format that can be processed by
	// ActivateSpec. If LogSpec is empty, the RANDPASSGEN_LOGGING_SPEC
	// environment variable is consulted before falling back to INFO.
	LogSpec string

	// Writer is the sink for encoded and formatted log records. When nil,
	// os.Stderr is used.
	Writer io.Writer
}

// Logging maintains the state associated with the logging system: the
// enabled levels per logger name, the record encoding, and the output sink.
type Logging struct {
	*LoggerLevels

	mutex         sync.RWMutex
	encoding      Encoding
	encoderConfig zapcore.EncoderConfig
	writer        zapcore.WriteSyncer
}

// New creates a new logging system and initializes it with the provided
// configuration.
func New(c Config) (*Logging, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.NameKey = "name"

	l := &Logging{
		LoggerLevels: &LoggerLevels{
			defaultLevel: defaultLevel,
		},
		encoderConfig: encoderConfig,
	}

	if err := l.Apply(c); err != nil {
		return nil, err
	}
	return l, nil
}

// Apply applies the provided configuration to the logging system.
func (l *Logging) Apply(c Config) error {
	if err := l.SetFormat(c.Format); err != nil {
		return err
	}

	if c.LogSpec == "" {
		c.LogSpec = os.Getenv("RANDPASSGEN_LOGGING_SPEC")
	}
	if c.LogSpec == "" {
		c.LogSpec = defaultLevel.String()
	}
	if err := l.ActivateSpec(c.LogSpec); err != nil {
		return err
	}

	if c.Writer == nil {
		c.Writer = os.Stderr
	}
	l.SetWriter(c.Writer)

	return nil
}

// SetFormat updates how log records are encoded. Log entries created after
// this method has completed will use the new encoding.
func (l *Logging) SetFormat(format string) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	switch format {
	case "", "logfmt":
		l.encoding = LOGFMT
	case "json":
		l.encoding = JSON
	default:
		return errors.Errorf("unknown log format: %s", format)
	}
	return nil
}

// SetWriter controls which writer formatted log records are written to.
// Writers, with the exception of an *os.File, need to be safe for concurrent
// use by multiple go routines.
func (l *Logging) SetWriter(w io.Writer) {
	var sw zapcore.WriteSyncer
	switch t := w.(type) {
	case *os.File:
		sw = zapcore.Lock(t)
	case zapcore.WriteSyncer:
		sw = t
	default:
		sw = zapcore.AddSync(w)
	}

	l.mutex.Lock()
	l.writer = sw
	l.mutex.Unlock()
}

// Write satisfies the io.Writer contract. It delegates to the writer argument
// of SetWriter or the Writer field of Config. The core uses this when
// encoding log records.
func (l *Logging) Write(b []byte) (int, error) {
	l.mutex.RLock()
	w := l.writer
	l.mutex.RUnlock()

	return w.Write(b)
}

// Sync satisfies the zapcore.WriteSyncer interface. It is used to flush log
// records before terminating the process.
func (l *Logging) Sync() error {
	l.mutex.RLock()
	w := l.writer
	l.mutex.RUnlock()

	return w.Sync()
}

// Encoding returns the encoding the core should use when log records are
// written.
func (l *Logging) Encoding() Encoding {
	l.mutex.RLock()
	e := l.encoding
	l.mutex.RUnlock()
	return e
}

// ZapLogger instantiates a new zap.Logger with the specified name. The name
// is used to determine which log levels are enabled.
func (l *Logging) ZapLogger(name string) *zap.Logger {
	if !isValidLoggerName(name) {
		panic("invalid logger name: " + name)
	}

	l.mutex.RLock()
	core := &core{
		LevelEnabler: l.LoggerLevels,
		levels:       l.LoggerLevels,
		encoders: map[Encoding]zapcore.Encoder{
			JSON:   zapcore.NewJSONEncoder(l.encoderConfig),
			LOGFMT: zaplogfmt.NewEncoder(l.encoderConfig),
		},
		selector: l,
		output:   l,
	}
	l.mutex.RUnlock()

	return NewZapLogger(core).Named(name)
}

// Logger instantiates a new Logger with the specified name. The name is used
// to determine which log levels are enabled.
func (l *Logging) Logger(name string) *Logger {
	return NewLogger(l.ZapLogger(name))
}
