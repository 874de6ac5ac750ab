/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package flogging

import (
	"io"
)

// Global is the default logging system used by the module. It is configured
// at process startup by Init and consulted whenever a named logger is
// created.
var Global *Logging

func init() {
	logging, err := New(Config{})
	if err != nil {
		panic(err)
	}
	Global = logging
}

// Init initializes the global logging system with the provided configuration.
// The caller is expected to invoke this once, early in the process lifecycle.
func Init(config Config) {
	err := Global.Apply(config)
	if err != nil {
		panic(err)
	}
}

// Reset restores the global logging system to its default configuration. It
// is intended for use in tests.
func Reset() {
	Global.Apply(Config{})
}

// LoggerLevel gets the current logging level for the logger with the
// provided name.
func LoggerLevel(loggerName string) string {
	return Global.Level(loggerName).String()
}

// MustGetLogger creates a logger with the specified name. If an invalid name
// is provided, the operation will panic.
func MustGetLogger(loggerName string) *Logger {
	return Global.Logger(loggerName)
}

// ActivateSpec is used to activate a logging specification on the global
// logging system.
func ActivateSpec(spec string) {
	err := Global.ActivateSpec(spec)
	if err != nil {
		panic(err)
	}
}

// DefaultLevel returns the default log level.
func DefaultLevel() string {
	return defaultLevel.String()
}

// SetWriter controls which writer formatted log records from the global
// logging system are written to.
func SetWriter(w io.Writer) {
	Global.SetWriter(w)
}
