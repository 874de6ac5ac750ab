/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package flogging

import (
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

const defaultLevel = zapcore.InfoLevel

// LoggerLevels tracks the logging level of named loggers.
type LoggerLevels struct {
	mutex        sync.RWMutex
	levelCache   map[string]zapcore.Level
	specs        map[string]zapcore.Level
	defaultLevel zapcore.Level
	minLevel     zapcore.Level
}

// DefaultLevel returns the default logging level for loggers that do not
// have an explicit level set.
func (l *LoggerLevels) DefaultLevel() zapcore.Level {
	l.mutex.RLock()
	lvl := l.defaultLevel
	l.mutex.RUnlock()
	return lvl
}

// ActivateSpec is used to modify logging levels. The logging specification
// has the following grammar:
//
//	spec: [<logger>[,<logger>...]=]<level>[:[<logger>[,<logger>...]=]<level>...]
func (l *LoggerLevels) ActivateSpec(spec string) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	defaultLvl := defaultLevel
	specs := map[string]zapcore.Level{}

	for _, field := range strings.Split(spec, ":") {
		split := strings.Split(field, "=")
		switch len(split) {
		case 1: // level
			if field != "" && !isValidLevel(field) {
				return errors.Errorf("invalid logging specification '%s': bad segment '%s'", spec, field)
			}
			defaultLvl = nameToLevel(field)

		case 2: // <logger>[,<logger>...]=<level>
			if split[0] == "" {
				return errors.Errorf("invalid logging specification '%s': no logger specified in segment '%s'", spec, field)
			}
			if field != "" && !isValidLevel(split[1]) {
				return errors.Errorf("invalid logging specification '%s': bad segment '%s'", spec, field)
			}

			level := nameToLevel(split[1])
			for _, logger := range strings.Split(split[0], ",") {
				if !isValidLoggerName(strings.TrimSuffix(logger, ".")) {
					return errors.Errorf("invalid logging specification '%s': bad logger name '%s'", spec, logger)
				}
				specs[logger] = level
			}

		default:
			return errors.Errorf("invalid logging specification '%s': bad segment '%s'", spec, field)
		}
	}

	l.defaultLevel = defaultLvl
	l.specs = specs
	l.levelCache = map[string]zapcore.Level{}

	minLevel := defaultLvl
	for _, lvl := range specs {
		if lvl < minLevel {
			minLevel = lvl
		}
	}
	l.minLevel = minLevel

	return nil
}

// Level returns the effective logging level for a logger. If a level has not
// been explicitly set for the logger, the effective level of the closest
// enclosing namespace is used, falling back to the default.
func (l *LoggerLevels) Level(loggerName string) zapcore.Level {
	if level, ok := l.cachedLevel(loggerName); ok {
		return level
	}

	l.mutex.Lock()
	level := l.calculateLevel(loggerName)
	l.levelCache[loggerName] = level
	l.mutex.Unlock()

	return level
}

// calculateLevel walks the logger name back to find the most specific level
// enabled by the active spec.
func (l *LoggerLevels) calculateLevel(loggerName string) zapcore.Level {
	candidate := loggerName + "."
	for {
		if lvl, ok := l.specs[candidate]; ok {
			return lvl
		}

		idx := strings.LastIndex(candidate, ".")
		if idx <= 0 {
			return l.defaultLevel
		}
		candidate = candidate[:idx]
	}
}

func (l *LoggerLevels) cachedLevel(loggerName string) (zapcore.Level, bool) {
	l.mutex.RLock()
	level, ok := l.levelCache[loggerName]
	l.mutex.RUnlock()
	return level, ok
}

// Enabled checks whether any logger in the system is enabled at the provided
// level. It is consulted by the core before a per-logger check occurs.
func (l *LoggerLevels) Enabled(lvl zapcore.Level) bool {
	l.mutex.RLock()
	enabled := l.minLevel.Enabled(lvl)
	l.mutex.RUnlock()
	return enabled
}

// Spec returns a normalized version of the active logging spec.
func (l *LoggerLevels) Spec() string {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	var fields []string
	for k, v := range l.specs {
		fields = append(fields, k+"="+v.String())
	}
	fields = append(fields, l.defaultLevel.String())

	return strings.Join(fields, ":")
}

// loggerNameRegexp defines the names that are permitted for loggers. Names
// are period-separated alphanumeric segments, the same restriction the
// zap Named method composes with.
var loggerNameRegexp = regexp.MustCompile(`^[[:alnum:]_#:-]+(\.[[:alnum:]_#:-]+)*$`)

func isValidLoggerName(loggerName string) bool {
	return loggerNameRegexp.MatchString(loggerName)
}

func isValidLevel(level string) bool {
	_, err := zapcore.ParseLevel(strings.ToLower(level))
	return err == nil || level == "notice" || level == "warning" || level == ""
}

// nameToLevel converts a level name to a zapcore.Level. Unknown names map to
// the default level.
func nameToLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "notice":
		return zapcore.InfoLevel
	case "warning":
		return zapcore.WarnLevel
	case "":
		return defaultLevel
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return defaultLevel
	}
	return lvl
}
