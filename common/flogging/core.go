/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package flogging

import (
	"go.uber.org/zap/zapcore"
)

// EncodingSelector is used to determine whether log records are encoded as
// JSON or in logfmt format.
type EncodingSelector interface {
	Encoding() Encoding
}

// core is a custom implementation of a zapcore.Core. It exists to work around
// the intersection of state associated with encoders and the structure of zap.
//
// In addition to encoding log entries and fields to a buffer, zap Encoder
// implementations also maintain field state. When zapcore.Core.With is used,
// the associated encoder is cloned and the fields are added to the encoder.
// This means that encoder instances cannot be shared across cores.
type core struct {
	zapcore.LevelEnabler
	levels   *LoggerLevels
	encoders map[Encoding]zapcore.Encoder
	selector EncodingSelector
	output   zapcore.WriteSyncer
}

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	clones := map[Encoding]zapcore.Encoder{}
	for name, enc := range c.encoders {
		clone := enc.Clone()
		addFields(clone, fields)
		clones[name] = clone
	}

	return &core{
		LevelEnabler: c.LevelEnabler,
		levels:       c.levels,
		encoders:     clones,
		selector:     c.selector,
		output:       c.output,
	}
}

func (c *core) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) && c.levels.Level(e.LoggerName).Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *core) Write(e zapcore.Entry, fields []zapcore.Field) error {
	encoding := c.selector.Encoding()
	enc := c.encoders[encoding]

	buf, err := enc.EncodeEntry(e, fields)
	if err != nil {
		return err
	}
	_, err = c.output.Write(buf.Bytes())
	buf.Free()
	if err != nil {
		return err
	}

	if e.Level >= zapcore.PanicLevel {
		c.Sync()
	}
	return nil
}

func (c *core) Sync() error {
	return c.output.Sync()
}

func addFields(enc zapcore.ObjectEncoder, fields []zapcore.Field) {
	for i := range fields {
		fields[i].AddTo(enc)
	}
}
