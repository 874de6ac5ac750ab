/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package flogging_test

import (
	"bytes"
	"testing"

	"github.com/iacrypto/randpassgen/common/flogging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logging, err := flogging.New(flogging.Config{})
	require.NoError(t, err)
	require.Equal(t, zapcore.InfoLevel, logging.DefaultLevel())

	_, err = flogging.New(flogging.Config{
		LogSpec: "::=borken=::",
	})
	require.EqualError(t, err, "invalid logging specification '::=borken=::': bad segment '=borken='")
}

func TestNewWithEnvironment(t *testing.T) {
	t.Setenv("RANDPASSGEN_LOGGING_SPEC", "fatal")
	logging, err := flogging.New(flogging.Config{})
	require.NoError(t, err)
	require.Equal(t, zapcore.FatalLevel, logging.DefaultLevel())

	t.Setenv("RANDPASSGEN_LOGGING_SPEC", "")
	logging, err = flogging.New(flogging.Config{})
	require.NoError(t, err)
	require.Equal(t, zapcore.InfoLevel, logging.DefaultLevel())
}

func TestLoggingSetFormat(t *testing.T) {
	tests := []struct {
		format      string
		encoding    flogging.Encoding
		expectedErr string
	}{
		{format: "logfmt", encoding: flogging.LOGFMT},
		{format: "json", encoding: flogging.JSON},
		{format: "", encoding: flogging.LOGFMT},
		{format: "warble", expectedErr: "unknown log format: warble"},
	}

	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			logging, err := flogging.New(flogging.Config{})
			require.NoError(t, err)

			err = logging.SetFormat(tc.format)
			if tc.expectedErr != "" {
				require.EqualError(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.encoding, logging.Encoding())
		})
	}
}

func TestActivateSpec(t *testing.T) {
	logging, err := flogging.New(flogging.Config{})
	require.NoError(t, err)

	err = logging.ActivateSpec("DEBUG")
	require.NoError(t, err)
	require.Equal(t, zapcore.DebugLevel, logging.DefaultLevel())

	err = logging.ActivateSpec("drbg=debug:warn")
	require.NoError(t, err)
	require.Equal(t, zapcore.WarnLevel, logging.DefaultLevel())
	require.Equal(t, zapcore.DebugLevel, logging.Level("drbg"))
	require.Equal(t, zapcore.DebugLevel, logging.Level("drbg.hash"))
	require.Equal(t, zapcore.WarnLevel, logging.Level("gen"))

	err = logging.ActivateSpec("nonsense")
	require.Error(t, err)
}

func TestLoggerWritesToConfiguredWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	logging, err := flogging.New(flogging.Config{
		Writer:  buf,
		LogSpec: "debug",
	})
	require.NoError(t, err)

	logger := logging.Logger("test.logger")
	logger.Debugw("hello", "component", "drbg")

	require.Contains(t, buf.String(), "hello")
	require.Contains(t, buf.String(), "component=drbg")
}

func TestLoggerJSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logging, err := flogging.New(flogging.Config{
		Format: "json",
		Writer: buf,
	})
	require.NoError(t, err)

	logger := logging.Logger("test.json")
	logger.Info("structured output")

	require.Contains(t, buf.String(), `"msg":"structured output"`)
	require.Contains(t, buf.String(), `"name":"test.json"`)
}

func TestInvalidLoggerName(t *testing.T) {
	logging, err := flogging.New(flogging.Config{})
	require.NoError(t, err)

	for _, name := range []string{"test*", ".test", "test.", ".", ""} {
		t.Run(name, func(t *testing.T) {
			require.PanicsWithValue(t, "invalid logger name: "+name, func() {
				logging.ZapLogger(name)
			})
		})
	}
}

func TestGlobalMustGetLogger(t *testing.T) {
	defer flogging.Reset()

	buf := &bytes.Buffer{}
	flogging.Init(flogging.Config{Writer: buf, LogSpec: "debug"})

	logger := flogging.MustGetLogger("global.test")
	logger.Debugf("count is %d", 3)
	require.Contains(t, buf.String(), "count is 3")
}
