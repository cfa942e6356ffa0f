package logger

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureStderr(t *testing.T, fn func()) string {
	orig := os.Stderr
	defer func() { os.Stderr = orig }()

	r, w, err := os.Pipe()
	require.NoError(t, err, "failed to create stderr pipe")
	os.Stderr = w

	fn()

	require.NoError(t, w.Close(), "failed to close stderr pipe")
	out, err := io.ReadAll(r)
	require.NoError(t, err, "failed to read stderr pipe")

	return string(out)
}

func TestLogger_parseLevel(t *testing.T) {
	t.Run("valid levels", func(t *testing.T) {
		tests := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"DEBUG", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"ERROR", slog.LevelError},
		}

		for _, tt := range tests {
			got, err := parseLevel(tt.input)

			require.NoError(t, err, "parseLevel(%q) should not fail", tt.input)
			require.Equal(t, tt.expected, got)
		}
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := parseLevel("verbose")
		require.Error(t, err)
	})
}

func TestLogger_New(t *testing.T) {
	t.Run("dev environment", func(t *testing.T) {
		stderr := captureStderr(t, func() {
			l, err := New(EnvDev, LevelInfo)
			require.NoError(t, err)

			l.Info("started", "key", "value")
		})

		require.Contains(t, stderr, "started")
		require.Contains(t, stderr, "key=value")
	})

	t.Run("prod environment logs json", func(t *testing.T) {
		stderr := captureStderr(t, func() {
			l, err := New(EnvProduction, LevelInfo)
			require.NoError(t, err)

			l.Info("started", "key", "value")
		})

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(stderr), &entry), "prod log should be valid JSON")
		require.Equal(t, "started", entry["msg"])
		require.Equal(t, "value", entry["key"])
	})

	t.Run("unknown environment", func(t *testing.T) {
		_, err := New("staging", LevelInfo)
		require.Error(t, err)
	})
}

func TestLogger_Levels(t *testing.T) {
	t.Run("warn logger skips info", func(t *testing.T) {
		stderr := captureStderr(t, func() {
			l, err := NewTextLogger(LevelWarn)
			require.NoError(t, err)

			l.Info("should be skipped")
			l.Warn("should be logged")
		})

		require.NotContains(t, stderr, "should be skipped")
		require.Contains(t, stderr, "should be logged")
	})
}

func TestLogger_NoOp(t *testing.T) {
	stderr := captureStderr(t, func() {
		l := NewNoOpLogger()
		l.Debug("msg")
		l.Info("msg")
		l.Warn("msg")
		l.Error("msg")
	})

	require.Empty(t, stderr, "no-op logger should not write anything")
}

func TestLogger_With(t *testing.T) {
	stderr := captureStderr(t, func() {
		l, err := NewTextLogger(LevelInfo)
		require.NoError(t, err)

		l.With("component", "ledger").Info("appended")
	})

	require.Contains(t, stderr, "component=ledger")
	require.Contains(t, stderr, "appended")
}
