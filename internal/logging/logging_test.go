package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.WarnLevel},
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_JSONRespectsLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log, err := New("info", FormatJSON, &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("launched", zap.String("tool", "ctags"))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "launched", entry["msg"])
	assert.Equal(t, "ctags", entry["tool"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "ts")
}

func TestNew_Console(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log, err := New("warn", FormatConsole, &buf)
	require.NoError(t, err)

	log.Info("quiet")
	log.Warn("catalog unavailable")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "catalog unavailable")
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	t.Parallel()
	_, err := New("info", "xml", nil)
	assert.Error(t, err)
}
