package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "info", "json")

	log.Info("flag created", "flag", "checkout")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "flag created", entry["msg"])
	assert.Equal(t, "checkout", entry["flag"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "info", "text")

	log.Info("flag created", "flag", "checkout")

	out := buf.String()
	assert.Contains(t, out, "flag created")
	assert.Contains(t, out, "flag=checkout")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "warn", "text")

	log.Info("quiet")
	assert.Empty(t, buf.String())

	log.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}
