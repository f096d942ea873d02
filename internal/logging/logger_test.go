package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)

	log.Info().Msg("board ready")
	assert.Contains(t, buf.String(), "board ready")
}

func TestSubAndWith(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")

	log.Sub("gateway").With("connId", "c-1").Info().Msg("client connected")
	output := buf.String()
	assert.Contains(t, output, `"subsystem":"gateway"`)
	assert.Contains(t, output, `"connId":"c-1"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug().Msg("debug msg")
	log.Info().Msg("info msg")
	assert.Empty(t, buf.String())

	log.Warn().Msg("warn msg")
	assert.Contains(t, buf.String(), "warn msg")
}

func TestSilentLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent")

	log.Warn().Msg("should not appear")
	log.Error().Msg("should not appear")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"silent", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestOpen_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "queueboard.log")
	log, closer, err := Open(Options{Level: "info", ConsoleStyle: "json", File: path})
	require.NoError(t, err)

	log.Info().Str("agent", "Victor").Msg("cell written")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"agent":"Victor"`)
}

func TestOpen_ConsoleOnly(t *testing.T) {
	log, closer, err := Open(Options{Level: "silent"})
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.NoError(t, closer.Close())
}
