package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewLoggerFiltersBelowLevel(t *testing.T) {
	var console, file bytes.Buffer
	log := newLogger("warn", &console, &file)

	log.Info().Msg("hidden")
	log.Warn().Str("device", "mic").Msg("shown")

	assert.NotContains(t, file.String(), "hidden")
	assert.Contains(t, file.String(), `"device":"mic"`)
	assert.Contains(t, console.String(), "shown")
}
