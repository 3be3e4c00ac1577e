package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("production", &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Str("user_id", "u1").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "user_id=u1")
	assert.Contains(t, out, "env=production")
}

func TestNewWithWriterDevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("development", &buf)

	logger.Debug().Msg("debug line")

	assert.Contains(t, buf.String(), "debug line")
}
