package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "inf-chat"

func New(environment string) zerolog.Logger {
	return NewWithWriter(environment, os.Stdout)
}

// NewWithWriter builds the process logger on top of out. Production gets plain
// (uncoloured) console output at info level; everything else logs debug.
func NewWithWriter(environment string, out io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    environment == "production",
	}

	level := zerolog.DebugLevel
	if environment == "production" {
		level = zerolog.InfoLevel
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("env", environment).
		Logger()
}
