package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger adapts a zerolog logger to Logger. Messages are written at debug level.
func NewZerologLogger(l zerolog.Logger) Logger {
	return zerologLogger{logger: l}
}

func (z zerologLogger) Printf(message string, args ...interface{}) {
	z.logger.Debug().Msgf(message, args...)
}

// NewConsoleLogger returns a human-readable zerolog logger tagged with the app name. If debug
// is false, only messages at info level and above are written.
func NewConsoleLogger(out io.Writer, app string, debug bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
}
