// Package logger adapts zerolog to the ports.Logger interface.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ZeroLogger is a structured logger backed by zerolog, writing
// human-readable console output to stderr.
type ZeroLogger struct {
	log zerolog.Logger
}

// New creates a ZeroLogger. Verbose enables debug-level output.
func New(verbose bool) *ZeroLogger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter creates a ZeroLogger writing to w. Used by tests.
func NewWithWriter(w io.Writer, verbose bool) *ZeroLogger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	console := zerolog.ConsoleWriter{Out: w}
	return &ZeroLogger{
		log: zerolog.New(console).Level(level).With().Timestamp().Logger(),
	}
}

func (l *ZeroLogger) Debug(msg string, fields map[string]interface{}) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Info(msg string, fields map[string]interface{}) {
	l.log.Info().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Warn(msg string, fields map[string]interface{}) {
	l.log.Warn().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Error(msg string, err error, fields map[string]interface{}) {
	l.log.Error().Err(err).Fields(fields).Msg(msg)
}
