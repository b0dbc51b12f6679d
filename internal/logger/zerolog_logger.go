package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger on top of rs/zerolog. Every entry carries the component that emitted it, plus
// whatever run fields were attached through With.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger writes to standard error; standard output is reserved for the assignment report.
func NewZerologLogger(component string) Logger {
	return NewZerologLoggerTo(os.Stderr, component)
}

// NewZerologLoggerTo writes JSON lines to out, or console lines when APP_ENV=dev.
func NewZerologLoggerTo(out io.Writer, component string) Logger {
	builder := zerolog.New(entryWriter(out)).With().Timestamp()
	if component != "" {
		builder = builder.Str("component", component)
	}
	return &ZerologLogger{log: builder.Logger()}
}

func entryWriter(out io.Writer) io.Writer {
	if strings.EqualFold(os.Getenv("APP_ENV"), "dev") {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	return out
}

// With returns a child logger stamping fields (run id, formulation, solver) on every entry
func (l *ZerologLogger) With(fields map[string]any) Logger {
	return &ZerologLogger{log: l.log.With().Fields(fields).Logger()}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

// Fields are written in key order so model summaries diff cleanly between runs
func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
