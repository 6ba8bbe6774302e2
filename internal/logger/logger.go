// Package logger wraps zerolog with the few constructors the lab needs.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	logger *zerolog.Logger
}

func level(debug bool) zerolog.Level {
	if debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// New returns a JSON logger writing to stderr.
func New(debug bool) *Logger {
	l := zerolog.New(os.Stderr).Level(level(debug)).With().Timestamp().Logger()
	return &Logger{logger: &l}
}

// NewConsole returns a human-readable logger for the CLI, tagged with the
// subsystem name.
func NewConsole(debug bool, tag string, noColor bool) *Logger {
	out := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			"s",
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{"s"},
	}
	if noColor {
		out.FormatMessage = func(i any) string {
			if i == nil {
				return ""
			}
			return fmt.Sprintf("%v", i)
		}
	}
	l := zerolog.New(out).Level(level(debug)).With().Str("s", tag).Timestamp().Logger()
	return &Logger{logger: &l}
}

// NewWriter logs JSON lines into w. The panel uses it with a file because the
// terminal belongs to the TUI.
func NewWriter(w io.Writer, debug bool) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	l := zerolog.New(w).Level(level(debug)).With().Timestamp().Logger()
	return &Logger{logger: &l}
}

// Nop discards everything.
func Nop() *Logger {
	l := zerolog.Nop()
	return &Logger{logger: &l}
}

// With creates a child logger context.
func (l *Logger) With() zerolog.Context { return l.logger.With() }

// Extend adds some additional context to the existing logger.
func (l *Logger) Extend(ctx zerolog.Context) *Logger {
	logger := ctx.Logger()
	return &Logger{logger: &logger}
}

func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.logger.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }
