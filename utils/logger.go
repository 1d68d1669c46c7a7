package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger provides structured, leveled logging throughout the application.
type Logger struct {
	log zerolog.Logger
}

// NewLogger creates a Logger writing human-readable output to stdout.
// The level is taken from LOG_LEVEL (debug when unset).
func NewLogger() *Logger {
	level := zerolog.DebugLevel
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		if parsed, err := zerolog.ParseLevel(s); err == nil {
			level = parsed
		}
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}
	zerolog.TimeFieldFormat = time.RFC3339

	return &Logger{
		log: zerolog.New(output).Level(level).With().Timestamp().Logger(),
	}
}

func (l *Logger) Info(format string, args ...any) {
	l.log.Info().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.log.Warn().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.log.Error().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) {
	l.log.Debug().Msg(fmt.Sprintf(format, args...))
}
