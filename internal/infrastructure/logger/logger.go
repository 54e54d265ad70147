// Package logger builds the root zerolog logger shared by every component.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mattxslv/phoenix/internal/config"
)

// New builds the root logger. Production emits plain JSON for log shippers;
// every other environment gets the human console writer. An unknown or empty
// level falls back to info instead of failing startup.
func New(cfg *config.Config) zerolog.Logger {
	return zerolog.New(writerFor(cfg.Environment)).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger().
		Level(parseLevel(cfg.LogLevel))
}

func writerFor(environment string) io.Writer {
	if strings.EqualFold(environment, "production") {
		return os.Stdout
	}
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
}

func parseLevel(raw string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
