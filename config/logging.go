package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the wallet's logger from the configured level and
// destination. With no log file, output goes to stderr through a console
// writer; a log file gets plain JSON lines.
func NewLogger(cfg Config) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
	}

	var w io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("config: open log file: %w", err)
		}
		w = f
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
