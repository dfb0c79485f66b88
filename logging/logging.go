// Package logging builds the zerolog loggers used across the server.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const permission = 0664

// Options selects level, encoding and destination
type Options struct {
	// Level is a zerolog level name; empty means info
	Level string
	// Format is "console" or "json"; empty means console
	Format string
	// File appends to a file instead of Writer when set
	File string
	// Writer defaults to os.Stderr
	Writer io.Writer
}

// Logger bundles the logger with the file it writes to, if any
type Logger struct {
	zerolog.Logger
	file *os.File
}

// Close releases the log file
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// New builds a logger from opts
func New(opts Options) (*Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	out := &Logger{}
	var w io.Writer = os.Stderr
	if opts.Writer != nil {
		w = opts.Writer
	}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out.file = f
		w = zerolog.SyncWriter(f)
	}

	switch strings.ToLower(opts.Format) {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: opts.File != ""}
	case "json":
	default:
		out.Close()
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	out.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return out, nil
}
