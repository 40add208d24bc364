// Package logging configures logrus from the global command-line flags.
// Logs always go to stderr: stdout carries protocol traffic for both the
// worker and the MCP server.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options mirrors the global flags.
type Options struct {
	Debug  bool
	Level  string
	Format string
	// File, when set, receives a copy of every log line.
	File string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup applies opts to log. --log-level overrides --debug. The returned
// closer releases the log file.
func Setup(log *logrus.Logger, opts Options) (io.Closer, error) {
	if opts.Debug {
		log.SetLevel(logrus.DebugLevel)
	}
	if opts.Level != "" {
		lvl, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		log.SetLevel(lvl)
	}

	switch opts.Format {
	case "", "text":
		log.SetFormatter(new(logrus.TextFormatter))
	case "json":
		log.SetFormatter(new(logrus.JSONFormatter))
	default:
		return nil, fmt.Errorf("unsupported log-format: %q", opts.Format)
	}

	if opts.File == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}
