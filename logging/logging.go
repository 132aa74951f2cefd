// Package logging builds the zap loggers used by flowtrans.
//
// In plugin mode stdout carries the launcher protocol, so logs go to a
// file in the data directory. CLI commands log to stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects where and how verbosely to log.
type Options struct {
	// File is the log file path. Empty means stderr.
	File string
	// Verbose enables debug level.
	Verbose bool
}

// New returns a logger for opts. File loggers use the JSON production
// encoder; stderr loggers use the console development encoder.
func New(opts Options) (*zap.Logger, error) {
	level := zap.InfoLevel
	if opts.Verbose {
		level = zap.DebugLevel
	}

	var cfg zap.Config
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// NewOrNop is New that falls back to a no-op logger; a broken log file
// must not break a launcher query.
func NewOrNop(opts Options) *zap.Logger {
	logger, err := New(opts)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
