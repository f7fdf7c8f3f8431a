// Package logging builds the logr.Logger used across regsim.
//
// Loggers are backed by zap through zapr. Verbosity follows the logr
// convention: logger.V(DEBUG).Info(...) is emitted only when the configured
// level is at least DEBUG.
package logging

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DEFAULT = 0
	VERBOSE = 1
	DEBUG   = 2
	TRACE   = 3
)

// ParseLevel maps a level name to a verbosity.
func ParseLevel(name string) (int, error) {
	switch strings.ToLower(name) {
	case "", "info", "default":
		return DEFAULT, nil
	case "verbose":
		return VERBOSE, nil
	case "debug":
		return DEBUG, nil
	case "trace":
		return TRACE, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}

// New returns a production zap logger writing to stderr at the given verbosity.
func New(verbosity int) (logr.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}

// NewTestLogger creates a development logger with TRACE verbosity.
func NewTestLogger() logr.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-TRACE))
	zl, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(zl)
}
