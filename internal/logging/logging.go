// Package logging builds the zap loggers used by every command.
package logging

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Format selects the log encoding.
type Format string

const (
	FormatAuto    Format = "auto"
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level  string
	Format Format
	// Output is a zap sink path. Empty means stderr.
	Output string
}

// ParseLevel maps a config level name to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}

// New builds a logger. In auto mode a terminal gets the colored console
// encoder and anything else (journald, pipes) gets JSON.
func New(opts Options) (*zap.SugaredLogger, error) {
	log, _, err := NewWithLevel(opts)
	return log, err
}

// NewWithLevel is New that also returns the level handle, so the level can
// follow the rules file after the logger exists.
func NewWithLevel(opts Options) (*zap.SugaredLogger, zap.AtomicLevel, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	output := opts.Output
	if output == "" {
		output = "stderr"
	}

	format := opts.Format
	if format == "" || format == FormatAuto {
		format = FormatJSON
		if output == "stderr" && term.IsTerminal(int(os.Stderr.Fd())) {
			format = FormatConsole
		}
	}

	var cfg zap.Config
	switch format {
	case FormatConsole:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	case FormatJSON:
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	default:
		return nil, zap.AtomicLevel{}, fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{output}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), cfg.Level, nil
}

// WithRun tags log with a fresh run id and returns both.
func WithRun(log *zap.SugaredLogger) (*zap.SugaredLogger, string) {
	id := uuid.NewString()
	return log.With("run", id), id
}
