package config

import (
	"fmt"
	"time"
)

const (
	DefaultLogLevel      = "info"
	DefaultSettleDelay   = 500 * time.Millisecond
	DefaultPollInterval  = 50 * time.Millisecond
	DefaultSettleTimeout = 2 * time.Second
)

// Settle configures the pauses between window-manager requests.
type Settle struct {
	// Delay is the fixed pause used where no observable condition exists,
	// and before the first rule.
	Delay time.Duration `yaml:"delay"`
	// PollInterval is the initial interval between state checks.
	PollInterval time.Duration `yaml:"poll_interval"`
	// Timeout bounds how long a single state check may keep polling.
	Timeout time.Duration `yaml:"timeout"`
}

// Config is the effective rules file.
type Config struct {
	LogLevel   string     `yaml:"log_level"`
	ClassMatch ClassMatch `yaml:"class_match"`
	Settle     Settle     `yaml:"settle"`
	Rules      []Rule     `yaml:"rules"`
}

// DefaultConfig returns a config with no rules and default settle timing.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   DefaultLogLevel,
		ClassMatch: ClassMatchLegacy,
		Settle: Settle{
			Delay:        DefaultSettleDelay,
			PollInterval: DefaultPollInterval,
			Timeout:      DefaultSettleTimeout,
		},
	}
}

// SourceKind says where a value came from.
type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceBuiltin SourceKind = "builtin"
	SourceFile    SourceKind = "file"
)

// Source locates a value in a rules file.
type Source struct {
	Kind   SourceKind
	File   string
	Line   int
	Column int
}

// ValidationError reports an invalid value and where it was written.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks the document-level settings. Rules are validated one by
// one while loading.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if _, err := ParseClassMatch(string(c.ClassMatch)); err != nil {
		return &ValidationError{Path: "class_match", Err: err}
	}
	if c.Settle.Delay < 0 {
		return &ValidationError{Path: "settle.delay", Err: fmt.Errorf("delay must be >= 0")}
	}
	if c.Settle.PollInterval <= 0 {
		return &ValidationError{Path: "settle.poll_interval", Err: fmt.Errorf("poll_interval must be > 0")}
	}
	if c.Settle.Timeout < 0 {
		return &ValidationError{Path: "settle.timeout", Err: fmt.Errorf("timeout must be >= 0")}
	}
	return nil
}
