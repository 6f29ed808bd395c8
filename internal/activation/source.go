package activation

import (
	"github.com/1broseidon/deskplace/internal/config"
)

// RuleSource supplies the rules of one activation. It is read once per
// Enable call.
type RuleSource interface {
	Load() (*config.LoadResult, error)
	String() string
}

// FileSource reads a rules file. An empty Path means the XDG default.
type FileSource struct {
	Path string
}

func (f FileSource) Load() (*config.LoadResult, error) {
	if f.Path == "" {
		return config.Load()
	}
	return config.LoadFromPath(f.Path)
}

func (f FileSource) String() string {
	if f.Path == "" {
		return "default rules file"
	}
	return f.Path
}

// BuiltinSource supplies config.BuiltinRules.
type BuiltinSource struct{}

func (BuiltinSource) Load() (*config.LoadResult, error) {
	return &config.LoadResult{Config: config.BuiltinConfig(), File: "builtin"}, nil
}

func (BuiltinSource) String() string { return "builtin rules" }

// StaticSource supplies an already built config, as the MCP apply tools do.
type StaticSource struct {
	Config *config.Config
	Name   string
}

func (s StaticSource) Load() (*config.LoadResult, error) {
	cfg := s.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &config.LoadResult{Config: cfg, File: s.String()}, nil
}

func (s StaticSource) String() string {
	if s.Name == "" {
		return "inline rules"
	}
	return s.Name
}
