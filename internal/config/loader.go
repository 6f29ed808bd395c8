package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const appDirName = "deskplace"

// rulesFileNames are searched in order under each XDG config directory.
var rulesFileNames = []string{"rules.yaml", "rules.yml", "rules.json", "rules.toml"}

// Format is a rules file encoding.
type Format string

const (
	FormatYAML Format = "yaml" // also accepts JSON
	FormatTOML Format = "toml"
)

// FormatFor picks the decoder from the file extension.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// LoadResult is a loaded rules file. Records that failed validation are
// listed in Skipped and left out of Config.Rules.
type LoadResult struct {
	Config   *Config
	File     string
	Skipped  []error
	Warnings []string
}

// DefaultRulesPath finds the rules file under $XDG_CONFIG_HOME and
// $XDG_CONFIG_DIRS.
func DefaultRulesPath() (string, error) {
	var tried []string
	for _, name := range rulesFileNames {
		rel := filepath.Join(appDirName, name)
		path, err := xdg.SearchConfigFile(rel)
		if err == nil {
			return path, nil
		}
		tried = append(tried, filepath.Join(xdg.ConfigHome, rel))
	}
	return "", fmt.Errorf("no rules file found (tried %s): %w", strings.Join(tried, ", "), fs.ErrNotExist)
}

// Load reads the rules file from the default location.
func Load() (*LoadResult, error) {
	path, err := DefaultRulesPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and parses one rules file. A missing or malformed file
// is an error; an invalid rule record is not.
func LoadFromPath(path string) (*LoadResult, error) {
	canon, err := canonicalPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(canon)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read: %w", canon, err)
	}
	return Parse(data, FormatFor(canon), canon)
}

// Parse decodes rules file content. file is only used in error messages.
func Parse(data []byte, format Format, file string) (*LoadResult, error) {
	var (
		top   []topField
		rules []rawRule
		err   error
	)
	switch format {
	case FormatTOML:
		top, rules, err = parseTOML(data, file)
	default:
		top, rules, err = parseYAML(data, file)
	}
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	for _, f := range top {
		if err := applyTopField(cfg, f); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &LoadResult{Config: cfg, File: file}
	for _, raw := range rules {
		rule, warnings, err := raw.build(cfg.ClassMatch)
		if err != nil {
			res.Skipped = append(res.Skipped, err)
			continue
		}
		res.Warnings = append(res.Warnings, warnings...)
		cfg.Rules = append(cfg.Rules, rule)
	}
	return res, nil
}

// topField is one document-level key with its decoded value.
type topField struct {
	Key    string
	Value  any
	Source Source
}

func applyTopField(cfg *Config, f topField) error {
	fail := func(path string, err error) error {
		return &ValidationError{Path: path, Source: f.Source, Err: err}
	}

	switch f.Key {
	case "log_level":
		s, ok := asString(f.Value)
		if !ok {
			return fail("log_level", fmt.Errorf("log_level must be a string"))
		}
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(s))
	case "class_match":
		s, ok := asString(f.Value)
		if !ok {
			return fail("class_match", fmt.Errorf("class_match must be a string"))
		}
		cm, err := ParseClassMatch(s)
		if err != nil {
			return fail("class_match", err)
		}
		cfg.ClassMatch = cm
	case "settle":
		if f.Value == nil {
			return nil
		}
		m, ok := f.Value.(map[string]any)
		if !ok {
			return fail("settle", fmt.Errorf("settle must be a mapping"))
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			var dst *time.Duration
			switch k {
			case "delay":
				dst = &cfg.Settle.Delay
			case "poll_interval":
				dst = &cfg.Settle.PollInterval
			case "timeout":
				dst = &cfg.Settle.Timeout
			default:
				return fail("settle."+k, fmt.Errorf("unknown field"))
			}
			d, err := asDuration(m[k])
			if err != nil {
				return fail("settle."+k, err)
			}
			*dst = d
		}
	default:
		return fail(f.Key, fmt.Errorf("unknown field"))
	}
	return nil
}

func parseYAML(data []byte, file string) ([]topField, []rawRule, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		return nil, yamlRules(root, file), nil
	case yaml.MappingNode:
	default:
		return nil, nil, fmt.Errorf("%s: rules file must be a list of rules or a mapping", file)
	}

	var top []topField
	var rules []rawRule
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		valNode := root.Content[i+1]
		src := nodeSource(valNode, file)

		if keyNode.Value == "rules" {
			switch valNode.Kind {
			case yaml.SequenceNode:
				rules = yamlRules(valNode, file)
			case yaml.ScalarNode:
				if valNode.Tag != "!!null" {
					return nil, nil, &ValidationError{Path: "rules", Source: src, Err: fmt.Errorf("rules must be a list")}
				}
			default:
				return nil, nil, &ValidationError{Path: "rules", Source: src, Err: fmt.Errorf("rules must be a list")}
			}
			continue
		}

		var value any
		if err := valNode.Decode(&value); err != nil {
			return nil, nil, &ValidationError{Path: keyNode.Value, Source: src, Err: err}
		}
		top = append(top, topField{Key: keyNode.Value, Value: value, Source: src})
	}
	return top, rules, nil
}

func yamlRules(seq *yaml.Node, file string) []rawRule {
	rules := make([]rawRule, 0, len(seq.Content))
	for i, item := range seq.Content {
		raw := rawRule{
			Path:   fmt.Sprintf("rules[%d]", i),
			Source: nodeSource(item, file),
		}
		if item.Kind != yaml.MappingNode {
			raw.Err = fmt.Errorf("rule must be a mapping")
			rules = append(rules, raw)
			continue
		}
		if err := item.Decode(&raw.Fields); err != nil {
			raw.Err = err
		}
		rules = append(rules, raw)
	}
	return rules
}

func nodeSource(n *yaml.Node, file string) Source {
	return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
}

func parseTOML(data []byte, file string) ([]topField, []rawRule, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, nil, fmt.Errorf("%s:%d:%d: failed to parse toml: %w", file, row, col, err)
		}
		return nil, nil, fmt.Errorf("%s: failed to parse toml: %w", file, err)
	}

	src := Source{Kind: SourceFile, File: file}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var top []topField
	var rules []rawRule
	for _, k := range keys {
		if k != "rules" {
			top = append(top, topField{Key: k, Value: doc[k], Source: src})
			continue
		}
		items, ok := doc[k].([]any)
		if !ok {
			return nil, nil, &ValidationError{Path: "rules", Source: src, Err: fmt.Errorf("rules must be an array of tables")}
		}
		for i, item := range items {
			raw := rawRule{Path: fmt.Sprintf("rules[%d]", i), Source: src}
			fields, ok := item.(map[string]any)
			if ok {
				raw.Fields = fields
			} else {
				raw.Err = fmt.Errorf("rule must be a table")
			}
			rules = append(rules, raw)
		}
	}
	return top, rules, nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Best-effort; still use abs.
		return abs, nil
	}
	return real, nil
}
