package config

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// rawRule is one rule record before validation. Both the YAML and the TOML
// decoders reduce a record to a field map first so that a bad record can be
// rejected on its own.
type rawRule struct {
	Fields map[string]any
	Path   string
	Source Source
	Err    error // set when the record could not be decoded at all
}

var ruleKeys = map[string]bool{
	"window":      true,
	"screen":      true,
	"workspace":   true,
	"actions":     true,
	"class_match": true,
}

func (r rawRule) fail(key string, err error) error {
	path := r.Path
	if key != "" {
		path = path + "." + key
	}
	return &ValidationError{Path: path, Source: r.Source, Err: err}
}

// build validates the record. Warnings are non-fatal observations such as
// several resize presets on one rule.
func (r rawRule) build(defaultMatch ClassMatch) (Rule, []string, error) {
	if r.Err != nil {
		return Rule{}, nil, r.fail("", r.Err)
	}

	var unknown []string
	for key := range r.Fields {
		if !ruleKeys[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Rule{}, nil, r.fail("", fmt.Errorf("unknown field(s): %s", strings.Join(unknown, ", ")))
	}

	var rule Rule

	window, ok := r.Fields["window"]
	if !ok {
		return Rule{}, nil, r.fail("window", fmt.Errorf("window is required"))
	}
	rule.Window, ok = asString(window)
	if !ok || strings.TrimSpace(rule.Window) == "" {
		return Rule{}, nil, r.fail("window", fmt.Errorf("window must be a non-empty string"))
	}

	for _, field := range []struct {
		key string
		dst *int
	}{
		{"screen", &rule.Screen},
		{"workspace", &rule.Workspace},
	} {
		v, ok := r.Fields[field.key]
		if !ok {
			return Rule{}, nil, r.fail(field.key, fmt.Errorf("%s is required", field.key))
		}
		n, ok := asInt(v)
		if !ok {
			return Rule{}, nil, r.fail(field.key, fmt.Errorf("%s must be an integer", field.key))
		}
		if n < 0 {
			return Rule{}, nil, r.fail(field.key, fmt.Errorf("%s must be >= 0", field.key))
		}
		*field.dst = n
	}

	if v, ok := r.Fields["actions"]; ok && v != nil {
		items, ok := v.([]any)
		if !ok {
			return Rule{}, nil, r.fail("actions", fmt.Errorf("actions must be a list of strings"))
		}
		for i, item := range items {
			s, ok := asString(item)
			if !ok {
				return Rule{}, nil, r.fail(fmt.Sprintf("actions[%d]", i), fmt.Errorf("action must be a string"))
			}
			a, err := ParseAction(s)
			if err != nil {
				return Rule{}, nil, r.fail(fmt.Sprintf("actions[%d]", i), err)
			}
			rule.Actions = append(rule.Actions, a)
		}
	}

	rule.ClassMatch = defaultMatch
	if v, ok := r.Fields["class_match"]; ok {
		s, ok := asString(v)
		if !ok {
			return Rule{}, nil, r.fail("class_match", fmt.Errorf("class_match must be a string"))
		}
		cm, err := ParseClassMatch(s)
		if err != nil {
			return Rule{}, nil, r.fail("class_match", err)
		}
		rule.ClassMatch = cm
	}

	var warnings []string
	var presets []string
	for _, a := range rule.Actions {
		if a.IsPreset() {
			presets = append(presets, string(a))
		}
	}
	if len(presets) > 1 {
		chosen, _ := rule.Preset()
		warnings = append(warnings, fmt.Sprintf("%s: several resize presets (%s); only %s is applied",
			r.Path, strings.Join(presets, ", "), chosen))
	}

	return rule, warnings, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// asDuration accepts Go duration strings ("500ms", "2s") or a bare integer
// number of milliseconds.
func asDuration(v any) (time.Duration, error) {
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return 0, err
		}
		return d, nil
	}
	if n, ok := asInt(v); ok {
		return time.Duration(n) * time.Millisecond, nil
	}
	return 0, fmt.Errorf("must be a duration string or milliseconds")
}
