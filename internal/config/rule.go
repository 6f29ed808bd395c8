package config

import (
	"fmt"
	"strings"

	"github.com/1broseidon/deskplace/internal/windows"
)

// Action is a tag on a placement rule.
type Action string

const (
	ActionSticky     Action = "sticky"
	ActionFullscreen Action = "fullscreen"
	ActionLeftHalf   Action = "leftHalf"
	ActionRightHalf  Action = "rightHalf"
	ActionTopLeft    Action = "topLeft"
	ActionTopRight   Action = "topRight"
	ActionLowLeft    Action = "lowLeft"
	ActionLowRight   Action = "lowRight"
)

// presetOrder is the priority order used when a rule lists several presets.
var presetOrder = []Action{
	ActionLeftHalf,
	ActionRightHalf,
	ActionTopLeft,
	ActionTopRight,
	ActionLowLeft,
	ActionLowRight,
}

// PresetActions returns the resize presets in priority order.
func PresetActions() []Action {
	out := make([]Action, len(presetOrder))
	copy(out, presetOrder)
	return out
}

// AllActions returns every known action tag.
func AllActions() []Action {
	return append([]Action{ActionSticky, ActionFullscreen}, presetOrder...)
}

// ParseAction accepts the canonical camelCase tag as well as kebab-case and
// snake_case spellings, ignoring case.
func ParseAction(s string) (Action, error) {
	key := normalizeTag(s)
	for _, a := range AllActions() {
		if normalizeTag(string(a)) == key {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}

func normalizeTag(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, "_", "")
}

// IsPreset reports whether a is one of the resize presets.
func (a Action) IsPreset() bool {
	for _, p := range presetOrder {
		if a == p {
			return true
		}
	}
	return false
}

// MatchScope says how many matching windows an action is applied to.
type MatchScope int

const (
	// ApplyToAllMatches applies the action to every window of the class.
	ApplyToAllMatches MatchScope = iota
	// ApplyToFirstMatchOnly applies the action to the first enumerated window only.
	ApplyToFirstMatchOnly
)

func (s MatchScope) String() string {
	if s == ApplyToFirstMatchOnly {
		return "first-match-only"
	}
	return "all-matches"
}

// Scope returns the match scope of a. Resize presets are one-shot; every
// other action, and the workspace/monitor move, reach all matches.
func (a Action) Scope() MatchScope {
	if a.IsPreset() {
		return ApplyToFirstMatchOnly
	}
	return ApplyToAllMatches
}

// Step returns the rule step that applies a.
func (a Action) Step() Step {
	switch a {
	case ActionSticky:
		return StepSticky
	case ActionFullscreen:
		return StepFullscreen
	default:
		return StepPreset
	}
}

// ClassMatch selects the class comparison policy of a rule.
type ClassMatch string

const (
	// ClassMatchLegacy compares case-insensitively when moving a window to
	// its monitor and workspace, and exactly for every other action.
	ClassMatchLegacy ClassMatch = "legacy"
	ClassMatchExact  ClassMatch = "exact"
	ClassMatchFold   ClassMatch = "fold"
)

// ParseClassMatch validates a class_match value. Empty means legacy.
func ParseClassMatch(s string) (ClassMatch, error) {
	switch ClassMatch(strings.ToLower(strings.TrimSpace(s))) {
	case "", ClassMatchLegacy:
		return ClassMatchLegacy, nil
	case ClassMatchExact:
		return ClassMatchExact, nil
	case ClassMatchFold:
		return ClassMatchFold, nil
	default:
		return "", fmt.Errorf("class_match must be one of: legacy, exact, fold")
	}
}

// Step identifies the part of a rule a window lookup is made for.
type Step int

const (
	StepPlacement Step = iota
	StepSticky
	StepFullscreen
	StepPreset
)

// Rule places every window of one class.
type Rule struct {
	Window     string     `yaml:"window" json:"window"`
	Screen     int        `yaml:"screen" json:"screen"`
	Workspace  int        `yaml:"workspace" json:"workspace"`
	Actions    []Action   `yaml:"actions,omitempty" json:"actions,omitempty"`
	ClassMatch ClassMatch `yaml:"class_match,omitempty" json:"class_match,omitempty"`
}

// Has reports whether the rule carries action a.
func (r Rule) Has(a Action) bool {
	for _, have := range r.Actions {
		if have == a {
			return true
		}
	}
	return false
}

// Preset returns the resize preset to apply: the first present in
// priority order, regardless of the order the rule lists them in.
func (r Rule) Preset() (Action, bool) {
	for _, p := range presetOrder {
		if r.Has(p) {
			return p, true
		}
	}
	return "", false
}

// Plan returns the actions to apply after placement, in execution order:
// sticky, fullscreen, then at most one resize preset.
func (r Rule) Plan() []Action {
	var plan []Action
	if r.Has(ActionSticky) {
		plan = append(plan, ActionSticky)
	}
	if r.Has(ActionFullscreen) {
		plan = append(plan, ActionFullscreen)
	}
	if p, ok := r.Preset(); ok {
		plan = append(plan, p)
	}
	return plan
}

// CaseMode returns the class comparison used for step.
func (r Rule) CaseMode(step Step) windows.CaseMode {
	switch r.ClassMatch {
	case ClassMatchExact:
		return windows.Exact
	case ClassMatchFold:
		return windows.Insensitive
	default:
		if step == StepPlacement {
			return windows.Insensitive
		}
		return windows.Exact
	}
}

func (r Rule) String() string {
	return fmt.Sprintf("%s -> screen %d, workspace %d %v", r.Window, r.Screen, r.Workspace, r.Actions)
}
