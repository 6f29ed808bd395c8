package mcp

import "github.com/1broseidon/deskplace/internal/activation"

// ListMonitorsInput is the input for the list_monitors tool.
type ListMonitorsInput struct{}

// ListMonitorsOutput is the output for the list_monitors tool.
type ListMonitorsOutput struct {
	Monitors   []activation.MonitorInfo `json:"monitors"`
	Workspaces int                      `json:"workspaces"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Class           string `json:"class,omitempty" jsonschema:"Only list windows of this class"`
	CaseInsensitive bool   `json:"case_insensitive,omitempty" jsonschema:"Compare class ignoring case (default: exact)"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []activation.WindowInfo `json:"windows"`
}

// ApplyRulesInput is the input for the apply_rules tool.
type ApplyRulesInput struct {
	DryRun bool `json:"dry_run,omitempty" jsonschema:"Log the requests without moving any window"`
}

// ApplyRuleInput is the input for the apply_rule tool.
type ApplyRuleInput struct {
	Window     string   `json:"window" jsonschema:"Window class to match (WM_CLASS instance, falling back to class)"`
	Screen     int      `json:"screen" jsonschema:"Target monitor, numbered left to right then top to bottom from 0"`
	Workspace  int      `json:"workspace" jsonschema:"Target workspace, from 0"`
	Actions    []string `json:"actions,omitempty" jsonschema:"Any of sticky, fullscreen, leftHalf, rightHalf, topLeft, topRight, lowLeft, lowRight"`
	ClassMatch string   `json:"class_match,omitempty" jsonschema:"legacy (default), exact or fold"`
	DryRun     bool     `json:"dry_run,omitempty" jsonschema:"Log the requests without moving any window"`
}

// RuleOutcome summarizes one applied rule.
type RuleOutcome struct {
	Index     int      `json:"index"`
	Window    string   `json:"window"`
	Monitor   string   `json:"monitor,omitempty"`
	Matched   int      `json:"matched"`
	Mutations int      `json:"mutations"`
	OK        bool     `json:"ok"`
	Errors    []string `json:"errors,omitempty"`
}

// ApplyOutput is the output of apply_rules and apply_rule.
type ApplyOutput struct {
	RunID   string        `json:"run_id"`
	Source  string        `json:"source"`
	DryRun  bool          `json:"dry_run"`
	Rules   []RuleOutcome `json:"rules"`
	Skipped []string      `json:"skipped,omitempty"`
	Failed  int           `json:"failed"`
}
