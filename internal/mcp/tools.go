package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/deskplace/internal/activation"
	"github.com/1broseidon/deskplace/internal/config"
	"github.com/1broseidon/deskplace/internal/windows"
)

func (s *Server) handleListMonitors(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListMonitorsInput) (*mcpsdk.CallToolResult, ListMonitorsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := activation.TakeSnapshot(s.backend)
	if err != nil {
		return nil, ListMonitorsOutput{}, fmt.Errorf("list monitors: %w", err)
	}
	return nil, ListMonitorsOutput{
		Monitors:   snap.Monitors,
		Workspaces: snap.Workspaces,
	}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := activation.TakeSnapshot(s.backend)
	if err != nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("list windows: %w", err)
	}

	class := strings.TrimSpace(args.Class)
	if class == "" {
		return nil, ListWindowsOutput{Windows: snap.Windows}, nil
	}
	mode := windows.Exact
	if args.CaseInsensitive {
		mode = windows.Insensitive
	}
	out := make([]activation.WindowInfo, 0, len(snap.Windows))
	for _, w := range snap.Windows {
		if windows.ClassEqual(w.Class, class, mode) {
			out = append(out, w)
		}
	}
	return nil, ListWindowsOutput{Windows: out}, nil
}

func (s *Server) handleApplyRules(ctx context.Context, _ *mcpsdk.CallToolRequest, args ApplyRulesInput) (*mcpsdk.CallToolResult, ApplyOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apply(ctx, s.source, args.DryRun)
}

func (s *Server) handleApplyRule(ctx context.Context, _ *mcpsdk.CallToolRequest, args ApplyRuleInput) (*mcpsdk.CallToolResult, ApplyOutput, error) {
	rule, err := ruleFromInput(args)
	if err != nil {
		return nil, ApplyOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := config.DefaultConfig()
	cfg.Rules = []config.Rule{rule}
	return s.apply(ctx, activation.StaticSource{Config: cfg, Name: "apply_rule"}, args.DryRun)
}

func (s *Server) apply(ctx context.Context, source activation.RuleSource, dryRun bool) (*mcpsdk.CallToolResult, ApplyOutput, error) {
	opts := s.opts
	opts.DryRun = opts.DryRun || dryRun

	ext := activation.New(s.backend, source, s.log, opts)
	res, err := ext.Enable(ctx)
	if err != nil {
		return nil, ApplyOutput{}, fmt.Errorf("apply: %w", err)
	}

	out := ApplyOutput{
		RunID:  res.RunID,
		Source: res.Load.File,
		DryRun: opts.DryRun,
		Rules:  make([]RuleOutcome, 0, len(res.Report.Rules)),
	}
	for _, skipped := range res.Load.Skipped {
		out.Skipped = append(out.Skipped, skipped.Error())
	}
	for _, rr := range res.Report.Rules {
		o := RuleOutcome{
			Index:     rr.Index,
			Window:    rr.Rule.Window,
			Monitor:   rr.Monitor,
			Matched:   rr.Matched,
			Mutations: rr.Mutations,
			OK:        rr.OK(),
		}
		for _, e := range rr.Errors {
			o.Errors = append(o.Errors, e.Error())
		}
		if !o.OK {
			out.Failed++
		}
		out.Rules = append(out.Rules, o)
	}
	return nil, out, nil
}

func ruleFromInput(args ApplyRuleInput) (config.Rule, error) {
	rule := config.Rule{
		Window:    strings.TrimSpace(args.Window),
		Screen:    args.Screen,
		Workspace: args.Workspace,
	}
	if rule.Window == "" {
		return config.Rule{}, fmt.Errorf("window is required")
	}
	if rule.Screen < 0 {
		return config.Rule{}, fmt.Errorf("screen must be >= 0")
	}
	if rule.Workspace < 0 {
		return config.Rule{}, fmt.Errorf("workspace must be >= 0")
	}
	for _, name := range args.Actions {
		a, err := config.ParseAction(name)
		if err != nil {
			return config.Rule{}, err
		}
		rule.Actions = append(rule.Actions, a)
	}
	cm, err := config.ParseClassMatch(args.ClassMatch)
	if err != nil {
		return config.Rule{}, err
	}
	rule.ClassMatch = cm
	return rule, nil
}
