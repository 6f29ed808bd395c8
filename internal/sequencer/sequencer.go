// Package sequencer applies placement rules to live windows, one rule and
// one step at a time.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/deskplace/internal/config"
	"github.com/1broseidon/deskplace/internal/monitors"
	"github.com/1broseidon/deskplace/internal/placement"
	"github.com/1broseidon/deskplace/internal/platform"
	"github.com/1broseidon/deskplace/internal/settle"
	"github.com/1broseidon/deskplace/internal/windows"
)

var (
	// ErrWorkspaceNotFound is recorded when a rule names a workspace the
	// window manager does not have.
	ErrWorkspaceNotFound = errors.New("workspace not found")
	// ErrWindowNotFound is recorded when no open window has the rule's class.
	ErrWindowNotFound = errors.New("no window matches class")
)

// Sequencer runs rules against a backend. It is not safe for concurrent use;
// callers serialize runs.
type Sequencer struct {
	backend      platform.Backend
	log          *zap.SugaredLogger
	wait         settle.Waiter
	initialPause bool
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithLogger sets the diagnostic logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Sequencer) {
		if log != nil {
			s.log = log
		}
	}
}

// WithWaiter sets the settle timing.
func WithWaiter(w settle.Waiter) Option {
	return func(s *Sequencer) { s.wait = w }
}

// WithInitialPause controls the pause before the first rule. It is on by
// default so windows opened at login have time to map.
func WithInitialPause(enabled bool) Option {
	return func(s *Sequencer) { s.initialPause = enabled }
}

// WaiterFor converts rules-file settle timing into a Waiter.
func WaiterFor(cfg config.Settle) settle.Waiter {
	return settle.Waiter{
		Delay:        cfg.Delay,
		PollInterval: cfg.PollInterval,
		Timeout:      cfg.Timeout,
	}
}

// New creates a Sequencer with default settle timing.
func New(backend platform.Backend, opts ...Option) *Sequencer {
	s := &Sequencer{
		backend:      backend,
		log:          zap.NewNop().Sugar(),
		wait:         WaiterFor(config.DefaultConfig().Settle),
		initialPause: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run applies rules in order. Failures are recorded in the report and never
// stop the run; the returned error is non-nil only when ctx ends it early.
func (s *Sequencer) Run(ctx context.Context, rules []config.Rule) (*Report, error) {
	report := &Report{Started: time.Now()}
	defer func() { report.Finished = time.Now() }()

	if len(rules) == 0 {
		s.log.Info("no rules to apply")
		return report, nil
	}

	if s.initialPause {
		if err := s.wait.Pause(ctx); err != nil {
			report.Canceled = true
			return report, err
		}
	}

	for i, rule := range rules {
		if err := ctx.Err(); err != nil {
			report.Canceled = true
			return report, err
		}
		rr := s.applyRule(ctx, i, rule)
		report.Rules = append(report.Rules, rr)
	}

	if err := ctx.Err(); err != nil {
		report.Canceled = true
		return report, err
	}

	s.log.Infow("run finished",
		"rules", len(report.Rules),
		"failed", len(report.Failed()),
		"duration", time.Since(report.Started).Round(time.Millisecond),
	)
	return report, nil
}

func (s *Sequencer) applyRule(ctx context.Context, idx int, rule config.Rule) RuleReport {
	rr := RuleReport{Index: idx, Rule: rule}
	log := s.log.With("rule", idx, "class", rule.Window)
	log.Debugw("applying rule", "screen", rule.Screen, "workspace", rule.Workspace, "actions", rule.Actions)

	layout, err := monitors.Normalize(s.backend)
	if err != nil {
		log.Errorw("failed to query monitors; skipping rule", "error", err)
		rr.fail(err)
		return rr
	}
	target, err := layout.Lookup(rule.Screen)
	if err != nil {
		log.Warnw("monitor not found; skipping rule", "screen", rule.Screen, "monitors", layout.Len())
		rr.fail(err)
		return rr
	}
	rr.Monitor = target.Name

	matches, err := windows.FindByClass(s.backend, rule.Window, rule.CaseMode(config.StepPlacement))
	if err != nil {
		log.Errorw("failed to query windows; skipping rule", "error", err)
		rr.fail(err)
		return rr
	}
	if len(matches) == 0 {
		log.Infow("no window matches class; skipping rule")
		rr.fail(fmt.Errorf("%w %q", ErrWindowNotFound, rule.Window))
		return rr
	}
	rr.Matched = len(matches)

	workspaces, err := s.backend.WorkspaceCount()
	if err != nil {
		log.Warnw("failed to query workspace count", "error", err)
		workspaces = -1
	}

	for _, w := range matches {
		if ctx.Err() != nil {
			return rr
		}
		s.place(ctx, log.With("window", windowRef(w.ID)), &rr, rule, target, w, workspaces)
	}

	for _, action := range rule.Plan() {
		if ctx.Err() != nil {
			return rr
		}
		s.applyAction(ctx, log.With("action", action), &rr, rule, target, action)
	}

	if rr.OK() {
		log.Infow("rule applied", "monitor", target.Name, "windows", rr.Matched)
	}
	return rr
}

// place moves one window to the rule's workspace and the target monitor.
func (s *Sequencer) place(ctx context.Context, log *zap.SugaredLogger, rr *RuleReport, rule config.Rule, target platform.Monitor, w platform.Window, workspaces int) {
	if workspaces >= 0 && rule.Workspace >= workspaces {
		log.Warnw("workspace not found; skipping window", "workspace", rule.Workspace, "workspaces", workspaces)
		rr.fail(fmt.Errorf("%w: %d (have %d)", ErrWorkspaceNotFound, rule.Workspace, workspaces))
		return
	}

	if !s.do(log, rr, "set workspace", func() error { return s.backend.SetWorkspace(w.ID, rule.Workspace) }) {
		return
	}
	if err := s.settle(ctx, log, rr, w.ID, "workspace", func(cur platform.Window) bool {
		return cur.Workspace == rule.Workspace
	}); err != nil {
		return
	}

	origin := placement.Origin(target.Bounds)
	if err := origin.Check(); err != nil {
		log.Warnw("invalid monitor geometry; not moving window", "monitor", target.Name, "error", err)
		rr.fail(err)
	} else {
		r := origin.Rect()
		s.do(log, rr, "move", func() error { return s.backend.Move(w.ID, r.X, r.Y) })
	}

	s.do(log, rr, "activate", func() error { return s.backend.Activate(w.ID) })
	_ = s.settle(ctx, log, rr, w.ID, "move", func(cur platform.Window) bool {
		cx, cy := cur.Bounds.Center()
		return target.Bounds.Contains(cx, cy)
	})
}

func (s *Sequencer) applyAction(ctx context.Context, log *zap.SugaredLogger, rr *RuleReport, rule config.Rule, target platform.Monitor, action config.Action) {
	matches, err := windows.FindByClass(s.backend, rule.Window, rule.CaseMode(action.Step()))
	if err != nil {
		log.Errorw("failed to query windows", "error", err)
		rr.fail(err)
		return
	}
	if len(matches) == 0 {
		log.Infow("no window matches class for action")
		return
	}
	if action.Scope() == config.ApplyToFirstMatchOnly && len(matches) > 1 {
		log.Debugw("action applies to the first match only", "matched", len(matches))
		matches = matches[:1]
	}

	for _, w := range matches {
		if ctx.Err() != nil {
			return
		}
		wlog := log.With("window", windowRef(w.ID))
		switch action {
		case config.ActionSticky:
			s.stick(ctx, wlog, rr, w)
		case config.ActionFullscreen:
			s.fullscreen(ctx, wlog, rr, w)
		default:
			s.resize(ctx, wlog, rr, target, w, action)
		}
	}
}

func (s *Sequencer) stick(ctx context.Context, log *zap.SugaredLogger, rr *RuleReport, w platform.Window) {
	if !s.do(log, rr, "stick", func() error { return s.backend.Stick(w.ID) }) {
		return
	}
	s.do(log, rr, "activate", func() error { return s.backend.Activate(w.ID) })
	_ = s.settle(ctx, log, rr, w.ID, "sticky", func(cur platform.Window) bool { return cur.Sticky })
}

func (s *Sequencer) fullscreen(ctx context.Context, log *zap.SugaredLogger, rr *RuleReport, w platform.Window) {
	if !s.do(log, rr, "maximize", func() error { return s.backend.Maximize(w.ID, platform.MaximizeBoth) }) {
		return
	}
	s.do(log, rr, "activate", func() error { return s.backend.Activate(w.ID) })
	_ = s.settle(ctx, log, rr, w.ID, "maximize", func(cur platform.Window) bool { return cur.Maximized() })
}

// resize unmaximizes the window and applies a preset relative to the
// monitor it is on now, falling back to the rule's monitor when the window
// is off-screen.
func (s *Sequencer) resize(ctx context.Context, log *zap.SugaredLogger, rr *RuleReport, target platform.Monitor, w platform.Window, preset config.Action) {
	factors, err := placement.PresetFor(preset)
	if err != nil {
		rr.fail(err)
		return
	}

	// A maximize issued earlier in the rule may not be visible yet.
	if !s.do(log, rr, "unmaximize", func() error { return s.backend.Unmaximize(w.ID, platform.MaximizeBoth) }) {
		return
	}
	if err := s.settle(ctx, log, rr, w.ID, "unmaximize", func(cur platform.Window) bool {
		return !cur.MaximizedHorz && !cur.MaximizedVert
	}); err != nil {
		return
	}

	cur, err := s.backend.Window(w.ID)
	if err != nil {
		log.Warnw("window went away before resize", "error", err)
		rr.fail(err)
		return
	}
	monitor := target
	if mons, err := s.backend.Monitors(); err == nil {
		if m, ok := monitors.Containing(mons, cur.Bounds); ok {
			monitor = m
		}
	}

	geom := placement.Compute(monitor.Bounds, factors)
	if err := geom.Check(); err != nil {
		log.Warnw("invalid geometry; not resizing window", "monitor", monitor.Name, "error", err)
		rr.fail(err)
		return
	}
	bounds := geom.Rect()
	log.Debugw("resizing window", "monitor", monitor.Name, "bounds", bounds)

	if !s.do(log, rr, "move-resize", func() error { return s.backend.MoveResize(w.ID, bounds) }) {
		return
	}
	s.do(log, rr, "activate", func() error { return s.backend.Activate(w.ID) })
	_ = s.settle(ctx, log, rr, w.ID, "resize", func(cur platform.Window) bool {
		cx, cy := cur.Bounds.Center()
		return bounds.Contains(cx, cy)
	})
}

// do issues one platform request and records its failure.
func (s *Sequencer) do(log *zap.SugaredLogger, rr *RuleReport, op string, fn func() error) bool {
	if err := fn(); err != nil {
		log.Warnw("platform request failed", "op", op, "error", err)
		rr.fail(fmt.Errorf("%s: %w", op, err))
		return false
	}
	rr.Mutations++
	return true
}

// settle waits until the window's reported state satisfies done. A timeout
// is logged and tolerated; a vanished window or a canceled context is
// returned so the caller stops working on that window.
func (s *Sequencer) settle(ctx context.Context, log *zap.SugaredLogger, rr *RuleReport, id platform.WindowID, what string, done func(platform.Window) bool) error {
	err := s.wait.Until(ctx, func() (bool, error) {
		cur, err := s.backend.Window(id)
		if err != nil {
			return false, err
		}
		return done(cur), nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, settle.ErrTimeout):
		log.Warnw("window manager did not confirm change", "step", what, "timeout", s.wait.Timeout)
		return nil
	case ctx.Err() != nil:
		return err
	default:
		log.Warnw("lost window while waiting", "step", what, "error", err)
		rr.fail(fmt.Errorf("%s: %w", what, err))
		return err
	}
}

func windowRef(id platform.WindowID) string {
	return fmt.Sprintf("0x%x", uint32(id))
}
