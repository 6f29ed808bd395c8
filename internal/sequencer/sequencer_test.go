package sequencer

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/1broseidon/deskplace/internal/config"
	"github.com/1broseidon/deskplace/internal/monitors"
	"github.com/1broseidon/deskplace/internal/placement"
	"github.com/1broseidon/deskplace/internal/platform"
	"github.com/1broseidon/deskplace/internal/settle"
)

var fastWait = settle.Waiter{PollInterval: time.Millisecond, Timeout: 100 * time.Millisecond}

// Enumerated right monitor first so custom and raw order differ.
func testMonitors() []platform.Monitor {
	return []platform.Monitor{
		{Name: "DP-2", Bounds: platform.Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}},
		{Name: "DP-1", Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
	}
}

func newTestSequencer(t *testing.T, b platform.Backend, opts ...Option) (*Sequencer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	base := []Option{
		WithLogger(zap.New(core).Sugar()),
		WithWaiter(fastWait),
		WithInitialPause(false),
	}
	return New(b, append(base, opts...)...), logs
}

func win(id platform.WindowID, instance string) platform.Window {
	return platform.Window{
		ID:       id,
		Instance: instance,
		Class:    instance,
		Bounds:   platform.Rect{X: 100, Y: 100, Width: 800, Height: 600},
	}
}

func hasOp(calls []platform.Call, op string) bool {
	for _, c := range calls {
		if c.Op == op {
			return true
		}
	}
	return false
}

func countOp(calls []platform.Call, op string) int {
	n := 0
	for _, c := range calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func mustWindow(t *testing.T, b *platform.MemoryBackend, id platform.WindowID) platform.Window {
	t.Helper()
	w, err := b.Window(id)
	if err != nil {
		t.Fatalf("window %d: %v", id, err)
	}
	return w
}

func TestRun_StickyOnWorkspace(t *testing.T) {
	b := platform.NewMemoryBackend(testMonitors(), []platform.Window{win(1, "A"), win(2, "other")}, 4)
	seq, _ := newTestSequencer(t, b)

	report, err := seq.Run(context.Background(), []config.Rule{
		{Window: "A", Screen: 0, Workspace: 2, Actions: []config.Action{config.ActionSticky}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Rules[0].OK() {
		t.Fatalf("unexpected errors: %v", report.Rules[0].Errors)
	}

	a := mustWindow(t, b, 1)
	if a.Workspace != 2 {
		t.Fatalf("expected workspace 2, got %d", a.Workspace)
	}
	if !a.Sticky {
		t.Fatalf("expected window to be sticky")
	}
	if calls := b.CallsFor(2); len(calls) != 0 {
		t.Fatalf("expected other window untouched, got %v", calls)
	}
}

func TestRun_MonitorNotFoundContinues(t *testing.T) {
	b := platform.NewMemoryBackend(testMonitors(), []platform.Window{win(1, "A")}, 4)
	seq, logs := newTestSequencer(t, b)

	report, err := seq.Run(context.Background(), []config.Rule{
		{Window: "A", Screen: 99, Workspace: 3},
		{Window: "A", Screen: 0, Workspace: 1},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Rules) != 2 {
		t.Fatalf("expected both rules reported, got %d", len(report.Rules))
	}
	if !errors.Is(report.Rules[0].Errors[0], monitors.ErrMonitorNotFound) {
		t.Fatalf("expected monitor not found, got %v", report.Rules[0].Errors)
	}
	if !report.Rules[1].OK() {
		t.Fatalf("second rule failed: %v", report.Rules[1].Errors)
	}
	if got := mustWindow(t, b, 1).Workspace; got != 1 {
		t.Fatalf("expected second rule to place window on workspace 1, got %d", got)
	}
	if countOp(b.Calls(), "set_workspace") != 1 {
		t.Fatalf("expected only the second rule to change workspace, got %v", b.Calls())
	}

	warned := logs.FilterMessage("monitor not found; skipping rule").All()
	if len(warned) != 1 || warned[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected one warning for missing monitor, got %v", warned)
	}
}

func TestRun_PresetFirstMatchOnly(t *testing.T) {
	b := platform.NewMemoryBackend(testMonitors(), []platform.Window{win(1, "B"), win(2, "B")}, 4)
	seq, _ := newTestSequencer(t, b)

	report, err := seq.Run(context.Background(), []config.Rule{
		{Window: "B", Screen: 0, Workspace: 0, Actions: []config.Action{
			config.ActionLeftHalf, config.ActionSticky, config.ActionFullscreen,
		}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Rules[0].OK() {
		t.Fatalf("unexpected errors: %v", report.Rules[0].Errors)
	}

	first := b.CallsFor(1)
	second := b.CallsFor(2)
	if countOp(first, "move_resize") != 1 {
		t.Fatalf("expected first window resized once, got %v", first)
	}
	if hasOp(second, "move_resize") || hasOp(second, "unmaximize") {
		t.Fatalf("expected second window not resized, got %v", second)
	}
	for _, calls := range [][]platform.Call{first, second} {
		if !hasOp(calls, "stick") || !hasOp(calls, "maximize") || !hasOp(calls, "set_workspace") {
			t.Fatalf("expected workspace, sticky and fullscreen on every match, got %v", calls)
		}
	}

	w1 := mustWindow(t, b, 1)
	want := platform.Rect{X: 0, Y: 0, Width: 960, Height: 1080}
	if w1.Bounds != want {
		t.Fatalf("expected left half %+v, got %+v", want, w1.Bounds)
	}
	if w1.MaximizedHorz || w1.MaximizedVert {
		t.Fatalf("expected resized window to be unmaximized")
	}
	if !mustWindow(t, b, 2).Maximized() {
		t.Fatalf("expected second window to stay maximized")
	}
}

func TestRun_StepOrder(t *testing.T) {
	b := platform.NewMemoryBackend(testMonitors(), []platform.Window{win(1, "A")}, 4)
	seq, _ := newTestSequencer(t, b)

	_, err := seq.Run(context.Background(), []config.Rule{
		{Window: "A", Screen: 1, Workspace: 1, Actions: []config.Action{
			config.ActionTopRight, config.ActionFullscreen, config.ActionSticky,
		}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var ops []string
	for _, c := range b.CallsFor(1) {
		ops = append(ops, c.Op)
	}
	want := []string{
		"set_workspace", "move", "activate",
		"stick", "activate",
		"maximize", "activate",
		"unmaximize", "move_resize", "activate",
	}
	if len(ops) != len(want) {
		t.Fatalf("expected %v, got %v", want, ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ops)
		}
	}
}

func TestRun_UsesReadingOrderForScreens(t *testing.T) {
	b := platform.NewMemoryBackend(testMonitors(), []platform.Window{win(1, "A")}, 4)
	seq, _ := newTestSequencer(t, b)

	report, err := seq.Run(context.Background(), []config.Rule{
		{Window: "A", Screen: 1, Workspace: 0, Actions: []config.Action{config.ActionTopRight}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Rules[0].Monitor != "DP-2" {
		t.Fatalf("expected screen 1 to be the right monitor DP-2, got %q", report.Rules[0].Monitor)
	}

	want := placement.Compute(testMonitors()[0].Bounds, placement.Factors{X: 0.5, Width: 0.5, Height: 0.5}).Rect()
	if got := mustWindow(t, b, 1).Bounds; got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestRun_InvalidWorkspaceSkipsPlacementOnly(t *testing.T) {
	b := platform.NewMemoryBackend(testMonitors(), []platform.Window{win(1, "A")}, 2)
	seq, _ := newTestSequencer(t, b)

	report, err := seq.Run(context.Background(), []config.Rule{
		{Window: "A", Screen: 0, Workspace: 5, Actions: []config.Action{config.ActionSticky}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !errors.Is(report.Rules[0].Err(), ErrWorkspaceNotFound) {
		t.Fatalf("expected workspace not found, got %v", report.Rules[0].Errors)
	}
	calls := b.CallsFor(1)
	if hasOp(calls, "set_workspace") || hasOp(calls, "move") {
		t.Fatalf("expected placement skipped, got %v", calls)
	}
	if !hasOp(calls, "stick") {
		t.Fatalf("expected sticky still applied, got %v", calls)
	}
}

func TestRun_NoMatchingWindow(t *testing.T) {
	b := platform.NewMemoryBackend(testMonitors(), []platform.Window{win(1, "A")}, 4)
	seq, _ := newTestSequencer(t, b)

	report, err := seq.Run(context.Background(), []config.Rule{
		{Window: "missing", Screen: 0, Workspace: 0, Actions: []config.Action{config.ActionSticky}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !errors.Is(report.Err(), ErrWindowNotFound) {
		t.Fatalf("expected window not found, got %v", report.Err())
	}
	if len(b.Calls()) != 0 {
		t.Fatalf("expected no mutations, got %v", b.Calls())
	}
}

func TestRun_LegacyCasePolicy(t *testing.T) {
	rule := config.Rule{
		Window:    "Google-chrome",
		Screen:    0,
		Workspace: 1,
		Actions:   []config.Action{config.ActionSticky},
	}

	t.Run("legacy", func(t *testing.T) {
		b := platform.NewMemoryBackend(testMonitors(), []platform.Window{win(1, "google-chrome")}, 4)
		seq, _ := newTestSequencer(t, b)
		r := rule
		r.ClassMatch = config.ClassMatchLegacy
		if _, err := seq.Run(context.Background(), []config.Rule{r}); err != nil {
			t.Fatalf("run: %v", err)
		}
		calls := b.CallsFor(1)
		if !hasOp(calls, "set_workspace") {
			t.Fatalf("expected placement to fold case, got %v", calls)
		}
		if hasOp(calls, "stick") {
			t.Fatalf("expected sticky to compare exactly, got %v", calls)
		}
	})

	t.Run("fold", func(t *testing.T) {
		b := platform.NewMemoryBackend(testMonitors(), []platform.Window{win(1, "google-chrome")}, 4)
		seq, _ := newTestSequencer(t, b)
		r := rule
		r.ClassMatch = config.ClassMatchFold
		if _, err := seq.Run(context.Background(), []config.Rule{r}); err != nil {
			t.Fatalf("run: %v", err)
		}
		if !hasOp(b.CallsFor(1), "stick") {
			t.Fatalf("expected sticky to fold case")
		}
	})

	t.Run("exact", func(t *testing.T) {
		b := platform.NewMemoryBackend(testMonitors(), []platform.Window{win(1, "google-chrome")}, 4)
		seq, _ := newTestSequencer(t, b)
		r := rule
		r.ClassMatch = config.ClassMatchExact
		report, err := seq.Run(context.Background(), []config.Rule{r})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(b.Calls()) != 0 {
			t.Fatalf("expected no match, got %v", b.Calls())
		}
		if !errors.Is(report.Err(), ErrWindowNotFound) {
			t.Fatalf("expected window not found, got %v", report.Err())
		}
	})
}

func TestRun_WaitsForLaggingWindowManager(t *testing.T) {
	b := platform.NewMemoryBackend(testMonitors(), []platform.Window{win(1, "A")}, 4)
	b.Lag = 2
	seq, logs := newTestSequencer(t, b)

	report, err := seq.Run(context.Background(), []config.Rule{
		{Window: "A", Screen: 1, Workspace: 3, Actions: []config.Action{config.ActionSticky, config.ActionFullscreen}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Rules[0].OK() {
		t.Fatalf("unexpected errors: %v", report.Rules[0].Errors)
	}
	if n := logs.FilterMessage("window manager did not confirm change").Len(); n != 0 {
		t.Fatalf("expected every step to settle, got %d timeouts", n)
	}

	w := mustWindow(t, b, 1)
	if w.Workspace != 3 || !w.Sticky || !w.Maximized() || w.Bounds.X != 1920 {
		t.Fatalf("unexpected final state: %+v", w)
	}
}

func TestRun_PresetUnmaximizesBeforeLaggingMaximizeLands(t *testing.T) {
	a := win(1, "A")
	a.Bounds = platform.Rect{X: 2020, Y: 100, Width: 800, Height: 600}
	b := platform.NewMemoryBackend(testMonitors(), []platform.Window{a}, 4)
	b.Lag = 3
	// A zero timeout checks once, so nothing waits for the maximize to land.
	seq, _ := newTestSequencer(t, b, WithWaiter(settle.Waiter{PollInterval: time.Millisecond}))

	report, err := seq.Run(context.Background(), []config.Rule{
		{Window: "A", Screen: 1, Workspace: 0, Actions: []config.Action{config.ActionFullscreen, config.ActionLeftHalf}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Rules[0].OK() {
		t.Fatalf("unexpected errors: %v", report.Rules[0].Errors)
	}

	var ops []string
	for _, c := range b.CallsFor(1) {
		ops = append(ops, c.Op)
	}
	maximize, unmaximize, resize := -1, -1, -1
	for i, op := range ops {
		switch op {
		case "maximize":
			maximize = i
		case "unmaximize":
			unmaximize = i
		case "move_resize":
			resize = i
		}
	}
	if maximize < 0 || unmaximize < maximize || resize < unmaximize {
		t.Fatalf("expected maximize, unmaximize, move_resize in order, got %v", ops)
	}

	// Let every pending request land.
	for i := 0; i < b.Lag+1; i++ {
		mustWindow(t, b, 1)
	}
	w := mustWindow(t, b, 1)
	if w.MaximizedHorz || w.MaximizedVert {
		t.Fatalf("expected window unmaximized, got %+v", w)
	}
	want := platform.Rect{X: 1920, Y: 0, Width: 960, Height: 1080}
	if w.Bounds != want {
		t.Fatalf("expected left half %+v, got %+v", want, w.Bounds)
	}
}

func TestRun_SettleTimeoutIsNotFatal(t *testing.T) {
	b := platform.NewMemoryBackend(testMonitors(), []platform.Window{win(1, "A")}, 4)
	b.Lag = 100
	seq, logs := newTestSequencer(t, b, WithWaiter(settle.Waiter{PollInterval: time.Millisecond}))

	report, err := seq.Run(context.Background(), []config.Rule{
		{Window: "A", Screen: 0, Workspace: 1, Actions: []config.Action{config.ActionSticky}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Rules[0].OK() {
		t.Fatalf("expected timeouts to be tolerated, got %v", report.Rules[0].Errors)
	}
	if logs.FilterMessage("window manager did not confirm change").Len() == 0 {
		t.Fatalf("expected a timeout warning")
	}
	if !hasOp(b.CallsFor(1), "stick") {
		t.Fatalf("expected run to continue past the timeout")
	}
}

func TestRun_InvalidMonitorGeometry(t *testing.T) {
	mons := []platform.Monitor{
		{Name: "LEFT", Bounds: platform.Rect{X: -1920, Y: 0, Width: 1920, Height: 1080}},
		{Name: "MAIN", Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
	}
	b := platform.NewMemoryBackend(mons, []platform.Window{win(1, "A")}, 4)
	seq, _ := newTestSequencer(t, b, WithWaiter(settle.Waiter{PollInterval: time.Millisecond}))

	report, err := seq.Run(context.Background(), []config.Rule{
		{Window: "A", Screen: 0, Workspace: 1, Actions: []config.Action{config.ActionSticky}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !errors.Is(report.Err(), placement.ErrInvalidGeometry) {
		t.Fatalf("expected invalid geometry, got %v", report.Err())
	}
	calls := b.CallsFor(1)
	if hasOp(calls, "move") {
		t.Fatalf("expected move skipped, got %v", calls)
	}
	if !hasOp(calls, "set_workspace") || !hasOp(calls, "stick") {
		t.Fatalf("expected other steps applied, got %v", calls)
	}
}

func TestRun_Canceled(t *testing.T) {
	b := platform.NewMemoryBackend(testMonitors(), []platform.Window{win(1, "A")}, 4)
	seq, _ := newTestSequencer(t, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := seq.Run(ctx, []config.Rule{{Window: "A", Screen: 0, Workspace: 0}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !report.Canceled {
		t.Fatalf("expected report to be marked canceled")
	}
	if len(b.Calls()) != 0 {
		t.Fatalf("expected no mutations, got %v", b.Calls())
	}
}

func TestRun_FreshMonitorsPerRule(t *testing.T) {
	b := platform.NewMemoryBackend(testMonitors()[:1], []platform.Window{win(1, "A")}, 4)
	seq, _ := newTestSequencer(t, b)

	report, _ := seq.Run(context.Background(), []config.Rule{{Window: "A", Screen: 1, Workspace: 0}})
	if !errors.Is(report.Err(), monitors.ErrMonitorNotFound) {
		t.Fatalf("expected screen 1 missing with one monitor, got %v", report.Err())
	}

	b.SetMonitors(testMonitors())
	report, _ = seq.Run(context.Background(), []config.Rule{{Window: "A", Screen: 1, Workspace: 0}})
	if !report.Rules[0].OK() {
		t.Fatalf("expected hotplugged monitor to be found, got %v", report.Rules[0].Errors)
	}
}

func TestRun_EmptyRules(t *testing.T) {
	b := platform.NewMemoryBackend(testMonitors(), nil, 4)
	seq, _ := newTestSequencer(t, b, WithInitialPause(true), WithWaiter(settle.Waiter{Delay: time.Hour}))

	report, err := seq.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Rules) != 0 {
		t.Fatalf("expected empty report")
	}
}
