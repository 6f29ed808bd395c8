package platform

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDryRunBackend_ShadowsMutations(t *testing.T) {
	backing := newTestMemory()
	core, logs := observer.New(zapcore.InfoLevel)
	d := NewDryRunBackend(backing, zap.New(core).Sugar())

	if err := d.SetWorkspace(1, 1); err != nil {
		t.Fatalf("SetWorkspace: %v", err)
	}
	if err := d.MoveResize(1, Rect{X: 5, Y: 6, Width: 7, Height: 8}); err != nil {
		t.Fatalf("MoveResize: %v", err)
	}

	shadow, err := d.Window(1)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if shadow.Workspace != 1 || shadow.Bounds.Width != 7 {
		t.Fatalf("expected shadow to reflect requests, got %+v", shadow)
	}

	actual, _ := backing.Window(1)
	if actual.Workspace != 0 || actual.Bounds.Width != 100 {
		t.Fatalf("expected real window untouched, got %+v", actual)
	}
	if len(backing.Calls()) != 0 {
		t.Fatalf("expected no real mutations, got %v", backing.Calls())
	}
	if logs.Len() != 2 {
		t.Fatalf("expected each request logged, got %d entries", logs.Len())
	}
}

func TestDryRunBackend_ValidatesLikeRealBackend(t *testing.T) {
	d := NewDryRunBackend(newTestMemory(), zap.NewNop().Sugar())
	if err := d.SetWorkspace(1, 99); err == nil {
		t.Fatalf("expected out-of-range workspace to be rejected")
	}
}
