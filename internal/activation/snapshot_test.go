package activation

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTakeSnapshot(t *testing.T) {
	snap, err := TakeSnapshot(testBackend())
	if err != nil {
		t.Fatalf("TakeSnapshot: %v", err)
	}
	if snap.Workspaces != 4 {
		t.Fatalf("expected 4 workspaces, got %d", snap.Workspaces)
	}
	if len(snap.Monitors) != 2 {
		t.Fatalf("expected 2 monitors, got %d", len(snap.Monitors))
	}
	if snap.Monitors[0].Name != "eDP-1" || snap.Monitors[0].RawIndex != 1 {
		t.Fatalf("expected leftmost monitor first, got %+v", snap.Monitors[0])
	}
	if snap.Monitors[1].Name != "HDMI-1" || snap.Monitors[1].RawIndex != 0 {
		t.Fatalf("expected right monitor second, got %+v", snap.Monitors[1])
	}

	slack := snap.Windows[0]
	if slack.Class != "slack" || slack.Screen != 0 {
		t.Fatalf("unexpected slack info %+v", slack)
	}
	tb := snap.Windows[1]
	if tb.Class != "thunderbird" || tb.Screen != 1 {
		t.Fatalf("expected class fallback and screen 1, got %+v", tb)
	}
}

func TestSnapshot_Log(t *testing.T) {
	snap, err := TakeSnapshot(testBackend())
	if err != nil {
		t.Fatalf("TakeSnapshot: %v", err)
	}
	log, logs := observed()
	snap.Log(log)

	if n := logs.FilterMessage("monitor").Len(); n != 2 {
		t.Fatalf("expected 2 monitor entries, got %d", n)
	}
	windows := logs.FilterMessage("window").All()
	if len(windows) != 2 {
		t.Fatalf("expected 2 window entries, got %d", len(windows))
	}
	if windows[0].Level != zapcore.InfoLevel {
		t.Fatalf("expected info level diagnostics, got %v", windows[0].Level)
	}
	if windows[1].ContextMap()["title"] != "Inbox" {
		t.Fatalf("expected window title logged, got %v", windows[1].ContextMap())
	}
}

func TestExtension_DiagnosticsAtDefaultLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ext := New(testBackend(), staticRules(), zap.New(core).Sugar(), testOptions(t))
	if _, err := ext.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	monitors := logs.FilterMessage("monitor").All()
	if len(monitors) != 2 {
		t.Fatalf("expected both monitors logged at info, got %d", len(monitors))
	}
	first := monitors[0].ContextMap()
	if first["screen"] != int64(0) || first["raw_index"] != int64(1) || first["name"] != "eDP-1" {
		t.Fatalf("expected screen 0 to map to raw index 1 (eDP-1), got %v", first)
	}
	if n := logs.FilterMessage("window").Len(); n != 2 {
		t.Fatalf("expected both windows logged at info, got %d", n)
	}
}
