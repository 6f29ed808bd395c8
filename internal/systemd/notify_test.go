package systemd

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func listenNotify(t *testing.T) *net.UnixConn {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	t.Setenv("NOTIFY_SOCKET", path)
	return conn
}

func readMessage(t *testing.T, conn *net.UnixConn) string {
	t.Helper()
	buf := make([]byte, 4096)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(buf[:n])
}

func TestReady_WithoutSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	supported, err := Ready("idle")
	if err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if supported {
		t.Fatalf("expected unsupported without NOTIFY_SOCKET")
	}
}

func TestReady_SendsStatus(t *testing.T) {
	conn := listenNotify(t)

	supported, err := Ready("watching rules.yaml")
	if err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if !supported {
		t.Fatalf("expected supported with NOTIFY_SOCKET set")
	}
	msg := readMessage(t, conn)
	if !strings.Contains(msg, "READY=1") || !strings.Contains(msg, "STATUS=watching rules.yaml") {
		t.Fatalf("unexpected message %q", msg)
	}

	Status("applied %d rules", 4)
	if msg := readMessage(t, conn); msg != "STATUS=applied 4 rules" {
		t.Fatalf("unexpected status %q", msg)
	}
}

func TestWatchdogLoop_Disabled(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "")
	if err := WatchdogLoop(context.Background()); err != nil {
		t.Fatalf("expected nil without watchdog, got %v", err)
	}
}

func TestWatchdogLoop_Pings(t *testing.T) {
	conn := listenNotify(t)
	t.Setenv("WATCHDOG_USEC", "20000")
	t.Setenv("WATCHDOG_PID", strconv.Itoa(os.Getpid()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchdogLoop(ctx) }()

	if msg := readMessage(t, conn); msg != "WATCHDOG=1" {
		t.Fatalf("unexpected message %q", msg)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
