// Package systemd reports service state to systemd when deskplace runs as
// a user unit. Every call is a no-op when NOTIFY_SOCKET is unset.
package systemd

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Ready tells systemd start-up has finished and sets the status line.
// It reports whether a notify socket was present.
func Ready(status string) (bool, error) {
	state := daemon.SdNotifyReady
	if status != "" {
		state += "\nSTATUS=" + status
	}
	supported, err := daemon.SdNotify(false, state)
	if err != nil {
		return false, fmt.Errorf("notify systemd: %w", err)
	}
	return supported, nil
}

// Status updates the free-form status line shown by systemctl status.
func Status(format string, args ...any) {
	_, _ = daemon.SdNotify(false, "STATUS="+fmt.Sprintf(format, args...))
}

// Stopping tells systemd a shutdown is in progress.
func Stopping() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
}

// WatchdogLoop pings the watchdog at half its interval until ctx is done.
// It returns nil at once when the unit has no watchdog.
func WatchdogLoop(ctx context.Context) error {
	t, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return fmt.Errorf("check watchdog: %w", err)
	}
	if t == 0 {
		return nil
	}

	ticker := time.NewTicker(t / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
				return fmt.Errorf("notify watchdog: %w", err)
			}
		}
	}
}
