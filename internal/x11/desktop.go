package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// AllDesktops is the _NET_WM_DESKTOP value of a window shown on every desktop.
const AllDesktops = 0xFFFFFFFF

// sourceIndication tells the window manager the request comes from a pager
// or similar direct user action, which most WMs honor without focus-stealing checks.
const sourceIndication = 2

// GetWindowDesktop returns the desktop number a window is on.
// Returns -1 for sticky windows (visible on all desktops).
func (c *Connection) GetWindowDesktop(windowID xproto.Window) (int, error) {
	desktop, err := ewmh.WmDesktopGet(c.XUtil, windowID)
	if err != nil {
		return 0, fmt.Errorf("failed to get window desktop: %w", err)
	}
	if desktop == AllDesktops {
		return -1, nil
	}
	return int(desktop), nil
}

// GetDesktopCount returns the number of virtual desktops.
func (c *Connection) GetDesktopCount() (int, error) {
	count, err := ewmh.NumberOfDesktopsGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get desktop count: %w", err)
	}
	return int(count), nil
}

// SetWindowDesktop moves a window to the specified virtual desktop.
// The message is built by hand because ewmh.WmDesktopReq panics on this
// library version (uint vs int type assertion).
func (c *Connection) SetWindowDesktop(windowID xproto.Window, desktop uint32) error {
	if err := c.sendRootMessage(windowID, "_NET_WM_DESKTOP", []uint32{desktop, sourceIndication}); err != nil {
		return fmt.Errorf("failed to send _NET_WM_DESKTOP: %w", err)
	}
	return nil
}

// ActivateWindow focuses and raises a window using _NET_ACTIVE_WINDOW.
func (c *Connection) ActivateWindow(windowID xproto.Window) error {
	if err := c.sendRootMessage(windowID, "_NET_ACTIVE_WINDOW", []uint32{sourceIndication, xproto.TimeCurrentTime}); err != nil {
		return fmt.Errorf("failed to send _NET_ACTIVE_WINDOW: %w", err)
	}
	return nil
}

// StickWindow adds _NET_WM_STATE_STICKY. The window's _NET_WM_DESKTOP is
// left alone so it keeps the desktop it was assigned.
func (c *Connection) StickWindow(windowID xproto.Window) error {
	sticky, err := c.internAtom(stateSticky)
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", stateSticky, err)
	}
	data := []uint32{uint32(ewmh.StateAdd), uint32(sticky), 0, sourceIndication}
	if err := c.sendRootMessage(windowID, "_NET_WM_STATE", data); err != nil {
		return fmt.Errorf("failed to add _NET_WM_STATE_STICKY: %w", err)
	}
	return nil
}
