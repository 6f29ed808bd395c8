package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

const (
	stateMaxHorz = "_NET_WM_STATE_MAXIMIZED_HORZ"
	stateMaxVert = "_NET_WM_STATE_MAXIMIZED_VERT"
	stateSticky  = "_NET_WM_STATE_STICKY"
	stateHidden  = "_NET_WM_STATE_HIDDEN"
	typeNormal   = "_NET_WM_WINDOW_TYPE_NORMAL"
	typeDesktop  = "_NET_WM_WINDOW_TYPE_DESKTOP"
	typeDock     = "_NET_WM_WINDOW_TYPE_DOCK"
	typeSplash   = "_NET_WM_WINDOW_TYPE_SPLASH"
	typeNotifier = "_NET_WM_WINDOW_TYPE_NOTIFICATION"
)

// WindowState holds the EWMH state flags relevant to placement.
type WindowState struct {
	MaximizedHorz bool
	MaximizedVert bool
	Sticky        bool
	Hidden        bool
}

// ClientWindows returns the EWMH client list in window manager order.
func (c *Connection) ClientWindows() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	return clients, nil
}

// GetWindowClass returns the WM_CLASS instance and class names.
func (c *Connection) GetWindowClass(windowID xproto.Window) (instance, class string, err error) {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(wmClass.Instance), strings.TrimSpace(wmClass.Class), nil
}

// GetWindowTitle prefers _NET_WM_NAME and falls back to WM_NAME.
func (c *Connection) GetWindowTitle(windowID xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, windowID); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	if title, err := icccm.WmNameGet(c.XUtil, windowID); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// GetWindowGeometry returns the window position in root coordinates and its size.
func (c *Connection) GetWindowGeometry(windowID xproto.Window) (x, y, width, height int, err error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), nil
}

// GetWindowState reads _NET_WM_STATE. Windows without the property report
// an empty state.
func (c *Connection) GetWindowState(windowID xproto.Window) WindowState {
	var st WindowState
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return st
	}
	for _, state := range states {
		switch state {
		case stateMaxHorz:
			st.MaximizedHorz = true
		case stateMaxVert:
			st.MaximizedVert = true
		case stateSticky:
			st.Sticky = true
		case stateHidden:
			st.Hidden = true
		}
	}
	return st
}

// MoveWindow moves a window's frame without changing its size.
func (c *Connection) MoveWindow(windowID xproto.Window, x, y int) error {
	if err := ewmh.MoveWindow(c.XUtil, windowID, x, y); err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).Move(x, y)
	}
	return nil
}

// MoveResizeWindow moves and resizes a window to the specified geometry.
// Maximized windows ignore this request; callers unmaximize first.
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	if err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height); err != nil {
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
	return nil
}

// SetMaximized adds or removes the maximized state on the requested axes.
func (c *Connection) SetMaximized(windowID xproto.Window, maximize, horizontal, vertical bool) error {
	action := ewmh.StateRemove
	if maximize {
		action = ewmh.StateAdd
	}

	var first, second string
	switch {
	case horizontal && vertical:
		first, second = stateMaxHorz, stateMaxVert
	case horizontal:
		first = stateMaxHorz
	case vertical:
		first = stateMaxVert
	default:
		return nil
	}

	if err := ewmh.WmStateReqExtra(c.XUtil, windowID, action, first, second, sourceIndication); err != nil {
		return fmt.Errorf("failed to change maximized state: %w", err)
	}
	return nil
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		switch t {
		case typeNormal:
			return true
		case typeDesktop, typeDock, typeSplash, typeNotifier:
			return false
		}
	}

	return len(types) == 0
}
