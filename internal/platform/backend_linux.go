//go:build linux

package platform

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/deskplace/internal/x11"
)

// LinuxBackend wraps an X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Monitors returns active monitors in RandR CRTC order.
func (b *LinuxBackend) Monitors() ([]Monitor, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	raw, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	monitors := make([]Monitor, 0, len(raw))
	for i, m := range raw {
		monitors = append(monitors, Monitor{
			Index: i,
			Name:  m.Name,
			Bounds: Rect{
				X:      m.X,
				Y:      m.Y,
				Width:  m.Width,
				Height: m.Height,
			},
		})
	}
	return monitors, nil
}

// Windows lists normal application windows in client-list order.
func (b *LinuxBackend) Windows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ClientWindows()
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(clients))
	for _, windowID := range clients {
		if !conn.IsNormalWindow(windowID) {
			continue
		}
		w, err := b.describe(windowID)
		if err != nil {
			// Window vanished between listing and inspection.
			continue
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// Window returns a fresh snapshot of a single window.
func (b *LinuxBackend) Window(id WindowID) (Window, error) {
	if _, err := b.connection(); err != nil {
		return Window{}, err
	}
	w, err := b.describe(xproto.Window(id))
	if err != nil {
		return Window{}, fmt.Errorf("window 0x%x: %w", uint32(id), ErrNoSuchWindow)
	}
	return w, nil
}

// WorkspaceCount returns _NET_NUMBER_OF_DESKTOPS.
func (b *LinuxBackend) WorkspaceCount() (int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	return conn.GetDesktopCount()
}

// SetWorkspace moves a window to a virtual desktop.
func (b *LinuxBackend) SetWorkspace(id WindowID, workspace int) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	if workspace < 0 {
		return fmt.Errorf("invalid workspace %d", workspace)
	}
	return conn.SetWindowDesktop(xproto.Window(id), uint32(workspace))
}

// Move moves a window's frame to x,y.
func (b *LinuxBackend) Move(id WindowID, x, y int) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MoveWindow(xproto.Window(id), x, y)
}

// MoveResize moves and resizes a window to the specified bounds.
func (b *LinuxBackend) MoveResize(id WindowID, bounds Rect) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MoveResizeWindow(xproto.Window(id), bounds.X, bounds.Y, bounds.Width, bounds.Height)
}

// Maximize sets the maximized state on the requested axes.
func (b *LinuxBackend) Maximize(id WindowID, flags MaximizeFlags) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.SetMaximized(xproto.Window(id), true, flags&MaximizeHorizontal != 0, flags&MaximizeVertical != 0)
}

// Unmaximize clears the maximized state on the requested axes.
func (b *LinuxBackend) Unmaximize(id WindowID, flags MaximizeFlags) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.SetMaximized(xproto.Window(id), false, flags&MaximizeHorizontal != 0, flags&MaximizeVertical != 0)
}

// Stick shows a window on all workspaces.
func (b *LinuxBackend) Stick(id WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.StickWindow(xproto.Window(id))
}

// Activate focuses and raises a window.
func (b *LinuxBackend) Activate(id WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.ActivateWindow(xproto.Window(id))
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func (b *LinuxBackend) describe(windowID xproto.Window) (Window, error) {
	conn := b.conn

	x, y, width, height, err := conn.GetWindowGeometry(windowID)
	if err != nil {
		return Window{}, err
	}

	instance, class, err := conn.GetWindowClass(windowID)
	if err != nil {
		instance, class = "", ""
	}

	workspace, err := conn.GetWindowDesktop(windowID)
	if err != nil {
		workspace = 0
	}

	state := conn.GetWindowState(windowID)

	return Window{
		ID:            WindowID(windowID),
		Instance:      instance,
		Class:         class,
		Title:         conn.GetWindowTitle(windowID),
		Bounds:        Rect{X: x, Y: y, Width: width, Height: height},
		Workspace:     workspace,
		Sticky:        state.Sticky || workspace == -1,
		MaximizedHorz: state.MaximizedHorz,
		MaximizedVert: state.MaximizedVert,
	}, nil
}
