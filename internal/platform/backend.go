package platform

import "errors"

// ErrNoSuchWindow is returned when a window handle no longer refers to a live window.
var ErrNoSuchWindow = errors.New("no such window")

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Center returns the midpoint of r.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Monitor is a snapshot of one display output. Index is the position in the
// platform's own enumeration order for the query that produced it.
type Monitor struct {
	Index  int
	Name   string
	Bounds Rect
}

// Window is a snapshot of a top-level window.
type Window struct {
	ID WindowID
	// Instance and Class are the two WM_CLASS fields. Instance is the
	// preferred identifier; Class is the fallback when Instance is empty.
	Instance  string
	Class     string
	Title     string
	Bounds    Rect
	Workspace int // -1 when the platform reports only "all workspaces"
	Sticky    bool

	MaximizedHorz bool
	MaximizedVert bool
}

// Maximized reports whether both axes are maximized.
func (w Window) Maximized() bool {
	return w.MaximizedHorz && w.MaximizedVert
}

// MaximizeFlags selects the axes affected by Maximize and Unmaximize.
type MaximizeFlags uint8

const (
	MaximizeHorizontal MaximizeFlags = 1 << iota
	MaximizeVertical

	MaximizeBoth = MaximizeHorizontal | MaximizeVertical
)

// Backend is the window-system capability surface. Every query returns a
// fresh snapshot; implementations must not cache across calls.
type Backend interface {
	Monitors() ([]Monitor, error)
	Windows() ([]Window, error)
	Window(id WindowID) (Window, error)
	WorkspaceCount() (int, error)

	SetWorkspace(id WindowID, workspace int) error
	Move(id WindowID, x, y int) error
	MoveResize(id WindowID, bounds Rect) error
	Maximize(id WindowID, flags MaximizeFlags) error
	Unmaximize(id WindowID, flags MaximizeFlags) error
	Stick(id WindowID) error
	Activate(id WindowID) error
}
