package platform

import (
	"fmt"
	"sync"
)

// Call records one mutation issued against a MemoryBackend.
type Call struct {
	Op     string
	Window WindowID
	Args   []int
}

// MemoryBackend is an in-memory window system. Mutations become visible
// after Lag subsequent window queries, mimicking a window manager that
// applies requests asynchronously.
type MemoryBackend struct {
	mu         sync.Mutex
	monitors   []Monitor
	windows    []Window
	workspaces int
	calls      []Call
	pending    []pendingChange

	// Lag is the number of window queries a mutation stays invisible for.
	Lag int
}

type pendingChange struct {
	remaining int
	apply     func()
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates a backend with the given monitors (in enumeration
// order), windows (in client-list order) and workspace count.
func NewMemoryBackend(monitors []Monitor, windows []Window, workspaces int) *MemoryBackend {
	mons := make([]Monitor, len(monitors))
	copy(mons, monitors)
	for i := range mons {
		mons[i].Index = i
	}
	wins := make([]Window, len(windows))
	copy(wins, windows)
	return &MemoryBackend{
		monitors:   mons,
		windows:    wins,
		workspaces: workspaces,
	}
}

// Calls returns the mutations issued so far, in order.
func (m *MemoryBackend) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsFor returns the mutations issued against one window.
func (m *MemoryBackend) CallsFor(id WindowID) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if c.Window == id {
			out = append(out, c)
		}
	}
	return out
}

// SetMonitors replaces the monitor set, as after a hotplug.
func (m *MemoryBackend) SetMonitors(monitors []Monitor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.monitors = make([]Monitor, len(monitors))
	copy(m.monitors, monitors)
	for i := range m.monitors {
		m.monitors[i].Index = i
	}
}

// CloseWindow removes a window immediately.
func (m *MemoryBackend) CloseWindow(id WindowID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.windows {
		if m.windows[i].ID == id {
			m.windows = append(m.windows[:i], m.windows[i+1:]...)
			return
		}
	}
}

func (m *MemoryBackend) Monitors() ([]Monitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Monitor, len(m.monitors))
	copy(out, m.monitors)
	return out, nil
}

func (m *MemoryBackend) Windows() ([]Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickLocked()
	out := make([]Window, len(m.windows))
	copy(out, m.windows)
	return out, nil
}

func (m *MemoryBackend) Window(id WindowID) (Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickLocked()
	w := m.findLocked(id)
	if w == nil {
		return Window{}, fmt.Errorf("window 0x%x: %w", uint32(id), ErrNoSuchWindow)
	}
	return *w, nil
}

func (m *MemoryBackend) WorkspaceCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.workspaces, nil
}

func (m *MemoryBackend) SetWorkspace(id WindowID, workspace int) error {
	return m.mutate("set_workspace", id, []int{workspace}, func(w *Window) error {
		if workspace < 0 || workspace >= m.workspaces {
			return fmt.Errorf("invalid workspace %d", workspace)
		}
		return nil
	}, func(w *Window) {
		w.Workspace = workspace
		w.Sticky = false
	})
}

func (m *MemoryBackend) Move(id WindowID, x, y int) error {
	return m.mutate("move", id, []int{x, y}, nil, func(w *Window) {
		w.Bounds.X = x
		w.Bounds.Y = y
	})
}

func (m *MemoryBackend) MoveResize(id WindowID, bounds Rect) error {
	args := []int{bounds.X, bounds.Y, bounds.Width, bounds.Height}
	return m.mutate("move_resize", id, args, nil, func(w *Window) {
		// A maximized window ignores geometry requests.
		if w.MaximizedHorz || w.MaximizedVert {
			return
		}
		w.Bounds = bounds
	})
}

func (m *MemoryBackend) Maximize(id WindowID, flags MaximizeFlags) error {
	return m.mutate("maximize", id, []int{int(flags)}, nil, func(w *Window) {
		if flags&MaximizeHorizontal != 0 {
			w.MaximizedHorz = true
		}
		if flags&MaximizeVertical != 0 {
			w.MaximizedVert = true
		}
	})
}

func (m *MemoryBackend) Unmaximize(id WindowID, flags MaximizeFlags) error {
	return m.mutate("unmaximize", id, []int{int(flags)}, nil, func(w *Window) {
		if flags&MaximizeHorizontal != 0 {
			w.MaximizedHorz = false
		}
		if flags&MaximizeVertical != 0 {
			w.MaximizedVert = false
		}
	})
}

func (m *MemoryBackend) Stick(id WindowID) error {
	return m.mutate("stick", id, nil, nil, func(w *Window) {
		w.Sticky = true
	})
}

func (m *MemoryBackend) Activate(id WindowID) error {
	return m.mutate("activate", id, nil, nil, func(w *Window) {})
}

func (m *MemoryBackend) mutate(op string, id WindowID, args []int, check func(w *Window) error, apply func(w *Window)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.findLocked(id)
	if w == nil {
		return fmt.Errorf("%s 0x%x: %w", op, uint32(id), ErrNoSuchWindow)
	}
	if check != nil {
		if err := check(w); err != nil {
			return err
		}
	}
	m.calls = append(m.calls, Call{Op: op, Window: id, Args: args})

	change := func() {
		if target := m.findLocked(id); target != nil {
			apply(target)
		}
	}
	if m.Lag <= 0 {
		change()
		return nil
	}
	m.pending = append(m.pending, pendingChange{remaining: m.Lag, apply: change})
	return nil
}

func (m *MemoryBackend) tickLocked() {
	if len(m.pending) == 0 {
		return
	}
	kept := m.pending[:0]
	for _, p := range m.pending {
		p.remaining--
		if p.remaining <= 0 {
			p.apply()
			continue
		}
		kept = append(kept, p)
	}
	m.pending = kept
}

func (m *MemoryBackend) findLocked(id WindowID) *Window {
	for i := range m.windows {
		if m.windows[i].ID == id {
			return &m.windows[i]
		}
	}
	return nil
}
