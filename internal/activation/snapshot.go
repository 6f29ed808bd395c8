package activation

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/1broseidon/deskplace/internal/monitors"
	"github.com/1broseidon/deskplace/internal/platform"
	"github.com/1broseidon/deskplace/internal/windows"
)

// MonitorInfo describes one monitor with both of its indices.
type MonitorInfo struct {
	Screen   int    `json:"screen"`
	RawIndex int    `json:"raw_index"`
	Name     string `json:"name"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// WindowInfo describes one client window as rules see it.
type WindowInfo struct {
	ID        uint32 `json:"id"`
	Class     string `json:"class"`
	Instance  string `json:"instance"`
	ClassName string `json:"class_name"`
	Title     string `json:"title"`
	Workspace int    `json:"workspace"`
	Sticky    bool   `json:"sticky"`
	Maximized bool   `json:"maximized"`
	Screen    int    `json:"screen"` // -1 when off every monitor
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Snapshot is the platform state at one instant.
type Snapshot struct {
	Monitors   []MonitorInfo `json:"monitors"`
	Windows    []WindowInfo  `json:"windows"`
	Workspaces int           `json:"workspaces"`
}

// TakeSnapshot queries monitors, windows and workspaces once.
func TakeSnapshot(b platform.Backend) (*Snapshot, error) {
	layout, err := monitors.Normalize(b)
	if err != nil {
		return nil, err
	}
	wins, err := b.Windows()
	if err != nil {
		return nil, fmt.Errorf("query windows: %w", err)
	}
	count, err := b.WorkspaceCount()
	if err != nil {
		return nil, fmt.Errorf("query workspaces: %w", err)
	}

	snap := &Snapshot{Workspaces: count}
	ordered := layout.Monitors()
	for screen, m := range ordered {
		snap.Monitors = append(snap.Monitors, MonitorInfo{
			Screen:   screen,
			RawIndex: m.Index,
			Name:     m.Name,
			X:        m.Bounds.X,
			Y:        m.Bounds.Y,
			Width:    m.Bounds.Width,
			Height:   m.Bounds.Height,
		})
	}

	for _, w := range wins {
		screen := -1
		if m, ok := monitors.Containing(layout.Raw(), w.Bounds); ok {
			if s, ok := layout.CustomIndex(m.Index); ok {
				screen = s
			}
		}
		snap.Windows = append(snap.Windows, WindowInfo{
			ID:        uint32(w.ID),
			Class:     windows.ClassOf(w),
			Instance:  w.Instance,
			ClassName: w.Class,
			Title:     w.Title,
			Workspace: w.Workspace,
			Sticky:    w.Sticky,
			Maximized: w.Maximized(),
			Screen:    screen,
			X:         w.Bounds.X,
			Y:         w.Bounds.Y,
			Width:     w.Bounds.Width,
			Height:    w.Bounds.Height,
		})
	}
	return snap, nil
}

// Log writes the snapshot at info level, one entry per monitor and window,
// so the screen numbering rules refer to is visible at the default level.
func (s *Snapshot) Log(log *zap.SugaredLogger) {
	log.Infow("workspaces", "count", s.Workspaces)
	for _, m := range s.Monitors {
		log.Infow("monitor",
			"screen", m.Screen,
			"raw_index", m.RawIndex,
			"name", m.Name,
			"geometry", fmt.Sprintf("%dx%d+%d+%d", m.Width, m.Height, m.X, m.Y),
		)
	}
	for _, w := range s.Windows {
		log.Infow("window",
			"id", fmt.Sprintf("0x%x", w.ID),
			"class", w.Class,
			"title", w.Title,
			"workspace", w.Workspace,
			"screen", w.Screen,
		)
	}
}
