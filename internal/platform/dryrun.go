package platform

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DryRunBackend snapshots a real backend on first use and then applies all
// mutations to an in-memory copy, logging each one instead of performing it.
type DryRunBackend struct {
	real Backend
	log  *zap.SugaredLogger

	once   sync.Once
	err    error
	shadow *MemoryBackend
}

var _ Backend = (*DryRunBackend)(nil)

// NewDryRunBackend wraps real. Nothing is read from real until the first call.
func NewDryRunBackend(real Backend, log *zap.SugaredLogger) *DryRunBackend {
	return &DryRunBackend{real: real, log: log}
}

func (d *DryRunBackend) load() (*MemoryBackend, error) {
	d.once.Do(func() {
		monitors, err := d.real.Monitors()
		if err != nil {
			d.err = fmt.Errorf("snapshot monitors: %w", err)
			return
		}
		windows, err := d.real.Windows()
		if err != nil {
			d.err = fmt.Errorf("snapshot windows: %w", err)
			return
		}
		count, err := d.real.WorkspaceCount()
		if err != nil {
			d.err = fmt.Errorf("snapshot workspaces: %w", err)
			return
		}
		d.shadow = NewMemoryBackend(monitors, windows, count)
	})
	return d.shadow, d.err
}

func (d *DryRunBackend) Monitors() ([]Monitor, error) {
	s, err := d.load()
	if err != nil {
		return nil, err
	}
	return s.Monitors()
}

func (d *DryRunBackend) Windows() ([]Window, error) {
	s, err := d.load()
	if err != nil {
		return nil, err
	}
	return s.Windows()
}

func (d *DryRunBackend) Window(id WindowID) (Window, error) {
	s, err := d.load()
	if err != nil {
		return Window{}, err
	}
	return s.Window(id)
}

func (d *DryRunBackend) WorkspaceCount() (int, error) {
	s, err := d.load()
	if err != nil {
		return 0, err
	}
	return s.WorkspaceCount()
}

func (d *DryRunBackend) SetWorkspace(id WindowID, workspace int) error {
	d.log.Infow("DRY-RUN set workspace", "window", id, "workspace", workspace)
	return d.apply(func(s *MemoryBackend) error { return s.SetWorkspace(id, workspace) })
}

func (d *DryRunBackend) Move(id WindowID, x, y int) error {
	d.log.Infow("DRY-RUN move", "window", id, "x", x, "y", y)
	return d.apply(func(s *MemoryBackend) error { return s.Move(id, x, y) })
}

func (d *DryRunBackend) MoveResize(id WindowID, bounds Rect) error {
	d.log.Infow("DRY-RUN move/resize", "window", id,
		"x", bounds.X, "y", bounds.Y, "width", bounds.Width, "height", bounds.Height)
	return d.apply(func(s *MemoryBackend) error { return s.MoveResize(id, bounds) })
}

func (d *DryRunBackend) Maximize(id WindowID, flags MaximizeFlags) error {
	d.log.Infow("DRY-RUN maximize", "window", id, "flags", flags)
	return d.apply(func(s *MemoryBackend) error { return s.Maximize(id, flags) })
}

func (d *DryRunBackend) Unmaximize(id WindowID, flags MaximizeFlags) error {
	d.log.Infow("DRY-RUN unmaximize", "window", id, "flags", flags)
	return d.apply(func(s *MemoryBackend) error { return s.Unmaximize(id, flags) })
}

func (d *DryRunBackend) Stick(id WindowID) error {
	d.log.Infow("DRY-RUN stick", "window", id)
	return d.apply(func(s *MemoryBackend) error { return s.Stick(id) })
}

func (d *DryRunBackend) Activate(id WindowID) error {
	d.log.Infow("DRY-RUN activate", "window", id)
	return d.apply(func(s *MemoryBackend) error { return s.Activate(id) })
}

func (d *DryRunBackend) apply(fn func(s *MemoryBackend) error) error {
	s, err := d.load()
	if err != nil {
		return err
	}
	return fn(s)
}
