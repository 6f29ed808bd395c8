// Package monitors maps the platform's monitor enumeration onto a stable
// reading order: left to right, then top to bottom.
package monitors

import (
	"errors"
	"fmt"
	"sort"

	"github.com/1broseidon/deskplace/internal/platform"
)

// ErrMonitorNotFound is returned when a custom index has no monitor.
var ErrMonitorNotFound = errors.New("monitor not found")

// Source is the part of platform.Backend the normalizer reads.
type Source interface {
	Monitors() ([]platform.Monitor, error)
}

// Layout is the result of one normalization pass. Custom indices are only
// meaningful against the monitor set that produced them.
type Layout struct {
	raw   []platform.Monitor
	order []int // custom index -> raw index
}

// Normalize queries the current monitors and assigns custom indices.
func Normalize(src Source) (Layout, error) {
	raw, err := src.Monitors()
	if err != nil {
		return Layout{}, fmt.Errorf("query monitors: %w", err)
	}
	return NewLayout(raw), nil
}

// NewLayout sorts raw by x ascending, breaking ties by y ascending. Monitors
// with identical origins keep their enumeration order.
func NewLayout(raw []platform.Monitor) Layout {
	l := Layout{
		raw:   make([]platform.Monitor, len(raw)),
		order: make([]int, len(raw)),
	}
	copy(l.raw, raw)
	for i := range l.order {
		l.order[i] = i
	}

	sort.SliceStable(l.order, func(i, j int) bool {
		a := l.raw[l.order[i]].Bounds
		b := l.raw[l.order[j]].Bounds
		if a.X == b.X {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return l
}

// Len returns the number of monitors.
func (l Layout) Len() int {
	return len(l.order)
}

// Lookup returns the monitor assigned to a custom index.
func (l Layout) Lookup(custom int) (platform.Monitor, error) {
	raw, ok := l.RawIndex(custom)
	if !ok {
		return platform.Monitor{}, fmt.Errorf("custom index %d (have %d): %w", custom, len(l.order), ErrMonitorNotFound)
	}
	return l.raw[raw], nil
}

// RawIndex maps a custom index back to the platform's enumeration position.
func (l Layout) RawIndex(custom int) (int, bool) {
	if custom < 0 || custom >= len(l.order) {
		return 0, false
	}
	return l.order[custom], true
}

// CustomIndex is the inverse of RawIndex.
func (l Layout) CustomIndex(raw int) (int, bool) {
	for custom, r := range l.order {
		if r == raw {
			return custom, true
		}
	}
	return 0, false
}

// Monitors returns the monitors in custom index order.
func (l Layout) Monitors() []platform.Monitor {
	out := make([]platform.Monitor, len(l.order))
	for custom, raw := range l.order {
		out[custom] = l.raw[raw]
	}
	return out
}

// Raw returns the monitors in platform enumeration order.
func (l Layout) Raw() []platform.Monitor {
	out := make([]platform.Monitor, len(l.raw))
	copy(out, l.raw)
	return out
}

// Containing returns the monitor holding the center of r.
func Containing(list []platform.Monitor, r platform.Rect) (platform.Monitor, bool) {
	cx, cy := r.Center()
	for _, m := range list {
		if m.Bounds.Contains(cx, cy) {
			return m, true
		}
	}
	return platform.Monitor{}, false
}
