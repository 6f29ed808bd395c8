package placement

import (
	"errors"
	"fmt"
	"math"

	"github.com/1broseidon/deskplace/internal/platform"
)

// ErrInvalidGeometry is returned when a rectangle fails the x>=0, y>=0,
// width>0, height>0 check.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Factors position a frame relative to a monitor, each as a fraction of the
// monitor's width or height. Values outside [0,1] are allowed.
type Factors struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Geometry is an unrounded target frame in pixels.
type Geometry struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Compute scales f against monitor bounds.
func Compute(monitor platform.Rect, f Factors) Geometry {
	mw := float64(monitor.Width)
	mh := float64(monitor.Height)
	return Geometry{
		X:      float64(monitor.X) + mw*f.X,
		Y:      float64(monitor.Y) + mh*f.Y,
		Width:  mw * f.Width,
		Height: mh * f.Height,
	}
}

// Valid reports whether g can be handed to a move or resize.
func (g Geometry) Valid() bool {
	return g.X >= 0 && g.Y >= 0 && g.Width > 0 && g.Height > 0
}

// Check returns ErrInvalidGeometry wrapped with the offending values.
func (g Geometry) Check() error {
	if g.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidGeometry, g)
}

// Rect rounds g to whole pixels. Width and height are rounded from the far
// edge so adjacent presets share a border without a gap.
func (g Geometry) Rect() platform.Rect {
	x := math.Round(g.X)
	y := math.Round(g.Y)
	return platform.Rect{
		X:      int(x),
		Y:      int(y),
		Width:  int(math.Round(g.X+g.Width) - x),
		Height: int(math.Round(g.Y+g.Height) - y),
	}
}

func (g Geometry) String() string {
	return fmt.Sprintf("%gx%g+%g+%g", g.Width, g.Height, g.X, g.Y)
}

// Origin is the geometry used when a window is first moved to a monitor:
// the monitor's own bounds. Only the position is applied.
func Origin(monitor platform.Rect) Geometry {
	return Compute(monitor, Factors{Width: 1, Height: 1})
}
