package placement

import (
	"fmt"

	"github.com/1broseidon/deskplace/internal/config"
)

var presets = map[config.Action]Factors{
	config.ActionLeftHalf:  {X: 0, Y: 0, Width: 0.5, Height: 1},
	config.ActionRightHalf: {X: 0.5, Y: 0, Width: 0.5, Height: 1},
	config.ActionTopLeft:   {X: 0, Y: 0, Width: 0.5, Height: 0.5},
	config.ActionTopRight:  {X: 0.5, Y: 0, Width: 0.5, Height: 0.5},
	config.ActionLowLeft:   {X: 0, Y: 0.5, Width: 0.5, Height: 0.5},
	config.ActionLowRight:  {X: 0.5, Y: 0.5, Width: 0.5, Height: 0.5},
}

// PresetFor returns the factor tuple of a resize preset.
func PresetFor(a config.Action) (Factors, error) {
	f, ok := presets[a]
	if !ok {
		return Factors{}, fmt.Errorf("%q is not a resize preset", a)
	}
	return f, nil
}
