package relief

import (
	"math"

	"github.com/bodgit/hillshade/terrarium"
)

// Slope exaggeration calibrated against the fixed pixel spacing of a tile
const exaggeration = 0.2

// Gradient returns the slope and aspect, both in radians, at the given row
// and column of the region of interest of t.
func Gradient(t *terrarium.Tile, row, col int) (slope, aspect float64) {
	y, x := row+terrarium.Padding, col+terrarium.Padding

	dzdx := t.Elevation(x+1, y) - t.Elevation(x-1, y)
	dzdy := t.Elevation(x, y+1) - t.Elevation(x, y-1)

	slope = math.Atan(exaggeration * math.Sqrt(dzdx*dzdx+dzdy*dzdy))
	aspect = math.Atan2(-dzdy, -dzdx)

	return
}
