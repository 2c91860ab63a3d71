package relief

import (
	"image/color"
	"math"

	"github.com/bodgit/hillshade/terrarium"
)

type light struct {
	azimuth   float64 // degrees
	elevation float64 // degrees

	// Derived from the above
	azimuthOffset float64
	sinZenith     float64
	cosZenith     float64
}

func newLight(azimuth, elevation float64) light {
	e := elevation * math.Pi / 180
	return light{
		azimuth:       azimuth,
		elevation:     elevation,
		azimuthOffset: (azimuth - 90) * math.Pi / 180,
		sinZenith:     math.Sin(math.Pi/2 - e),
		cosZenith:     math.Cos(math.Pi/2 - e),
	}
}

var (
	northWest = newLight(315, 45)
	southWest = newLight(225, 45)
)

// luminance returns the brightness of a surface lit by l as an 8-bit value.
// Surfaces facing away from l are floored at an ambient level.
func (l light) luminance(slope, aspect float64) uint8 {
	v := math.Cos(math.Pi/2-aspect-l.azimuthOffset)*math.Sin(slope)*l.sinZenith + math.Cos(slope)*l.cosZenith
	v = math.Max(v, 0)
	return uint8(math.Min(math.Sqrt(v*0.8+0.2)*255, 255))
}

// blend adds two colors channel by channel, wrapping on overflow.
func blend(c1, c2 color.NRGBA) color.NRGBA {
	return color.NRGBA{
		R: c1.R + c2.R,
		G: c1.G + c2.G,
		B: c1.B + c2.B,
		A: c1.A + c2.A,
	}
}

// alpha makes anything at sea level transparent, fading to opaque at 120m.
func alpha(h float64) uint8 {
	return uint8(math.Max(0, math.Min((h-20)/100*255, 255)))
}

// Shade returns the hillshaded output pixel at the given row and column.
func Shade(t *terrarium.Tile, row, col int) color.NRGBA {
	slope, aspect := Gradient(t, row, col)

	l1 := northWest.luminance(slope, aspect)
	l2 := southWest.luminance(slope, aspect)

	c := blend(color.NRGBA{R: l1, G: l1 / 2}, color.NRGBA{G: l2 / 2, B: l2})
	c.A = alpha(t.Elevation(col+terrarium.Padding, row+terrarium.Padding))

	return c
}

// HeightRamp returns a blue pixel whose opacity is proportional to the
// elevation at the given row and column, saturating at 1000m.
func HeightRamp(t *terrarium.Tile, row, col int) color.NRGBA {
	h := t.Elevation(col+terrarium.Padding, row+terrarium.Padding)
	return color.NRGBA{
		B: 0xff,
		A: uint8(math.Max(0, math.Min(h/1000, 1)) * 255),
	}
}
