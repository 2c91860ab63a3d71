/*
Package terrarium implements decoding of Terrarium elevation tiles.

A Terrarium tile packs a signed elevation in meters into the red, green and
blue channels of each pixel:

	elevation = red*256 + green + blue/256 - 32768

Source tiles handled by this package are 516 by 516 pixels; the 512 by 512
tile of interest is surrounded by a 2 pixel ring of overlap copied from the
neighbouring tiles so that every pixel of interest can sample its immediate
neighbours.
*/
package terrarium

import (
	"image/color"
	"math"
)

const (
	// Size is the width and height of the region of interest
	Size = 512

	// Padding is the overlap on each side of the region of interest
	Padding = 2

	// PaddedSize is the minimum width and height of a source tile
	PaddedSize = Size + Padding<<1

	offset = 32768
)

// Decode returns the elevation in meters encoded by the given channel values.
//
// The blue channel is divided by 256 using integer division so it never
// contributes; this matches the existing corpus of rendered tiles bit for
// bit.
func Decode(r, g, b uint8) float64 {
	return float64(int(r)*256 + int(g) + int(b)/256 - offset)
}

// DecodeColor is like Decode but takes any color, ignoring its alpha.
func DecodeColor(c color.Color) float64 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Decode(n.R, n.G, n.B)
}

// Encode returns the opaque Terrarium pixel for elevation h. Elevations
// outside of the representable range are clamped.
func Encode(h float64) color.NRGBA {
	v := math.Max(0, math.Min(h+offset, 1<<16-1.0/256))
	i, f := math.Modf(v)
	return color.NRGBA{
		R: uint8(int(i) >> 8),
		G: uint8(int(i) & 0xff),
		B: uint8(f * 256),
		A: 0xff,
	}
}
