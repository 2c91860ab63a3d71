/*
Package relief derives shaded relief overlay tiles from Terrarium elevation
tiles.

Each 512 by 512 output pixel is computed from the 3 by 3 window of source
pixels centred on the matching pixel of the padded source tile. Two renderers
are available: a hillshade lit by two virtual light sources from the north
west and south west, and a plain blue ramp proportional to elevation.
*/
package relief

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/bodgit/hillshade/terrarium"
)

// Mode selects the renderer used for each output pixel.
type Mode int

const (
	// Hillshade shades terrain using two light sources
	Hillshade Mode = iota
	// RawHeightRamp maps elevation to the opacity of a blue overlay
	RawHeightRamp
)

var errUnknownMode = errors.New("relief: unknown render mode")

var modeNames = map[Mode]string{
	Hillshade:     "hillshade",
	RawHeightRamp: "height",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode returns the Mode with the given name as returned by String.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", errUnknownMode, s)
}

type renderer func(*terrarium.Tile, int, int) color.NRGBA

func (m Mode) renderer() renderer {
	switch m {
	case RawHeightRamp:
		return HeightRamp
	default:
		return Shade
	}
}

// Process renders t into a newly allocated output tile.
func Process(t *terrarium.Tile, mode Mode) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, terrarium.Size, terrarium.Size))
	ProcessInto(dst, t, mode)
	return dst
}

// ProcessInto renders t into dst which must be at least terrarium.Size
// pixels in each direction. Only the top-left terrarium.Size square of dst
// is written.
func ProcessInto(dst *image.NRGBA, t *terrarium.Tile, mode Mode) {
	render := mode.renderer()
	for row := 0; row < terrarium.Size; row++ {
		i := row * dst.Stride
		for col := 0; col < terrarium.Size; col++ {
			c := render(t, row, col)
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = c.A
			i += 4
		}
	}
}
