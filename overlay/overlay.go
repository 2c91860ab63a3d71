/*
Package overlay implements encoding of rendered relief tiles.

Tiles are written as PNG, either as full 32-bit color or palette reduced with
a median cut quantizer which typically shrinks a hillshade tile considerably
as it contains few distinct colors.
*/
package overlay

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
)

const maxColors = 256

// ErrColors is returned for a palette size that a PNG cannot hold
var ErrColors = errors.New("overlay: colors must be between 2 and 256")

// Quantize returns m reduced to a palette of no more than colors entries.
func Quantize(m image.Image, colors int) (*image.Paletted, error) {
	if colors < 2 || colors > maxColors {
		return nil, ErrColors
	}

	b := m.Bounds()

	// Already paletted with few enough colors
	if pm, ok := m.(*image.Paletted); ok && len(pm.Palette) <= colors {
		return pm, nil
	}

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, colors), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)

	return pm, nil
}

// Encode writes m to w as a PNG. If colors is greater than zero the image is
// first palette reduced to that many colors.
func Encode(w io.Writer, m image.Image, colors int) error {
	if colors > 0 {
		pm, err := Quantize(m, colors)
		if err != nil {
			return err
		}
		m = pm
	}

	e := png.Encoder{CompressionLevel: png.BestCompression}

	return e.Encode(w, m)
}
