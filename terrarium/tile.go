package terrarium

import (
	"errors"
	"image"
	"image/draw"
)

var (
	// ErrTileSize is returned for a source tile smaller than PaddedSize
	ErrTileSize = errors.New("terrarium: tile is too small")

	// ErrOutOfBounds is returned when reading outside of a source image
	ErrOutOfBounds = errors.New("terrarium: read outside of image bounds")
)

// Tile is a padded source tile. The pixel at (0, 0) is the top-left corner
// of the padding ring, the region of interest starts at (Padding, Padding).
type Tile struct {
	m *image.NRGBA
}

// NewTile wraps m which must be at least PaddedSize pixels in each
// direction. m is used in place if its top-left corner is at the origin,
// otherwise it is copied.
func NewTile(m *image.NRGBA) (*Tile, error) {
	if m.Rect.Min != (image.Point{}) {
		return FromImage(m)
	}
	if m.Rect.Dx() < PaddedSize || m.Rect.Dy() < PaddedSize {
		return nil, ErrTileSize
	}
	return &Tile{m: m}, nil
}

// FromImage copies any image into a new Tile.
func FromImage(m image.Image) (*Tile, error) {
	b := m.Bounds()
	if b.Dx() < PaddedSize || b.Dy() < PaddedSize {
		return nil, ErrTileSize
	}

	dup := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dup, dup.Rect, m, b.Min, draw.Src)

	return &Tile{m: dup}, nil
}

// Image returns the underlying pixels.
func (t *Tile) Image() *image.NRGBA {
	return t.m
}

// Elevation returns the decoded elevation at column x, row y.
func (t *Tile) Elevation(x, y int) float64 {
	i := y*t.m.Stride + x<<2
	return Decode(t.m.Pix[i], t.m.Pix[i+1], t.m.Pix[i+2])
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Pad returns a copy of m grown by n pixels on every side, the new pixels
// replicate the nearest edge pixel. The result has its top-left corner at
// the origin.
func Pad(m image.Image, n int) *image.NRGBA {
	b := m.Bounds()
	dup := image.NewNRGBA(image.Rect(0, 0, b.Dx()+n<<1, b.Dy()+n<<1))
	draw.Draw(dup, dup.Rect.Inset(n), m, b.Min, draw.Src)

	for y := 0; y < dup.Rect.Dy(); y++ {
		sy := clamp(y, n, n+b.Dy()-1)
		for x := 0; x < dup.Rect.Dx(); x++ {
			sx := clamp(x, n, n+b.Dx()-1)
			if sx == x && sy == y {
				continue
			}
			copy(dup.Pix[dup.PixOffset(x, y):dup.PixOffset(x, y)+4], dup.Pix[dup.PixOffset(sx, sy):dup.PixOffset(sx, sy)+4])
		}
	}

	return dup
}

// ImageSource reads source tiles out of a single decoded image.
type ImageSource struct {
	Image image.Image
}

// Read returns the width by height region with its top-left corner at
// (x, y) relative to the image bounds.
func (s ImageSource) Read(x, y, width, height int) (*Tile, error) {
	b := s.Image.Bounds()
	r := image.Rect(x, y, x+width, y+height).Add(b.Min)
	if !r.In(b) {
		return nil, ErrOutOfBounds
	}
	if m, ok := s.Image.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return FromImage(m.SubImage(r))
	}
	dup := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dup, dup.Rect, s.Image, r.Min, draw.Src)
	return NewTile(dup)
}
