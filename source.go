package hillshade

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/png"

	"github.com/bodgit/hillshade/mbtiles"
	"github.com/bodgit/hillshade/terrarium"
	"github.com/paulmach/orb/maptile"
	_ "golang.org/x/image/webp"
)

var (
	errMissingTile     = errors.New("hillshade: missing source tile")
	errUndecodableTile = errors.New("hillshade: undecodable source tile")
)

// TileSource reads padded source tiles out of an MBTiles tileset of
// Terrarium tiles at a single zoom level. Coordinates passed to Read are
// global pixel coordinates at that zoom level.
//
// Columns wrap around the antimeridian. Any pixel that falls inside a
// neighbouring tile that is missing, undecodable, or beyond either pole is
// taken from the nearest edge of the tile at the centre of the region.
type TileSource struct {
	db   *mbtiles.DB
	zoom maptile.Zoom
}

// NewTileSource returns a TileSource reading tiles from db at zoom level z.
func NewTileSource(db *mbtiles.DB, z maptile.Zoom) *TileSource {
	return &TileSource{
		db:   db,
		zoom: z,
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func (s *TileSource) tiles() int {
	return 1 << uint(s.zoom)
}

// load returns the decoded tile in column tx, row ty. A nil image with no
// error is returned if the tile doesn't exist.
func (s *TileSource) load(tx, ty int) (*image.NRGBA, error) {
	n := s.tiles()
	if ty < 0 || ty >= n {
		return nil, nil
	}
	tx = (tx%n + n) % n

	b, err := s.db.ReadTile(maptile.New(uint32(tx), uint32(ty), s.zoom))
	if err != nil || b == nil {
		return nil, err
	}

	m, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errUndecodableTile, err)
	}

	r := m.Bounds()
	if r.Dx() != terrarium.Size || r.Dy() != terrarium.Size {
		return nil, fmt.Errorf("%w: size is %dx%d", errUndecodableTile, r.Dx(), r.Dy())
	}

	dup := image.NewNRGBA(image.Rect(0, 0, terrarium.Size, terrarium.Size))
	draw.Draw(dup, dup.Rect, m, r.Min, draw.Src)

	return dup, nil
}

// Read returns the width by height region with its top-left corner at
// (x, y).
func (s *TileSource) Read(x, y, width, height int) (*terrarium.Tile, error) {
	cx := floorDiv(x+width>>1, terrarium.Size)
	cy := floorDiv(y+height>>1, terrarium.Size)

	centre, err := s.load(cx, cy)
	if err != nil {
		return nil, fmt.Errorf("tile %d/%d/%d: %w", s.zoom, cx, cy, err)
	}
	if centre == nil {
		return nil, fmt.Errorf("%w: %d/%d/%d", errMissingTile, s.zoom, cx, cy)
	}

	minX, minY := floorDiv(x, terrarium.Size), floorDiv(y, terrarium.Size)
	maxX, maxY := floorDiv(x+width-1, terrarium.Size), floorDiv(y+height-1, terrarium.Size)

	tiles := make(map[image.Point]*image.NRGBA)
	for ty := minY; ty <= maxY; ty++ {
		for tx := minX; tx <= maxX; tx++ {
			if tx == cx && ty == cy {
				tiles[image.Pt(tx, ty)] = centre
				continue
			}
			m, err := s.load(tx, ty)
			if err != nil {
				if errors.Is(err, errUndecodableTile) {
					continue
				}
				return nil, err
			}
			if m != nil {
				tiles[image.Pt(tx, ty)] = m
			}
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			gx, gy := x+i, y+j
			tx, ty := floorDiv(gx, terrarium.Size), floorDiv(gy, terrarium.Size)

			m, ok := tiles[image.Pt(tx, ty)]
			if !ok {
				m, tx, ty = centre, cx, cy
				gx = clamp(gx, cx*terrarium.Size, cx*terrarium.Size+terrarium.Size-1)
				gy = clamp(gy, cy*terrarium.Size, cy*terrarium.Size+terrarium.Size-1)
			}

			o := m.PixOffset(gx-tx*terrarium.Size, gy-ty*terrarium.Size)
			copy(dst.Pix[dst.PixOffset(i, j):dst.PixOffset(i, j)+4], m.Pix[o:o+4])
		}
	}

	return terrarium.NewTile(dst)
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
