package hillshade

import (
	"bytes"
	"fmt"
	"image"
	"strconv"
	"sync"

	"github.com/bodgit/hillshade/mbtiles"
	"github.com/bodgit/hillshade/overlay"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// Sink receives each rendered tile along with its geographic extent and the
// filter factor to use when resampling it.
type Sink interface {
	WriteTile(t maptile.Tile, extent orb.Bound, m image.Image, filterFactor float64) error
}

// TileSink writes rendered tiles as PNG images into an MBTiles tileset. It
// is safe for concurrent use.
type TileSink struct {
	db     *mbtiles.DB
	name   string
	colors int

	mu           sync.Mutex
	count        int
	bound        orb.Bound
	minZoom      maptile.Zoom
	maxZoom      maptile.Zoom
	filterFactor float64
}

// NewTileSink returns a TileSink writing into db. If colors is greater than
// zero each tile is palette reduced to that many colors.
func NewTileSink(db *mbtiles.DB, name string, colors int) *TileSink {
	return &TileSink{
		db:     db,
		name:   name,
		colors: colors,
	}
}

// WriteTile encodes m and stores it as tile t.
func (s *TileSink) WriteTile(t maptile.Tile, extent orb.Bound, m image.Image, filterFactor float64) error {
	b := new(bytes.Buffer)
	if err := overlay.Encode(b, m, s.colors); err != nil {
		return err
	}

	if err := s.db.WriteTile(t, b.Bytes()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		s.bound, s.minZoom, s.maxZoom = extent, t.Z, t.Z
	} else {
		s.bound = s.bound.Union(extent)
		if t.Z < s.minZoom {
			s.minZoom = t.Z
		}
		if t.Z > s.maxZoom {
			s.maxZoom = t.Z
		}
	}
	s.filterFactor = filterFactor
	s.count++

	return nil
}

// Count returns the number of tiles written so far.
func (s *TileSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Finalize writes the tileset metadata describing every tile written so
// far. It does nothing if no tiles have been written.
func (s *TileSink) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		return nil
	}

	metadata := [][2]string{
		{"name", s.name},
		{"format", "png"},
		{"type", "overlay"},
		{"bounds", fmt.Sprintf("%s,%s,%s,%s", formatFloat(s.bound.Left()), formatFloat(s.bound.Bottom()), formatFloat(s.bound.Right()), formatFloat(s.bound.Top()))},
		{"minzoom", strconv.Itoa(int(s.minZoom))},
		{"maxzoom", strconv.Itoa(int(s.maxZoom))},
		{"filter_factor", formatFloat(s.filterFactor)},
	}

	for _, m := range metadata {
		if err := s.db.SetMetadata(m[0], m[1]); err != nil {
			return err
		}
	}

	return nil
}
