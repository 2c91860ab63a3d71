package hillshade

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/bodgit/hillshade/mbtiles"
	"github.com/bodgit/hillshade/relief"
	"github.com/bodgit/hillshade/terrarium"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "hillshade")
	require.Nil(t, err)
	return dir, func() {
		os.RemoveAll(dir)
	}
}

func openTileset(t *testing.T, dir, name string) *mbtiles.DB {
	db, err := mbtiles.Open(filepath.Join(dir, name))
	require.Nil(t, err)
	return db
}

func terrariumImage(f func(x, y int) float64) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, terrarium.Size, terrarium.Size))
	for y := 0; y < terrarium.Size; y++ {
		for x := 0; x < terrarium.Size; x++ {
			m.SetNRGBA(x, y, terrarium.Encode(f(x, y)))
		}
	}
	return m
}

func writeTerrarium(t *testing.T, db *mbtiles.DB, tile maptile.Tile, f func(x, y int) float64) {
	b := new(bytes.Buffer)
	require.Nil(t, png.Encode(b, terrariumImage(f)))
	require.Nil(t, db.WriteTile(tile, b.Bytes()))
}

func flat(h float64) func(int, int) float64 {
	return func(int, int) float64 {
		return h
	}
}

func TestFloorDiv(t *testing.T) {
	tables := []struct {
		a, b, want int
	}{
		{0, 512, 0},
		{511, 512, 0},
		{512, 512, 1},
		{-1, 512, -1},
		{-512, 512, -1},
		{-513, 512, -2},
	}

	for _, table := range tables {
		assert.Equal(t, table.want, floorDiv(table.a, table.b))
	}
}

func TestTileSource(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	db := openTileset(t, dir, "terrarium.mbtiles")
	defer db.Close()

	writeTerrarium(t, db, maptile.New(0, 0, 1), func(x, y int) float64 { return float64(100 + x) })
	writeTerrarium(t, db, maptile.New(1, 0, 1), func(x, y int) float64 { return float64(1000 + x) })
	writeTerrarium(t, db, maptile.New(1, 1, 1), func(x, y int) float64 { return float64(5000 + y) })
	require.Nil(t, db.WriteTile(maptile.New(0, 1, 1), []byte("garbage")))

	s := NewTileSource(db, 1)

	tile, err := s.Read(-2, -2, terrarium.PaddedSize, terrarium.PaddedSize)
	require.Nil(t, err)

	tables := []struct {
		x, y int
		want float64
	}{
		{2, 2, 100},
		{513, 2, 100 + 511},
		{514, 2, 1000},
		// Beyond the pole so clamped
		{0, 0, 100},
		// Wrapped around the antimeridian
		{0, 2, 1000 + 510},
		{515, 2, 1000 + 1},
		// Undecodable neighbour so clamped
		{2, 515, 100},
		{300, 514, 100 + 298},
		{515, 515, 5000 + 1},
	}

	for _, table := range tables {
		assert.Equal(t, table.want, tile.Elevation(table.x, table.y), "pixel (%d, %d)", table.x, table.y)
	}

	_, err = s.Read(-2, 510, terrarium.PaddedSize, terrarium.PaddedSize)
	assert.True(t, errors.Is(err, errUndecodableTile))

	_, err = s.Read(-2, 1022, terrarium.PaddedSize, terrarium.PaddedSize)
	assert.True(t, errors.Is(err, errMissingTile))
}

func TestTileSourceWrongSize(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	db := openTileset(t, dir, "terrarium.mbtiles")
	defer db.Close()

	b := new(bytes.Buffer)
	require.Nil(t, png.Encode(b, image.NewNRGBA(image.Rect(0, 0, 256, 256))))
	require.Nil(t, db.WriteTile(maptile.New(0, 0, 0), b.Bytes()))

	_, err := NewTileSource(db, 0).Read(-2, -2, terrarium.PaddedSize, terrarium.PaddedSize)
	assert.True(t, errors.Is(err, errUndecodableTile))
}

type sinkFunc func(maptile.Tile, orb.Bound, image.Image, float64) error

func (f sinkFunc) WriteTile(t maptile.Tile, extent orb.Bound, m image.Image, filterFactor float64) error {
	return f(t, extent, m, filterFactor)
}

func TestRenderTileset(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	src := openTileset(t, dir, "terrarium.mbtiles")
	defer src.Close()

	for _, tile := range []maptile.Tile{maptile.New(0, 0, 1), maptile.New(1, 0, 1), maptile.New(1, 1, 1)} {
		writeTerrarium(t, src, tile, flat(500))
	}
	require.Nil(t, src.WriteTile(maptile.New(0, 1, 1), []byte("garbage")))

	dst := openTileset(t, dir, "hillshade.mbtiles")
	defer dst.Close()

	b := new(bytes.Buffer)
	h := New(Config{Mode: relief.RawHeightRamp, Workers: 3, FilterFactor: 2}, log.New(b, "", 0))

	sink := NewTileSink(dst, "height", 0)
	require.Nil(t, h.RenderTileset(src, sink, 1))
	require.Nil(t, sink.Finalize())
	assert.Equal(t, 3, sink.Count())
	assert.Contains(t, b.String(), "Skipping tile 1/0/1")
	assert.Contains(t, b.String(), "Rendered 3 tiles, skipped 1")

	tiles, err := dst.Tiles(1)
	require.Nil(t, err)
	assert.Equal(t, []maptile.Tile{maptile.New(0, 0, 1), maptile.New(1, 0, 1), maptile.New(1, 1, 1)}, tiles)

	for _, tile := range tiles {
		data, err := dst.ReadTile(tile)
		require.Nil(t, err)
		m, err := png.Decode(bytes.NewReader(data))
		require.Nil(t, err)
		assert.Equal(t, image.Rect(0, 0, terrarium.Size, terrarium.Size), m.Bounds())
		assert.Equal(t, color.NRGBA{0, 0, 255, 127}, color.NRGBAModel.Convert(m.At(17, 300)))
	}

	for name, want := range map[string]string{
		"name":          "height",
		"format":        "png",
		"type":          "overlay",
		"minzoom":       "1",
		"maxzoom":       "1",
		"filter_factor": "2",
	} {
		v, err := dst.Metadata(name)
		require.Nil(t, err)
		assert.Equal(t, want, v, name)
	}

	v, err := dst.Metadata("bounds")
	require.Nil(t, err)
	bounds := strings.Split(v, ",")
	require.Len(t, bounds, 4)
	for i, want := range []float64{-180, -85.0511, 180, 85.0511} {
		f, err := strconv.ParseFloat(bounds[i], 64)
		require.Nil(t, err)
		assert.InDelta(t, want, f, 1e-4)
	}
}

func TestRenderTilesetSinkError(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	src := openTileset(t, dir, "terrarium.mbtiles")
	defer src.Close()

	for x := uint32(0); x < 4; x++ {
		writeTerrarium(t, src, maptile.New(x, 1, 2), flat(0))
	}

	h := New(Config{Workers: 2}, nil)
	err := h.RenderTileset(src, sinkFunc(func(tile maptile.Tile, extent orb.Bound, m image.Image, filterFactor float64) error {
		return errors.New("disk full")
	}), 2)
	assert.EqualError(t, err, "disk full")
}

func TestRenderTilesetExtent(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	src := openTileset(t, dir, "terrarium.mbtiles")
	defer src.Close()

	writeTerrarium(t, src, maptile.New(3, 2, 2), flat(0))

	h := New(Config{FilterFactor: 0.5}, nil)
	require.Nil(t, h.RenderTileset(src, sinkFunc(func(tile maptile.Tile, extent orb.Bound, m image.Image, filterFactor float64) error {
		assert.Equal(t, maptile.New(3, 2, 2), tile)
		assert.Equal(t, tile.Bound(), extent)
		assert.Equal(t, 0.5, filterFactor)
		assert.Equal(t, color.NRGBA{223, 222, 223, 0}, m.(*image.NRGBA).NRGBAAt(100, 100))
		return nil
	}), 2))
}

func TestRenderFile(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	src := openTileset(t, dir, "terrarium.mbtiles")
	writeTerrarium(t, src, maptile.New(0, 0, 0), func(x, y int) float64 { return float64(1000 + 5*y + x%7) })
	require.Nil(t, src.Close())

	h := New(Config{Colors: 16}, nil)
	require.Nil(t, h.RenderFile(filepath.Join(dir, "terrarium.mbtiles"), filepath.Join(dir, "hillshade.mbtiles"), 0))

	dst := openTileset(t, dir, "hillshade.mbtiles")
	defer dst.Close()

	data, err := dst.ReadTile(maptile.New(0, 0, 0))
	require.Nil(t, err)
	m, err := png.Decode(bytes.NewReader(data))
	require.Nil(t, err)
	_, ok := m.(*image.Paletted)
	assert.True(t, ok)

	v, err := dst.Metadata("name")
	require.Nil(t, err)
	assert.Equal(t, "hillshade", v)
}

func TestRenderImage(t *testing.T) {
	h := New(Config{}, nil)

	for _, m := range []image.Image{
		terrariumImage(flat(0)),
		terrarium.Pad(terrariumImage(flat(0)), terrarium.Padding),
	} {
		b := new(bytes.Buffer)
		require.Nil(t, h.RenderImage(b, m))

		d, err := png.Decode(b)
		require.Nil(t, err)
		nm, ok := d.(*image.NRGBA)
		require.True(t, ok)
		assert.Equal(t, image.Rect(0, 0, terrarium.Size, terrarium.Size), nm.Rect)
		assert.Equal(t, color.NRGBA{223, 222, 223, 0}, nm.NRGBAAt(0, 0))
		assert.Equal(t, color.NRGBA{223, 222, 223, 0}, nm.NRGBAAt(511, 511))
	}

	err := h.RenderImage(new(bytes.Buffer), image.NewNRGBA(image.Rect(0, 0, 100, 100)))
	assert.Equal(t, errNoOutput, err)
}

func TestMergeErrors(t *testing.T) {
	c1 := make(chan error, 1)
	c2 := make(chan error, 1)
	c1 <- nil
	c2 <- errors.New("boom")
	close(c1)
	close(c2)

	assert.EqualError(t, waitForPipeline(c1, c2), "boom")

	c3 := make(chan error)
	close(c3)
	assert.Nil(t, waitForPipeline(c3))
}
