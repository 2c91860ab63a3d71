/*
Package hillshade is a library for rendering shaded relief overlays from
Terrarium elevation tiles.
*/
package hillshade

import (
	"errors"
	"image"
	"io"
	"io/ioutil"
	"log"

	"github.com/bodgit/hillshade/mbtiles"
	"github.com/bodgit/hillshade/overlay"
	"github.com/bodgit/hillshade/relief"
	"github.com/bodgit/hillshade/terrarium"
	"github.com/paulmach/orb/maptile"
)

const defaultWorkers = 10

var errNoOutput = errors.New("hillshade: no tile produced")

// Config holds the rendering options.
type Config struct {
	// Mode selects the renderer
	Mode relief.Mode

	// Workers is the number of tiles rendered concurrently by RenderTileset,
	// it defaults to 10
	Workers int

	// Colors palette reduces each output tile if greater than zero
	Colors int

	// FilterFactor is passed to the sink with each tile
	FilterFactor float64
}

type Hillshade struct {
	config    Config
	processor *relief.Processor
	logger    *log.Logger
}

func New(config Config, logger *log.Logger) *Hillshade {
	if config.Workers <= 0 {
		config.Workers = defaultWorkers
	}
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Hillshade{
		config: config,
		processor: &relief.Processor{
			Mode:   config.Mode,
			Logger: logger,
		},
		logger: logger,
	}
}

// RenderImage renders a single Terrarium image and writes the result to w
// as a PNG. An unpadded 512 by 512 image is padded by replicating its edges.
func (h *Hillshade) RenderImage(w io.Writer, m image.Image) error {
	if b := m.Bounds(); b.Dx() == terrarium.Size && b.Dy() == terrarium.Size {
		m = terrarium.Pad(m, terrarium.Padding)
	}

	out, ok := h.processor.Render(terrarium.ImageSource{Image: m}, 0, 0)
	if !ok {
		return errNoOutput
	}

	return overlay.Encode(w, out, h.config.Colors)
}

// RenderFile renders every tile at zoom level z in the MBTiles file src
// into the MBTiles file dst.
func (h *Hillshade) RenderFile(src, dst string, z maptile.Zoom) error {
	in, err := mbtiles.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := mbtiles.Open(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	sink := NewTileSink(out, h.config.Mode.String(), h.config.Colors)
	if err := h.RenderTileset(in, sink, z); err != nil {
		return err
	}

	return sink.Finalize()
}
