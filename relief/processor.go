package relief

import (
	"errors"
	"image"
	"io/ioutil"
	"log"

	"github.com/bodgit/hillshade/terrarium"
)

var errNoTile = errors.New("relief: source returned no tile")

// Source provides padded source tiles. x and y are the top-left corner of
// the requested region.
type Source interface {
	Read(x, y, width, height int) (*terrarium.Tile, error)
}

// Processor renders one output tile per call to Render.
type Processor struct {
	Mode   Mode
	Logger *log.Logger
}

func (p *Processor) logger() *log.Logger {
	if p.Logger == nil {
		return log.New(ioutil.Discard, "", 0)
	}
	return p.Logger
}

// Render reads the source tile with its top-left corner at (x, y) and
// renders it. If the source tile cannot be read the failure is logged and
// false is returned so the caller can carry on without this tile.
func (p *Processor) Render(src Source, x, y int) (*image.NRGBA, bool) {
	t, err := src.Read(x, y, terrarium.PaddedSize, terrarium.PaddedSize)
	if err == nil && t == nil {
		err = errNoTile
	}
	if err != nil {
		p.logger().Printf("Unable to read source tile at (%d, %d): %s\n", x, y, err)
		return nil, false
	}
	return Process(t, p.Mode), true
}
