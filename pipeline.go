package hillshade

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bodgit/hillshade/mbtiles"
	"github.com/bodgit/hillshade/relief"
	"github.com/bodgit/hillshade/terrarium"
	"github.com/paulmach/orb/maptile"
)

type stats struct {
	rendered int64
	skipped  int64
}

func (h *Hillshade) findTiles(ctx context.Context, db *mbtiles.DB, z maptile.Zoom) (<-chan maptile.Tile, <-chan error, error) {
	tiles, err := db.Tiles(z)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan maptile.Tile)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, t := range tiles {
			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errc, nil
}

func (h *Hillshade) tileWorker(ctx context.Context, in <-chan maptile.Tile, src relief.Source, sink Sink, s *stats) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for t := range in {
			// Top-left corner of the padded region in global pixels
			x := int(t.X)*terrarium.Size - terrarium.Padding
			y := int(t.Y)*terrarium.Size - terrarium.Padding

			m, ok := h.processor.Render(src, x, y)
			if !ok {
				h.logger.Printf("Skipping tile %d/%d/%d\n", t.Z, t.X, t.Y)
				atomic.AddInt64(&s.skipped, 1)
				continue
			}

			if err := sink.WriteTile(t, t.Bound(), m, h.config.FilterFactor); err != nil {
				errc <- err
				return
			}
			atomic.AddInt64(&s.rendered, 1)
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// RenderTileset renders every tile at zoom level z in db and writes each
// one to sink. Tiles that can't be read are logged and skipped, an error
// writing to sink stops the rendering.
func (h *Hillshade) RenderTileset(db *mbtiles.DB, sink Sink, z maptile.Zoom) error {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error
	var s stats

	tiles, errc, err := h.findTiles(ctx, db, z)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	src := NewTileSource(db, z)
	for i := 0; i < h.config.Workers; i++ {
		errc, err := h.tileWorker(ctx, tiles, src, sink, &s)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(errcList...); err != nil {
		return err
	}

	h.logger.Printf("Rendered %d tiles, skipped %d\n", atomic.LoadInt64(&s.rendered), atomic.LoadInt64(&s.skipped))

	return nil
}
