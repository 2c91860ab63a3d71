package main

import (
	"image"
	_ "image/png"
	"io/ioutil"
	"log"
	"os"

	"github.com/bodgit/hillshade"
	"github.com/bodgit/hillshade/relief"
	"github.com/joho/godotenv"
	"github.com/paulmach/orb/maptile"
	"github.com/urfave/cli/v2"
	_ "golang.org/x/image/webp"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version, V",
		Usage: "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func newConfig(c *cli.Context) (hillshade.Config, error) {
	mode, err := relief.ParseMode(c.String("mode"))
	if err != nil {
		return hillshade.Config{}, err
	}
	return hillshade.Config{
		Mode:         mode,
		Workers:      c.Int("workers"),
		Colors:       c.Int("colors"),
		FilterFactor: c.Float64("filter-factor"),
	}, nil
}

func renderImage(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	config, err := newConfig(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	f, err := os.Open(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	w, err := os.Create(c.Args().Get(1))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer w.Close()

	h := hillshade.New(config, newLogger(c))
	if err := h.RenderImage(w, m); err != nil {
		return cli.NewExitError(err, 1)
	}

	if err := w.Close(); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func renderTiles(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	config, err := newConfig(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	h := hillshade.New(config, newLogger(c))
	if err := h.RenderFile(c.Args().Get(0), c.Args().Get(1), maptile.Zoom(c.Int("zoom"))); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func main() {
	// Allow the HILLSHADE_* variables to be set in a .env file
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatal(err)
	}

	app := cli.NewApp()

	app.Name = "hillshade"
	app.Usage = "Terrarium elevation tile shaded relief renderer"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "mode",
			EnvVars: []string{"HILLSHADE_MODE"},
			Value:   relief.Hillshade.String(),
			Usage:   "render mode, \"hillshade\" or \"height\"",
		},
		&cli.IntFlag{
			Name:    "colors",
			EnvVars: []string{"HILLSHADE_COLORS"},
			Value:   0,
			Usage:   "reduce each tile to this many colors, 0 disables",
		},
		&cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "render",
			Usage:       "Render a single Terrarium image",
			Description: "The image should be 516x516 including a 2 pixel overlap, a 512x512 image is padded by repeating its edges.",
			ArgsUsage:   "INPUT OUTPUT",
			Action:      renderImage,
		},
		{
			Name:        "tiles",
			Usage:       "Render every tile at a zoom level of an MBTiles tileset",
			Description: "",
			ArgsUsage:   "SOURCE DESTINATION",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "zoom",
					EnvVars: []string{"HILLSHADE_ZOOM"},
					Usage:   "zoom level to render",
				},
				&cli.IntFlag{
					Name:    "workers",
					EnvVars: []string{"HILLSHADE_WORKERS"},
					Value:   10,
					Usage:   "number of tiles to render concurrently",
				},
				&cli.Float64Flag{
					Name:    "filter-factor",
					EnvVars: []string{"HILLSHADE_FILTER_FACTOR"},
					Value:   1,
					Usage:   "resampling filter factor recorded with each tile",
				},
			},
			Action: renderTiles,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
