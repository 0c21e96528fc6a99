package main

import(
	"flag"
	"fmt"
	"image"
	_ "image/png"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"gopkg.in/yaml.v2"

	"mosaicfit/pkg/dewarp"
	"mosaicfit/pkg/fftreg"
	"mosaicfit/pkg/montage"
	"mosaicfit/pkg/report"
)

const arrayName = "ImageData"

var(
	fConfig  string
	fCols    int
	fRows    int
	fPattern string
	fOverlap float64
	fAlign   bool
	fMaxIter int
	fVerbose bool
)

func init() {
	flag.StringVar(&fConfig, "config", "", "yaml run configuration (flags override it)")
	flag.IntVar(&fCols, "cols", 2, "montage columns")
	flag.IntVar(&fRows, "rows", 2, "montage rows")
	flag.StringVar(&fPattern, "pattern", "tile_r%d_c%d.png", "tile filename pattern, fed (row, col)")
	flag.Float64Var(&fOverlap, "overlap", 0.1, "nominal tile overlap as a fraction of tile size")
	flag.BoolVar(&fAlign, "align", false, "run the simplex dewarp search after scoring the identity")
	flag.IntVar(&fMaxIter, "maxiter", 0, "iteration cap for the simplex search (0 = let it converge)")
	flag.BoolVar(&fVerbose, "v", false, "chatty logging")
}

/* Example config file ...

cols: 3
rows: 3
pattern: tile_r%d_c%d.png
overlap: 0.15
maxiterations: 200

*/

type RunConfig struct {
	Cols          int
	Rows          int
	Pattern       string
	Overlap       float64
	MaxIterations int
}

func newRunConfig() RunConfig {
	return RunConfig{
		Cols:    2,
		Rows:    2,
		Pattern: "tile_r%d_c%d.png",
		Overlap: 0.1,
	}
}

func loadRunConfig(filename string) (RunConfig, error) {
	c := newRunConfig()

	contents, err := os.ReadFile(filename)
	if err != nil {
		return c, fmt.Errorf("read '%s': %v", filename, err)
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("parse '%s': %v", filename, err)
	}
	return c, nil
}

// Flags the user actually set on the command line win over the file.
func (c *RunConfig)applyFlags() {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cols":
			c.Cols = fCols
		case "rows":
			c.Rows = fRows
		case "pattern":
			c.Pattern = fPattern
		case "overlap":
			c.Overlap = fOverlap
		case "maxiter":
			c.MaxIterations = fMaxIter
		}
	})
}

func main() {
	flag.Parse()
	log := initLogger(fVerbose)

	cfg := newRunConfig()
	if fConfig != "" {
		var err error
		if cfg, err = loadRunConfig(fConfig); err != nil {
			log.Fatal(err)
		}
	}
	cfg.applyFlags()

	m, err := loadMontage(cfg)
	if err != nil {
		log.Fatal(err)
	}

	cost, err := fftreg.New(m, arrayName, report.NewLogSink(log))
	if err != nil {
		log.Fatal(err)
	}

	identity, err := cost.Evaluate(dewarp.Identity())
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("identity dewarp cost: %g over %d overlap pairs", identity, len(cost.Overlaps()))

	if !fAlign {
		return
	}

	res, err := cost.Align(fftreg.AlignSettings{MaxIterations: cfg.MaxIterations})
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("best cost: %g (identity was %g)", res.Cost, identity)
	fmt.Printf("dewarp parameters:\n")
	for i, v := range res.Params {
		fmt.Printf("  p[%2d] = % .8g\n", i, v)
	}
}

// loadMontage reads the col x row grid of tile images and places them on
// the shared frame using the nominal overlap fraction.
func loadMontage(cfg RunConfig) (*montage.Montage, error) {
	m := montage.New(cfg.Cols, cfg.Rows)

	for row := 0; row < cfg.Rows; row++ {
		for col := 0; col < cfg.Cols; col++ {
			filename := fmt.Sprintf(cfg.Pattern, row, col)
			pix, w, h, err := loadGrayPixels(filename)
			if err != nil {
				return nil, fmt.Errorf("tile (%d,%d): %v", col, row, err)
			}

			stepX := float64(w) * (1.0 - cfg.Overlap)
			stepY := float64(h) * (1.0 - cfg.Overlap)
			tile := &montage.Tile{
				OriginX:  float64(col) * stepX,
				OriginY:  float64(row) * stepY,
				SpacingX: 1,
				SpacingY: 1,
				Width:    w,
				Height:   h,
				Arrays:   map[string][]uint8{arrayName: pix},
			}
			if err := m.SetTile(montage.Key{Col: col, Row: row}, tile); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func loadGrayPixels(filename string) ([]uint8, int, int, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, err
	}

	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	pix := make([]uint8, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		copy(pix[y*b.Dx():(y+1)*b.Dx()], gray.Pix[y*gray.Stride:y*gray.Stride+b.Dx()])
	}
	return pix, b.Dx(), b.Dy(), nil
}

func initLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}
