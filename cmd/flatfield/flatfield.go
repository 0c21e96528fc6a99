package main

import(
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"mosaicfit/pkg/fgrid"
	"mosaicfit/pkg/flatfield"
	"mosaicfit/pkg/report"
)

var(
	fConfig       string
	fLow          int
	fHigh         int
	fMode         string
	fOut          string
	fCorrectedDir string
	fVerbose      bool
)

func init() {
	flag.StringVar(&fConfig, "config", "", "yaml run configuration (flags override it)")
	flag.IntVar(&fLow, "low", 0, "lowest allowed image value")
	flag.IntVar(&fHigh, "high", 255, "highest allowed image value")
	flag.StringVar(&fMode, "mode", "none", "what to do with the background: subtract, divide, none")
	flag.StringVar(&fOut, "out", "background.png", "where to write the background image")
	flag.StringVar(&fCorrectedDir, "corrected", "", "if set, write corrected copies of the inputs here")
	flag.BoolVar(&fVerbose, "v", false, "chatty logging")
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

	if flag.NArg() == 0 {
		log.Fatal("no input images; pass grayscale PNG files as arguments")
	}

	images := make([]*fgrid.Grid[uint8], 0, flag.NArg())
	for _, filename := range flag.Args() {
		img, err := loadGray(filename)
		if err != nil {
			log.Fatalf("load '%s': %v", filename, err)
		}
		images = append(images, img)
	}
	log.Infof("loaded %d images, %s", len(images), images[0].Stats())

	if fVerbose {
		hist := flatfield.PixelHistogram(images)
		log.Debugf("stack pixel values: %v", hist)
	}

	est := flatfield.NewEstimator(cfg.estimatorConfig(), report.NewLogSink(log))
	res, err := est.Run(images)
	if err != nil {
		log.Fatal(err)
	}

	if res.Average.Undefined > 0 {
		log.Warnf("%d pixels had no in-threshold samples; consider widening [%d,%d]",
			res.Average.Undefined, cfg.LowThresh, cfg.HighThresh)
	}
	log.Infof("fit coefficients: %v (skipped %d cells)", res.Fit.Coeffs, res.Fit.SkippedCells)

	if err := fgrid.ToImg(res.Surface, "background", cfg.OutputFilename); err != nil {
		log.Fatalf("write '%s': %v", cfg.OutputFilename, err)
	}
	log.Infof("wrote %s", cfg.OutputFilename)

	if cfg.CorrectedDir != "" && (cfg.Subtract || cfg.Divide) {
		for i, filename := range flag.Args() {
			out := filepath.Join(cfg.CorrectedDir, filepath.Base(filename))
			if err := writeGray(images[i], out); err != nil {
				log.Fatalf("write '%s': %v", out, err)
			}
			if res.Corrections[i].ZeroDivisors > 0 {
				log.Warnf("%s: %d pixels skipped over a zero surface value", out, res.Corrections[i].ZeroDivisors)
			}
		}
		log.Infof("wrote %d corrected images to %s", len(images), cfg.CorrectedDir)
	}
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

func loadGray(filename string) (*fgrid.Grid[uint8], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	grid := fgrid.NewGrid[uint8](b.Dx(), b.Dy())
	vals := grid.Values()
	for y := 0; y < b.Dy(); y++ {
		copy(vals[y*b.Dx():(y+1)*b.Dx()], gray.Pix[y*gray.Stride:y*gray.Stride+b.Dx()])
	}
	return grid, nil
}

func writeGray(grid *fgrid.Grid[uint8], filename string) error {
	w, h := grid.Dx(), grid.Dy()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	vals := grid.Values()
	for y := 0; y < h; y++ {
		copy(gray.Pix[y*gray.Stride:y*gray.Stride+w], vals[y*w:(y+1)*w])
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer f.Close()
	return png.Encode(f, gray)
}
