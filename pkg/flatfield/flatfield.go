// Package flatfield estimates the smooth illumination bias shared by a
// stack of grayscale images, and optionally removes it. The pipeline is
// single-pass: threshold-gated aggregation, averaging, a least-squares
// 2nd-order polynomial surface fit, mean-centering, then per-image
// correction. There is no rollback; build a fresh Estimator per run.
package flatfield

import(
	"math"

	"mosaicfit/pkg/fgrid"
	"mosaicfit/pkg/report"
)

// Error codes surfaced through the report sink. Configuration problems
// abort a run before any image is touched.
const (
	ErrCodeNoInput     = -76000 // no images / input not selected properly
	ErrCodeBadArray    = -76001 // image missing or geometry mismatch
	ErrCodeBothModes   = -76002 // subtract and divide both selected
	ErrCodeBadStage    = -76003 // operation out of order
	ErrCodeSolveFailed = -76004 // least-squares solve failed
)

// Mode selects what to do with the fitted surface. Exactly one of
// subtract/divide may be active; requesting both is a configuration
// error, not a precedence rule.
type Mode int

const (
	ModeNone Mode = iota
	ModeSubtract
	ModeDivide
)

type Config struct {
	LowThresh  uint8
	HighThresh uint8
	Subtract   bool
	Divide     bool
}

func (c Config)mode() (Mode, bool) {
	switch {
	case c.Subtract && c.Divide:
		return ModeNone, false
	case c.Subtract:
		return ModeSubtract, true
	case c.Divide:
		return ModeDivide, true
	}
	return ModeNone, true
}

func (c Config)inRange(v uint8) bool {
	return v >= c.LowThresh && v <= c.HighThresh
}

type stage int

const (
	stageIdle stage = iota
	stageAggregated
	stageAveraged
	stageFitted
	stageCentered
)

type Estimator struct {
	cfg  Config
	sink report.Sink

	stage  stage
	width  int
	height int

	sum    *fgrid.Grid[float64]
	counts *fgrid.Grid[float64]

	background *fgrid.Grid[float64]
	coeffs     [numCoeffs]float64
	surface    *fgrid.Grid[float64]
}

func NewEstimator(cfg Config, sink report.Sink) *Estimator {
	if sink == nil {
		sink = report.Default()
	}
	return &Estimator{cfg: cfg, sink: sink}
}

// Aggregate sums, per pixel, the values of every image that falls inside
// the threshold range there, and counts the contributors. All images
// must share one geometry.
func (e *Estimator)Aggregate(images []*fgrid.Grid[uint8]) error {
	if e.stage != stageIdle {
		return e.fail(ErrCodeBadStage, "aggregate must be the first step of a run")
	}
	if _, ok := e.cfg.mode(); !ok {
		return e.fail(ErrCodeBothModes, "cannot choose BOTH subtract and divide - choose one or neither")
	}
	if len(images) == 0 {
		return e.fail(ErrCodeNoInput, "no input images selected")
	}
	for i, img := range images {
		if img == nil {
			return e.fail(ErrCodeBadArray, "image %d: data not found", i)
		}
		if !img.SameDims(images[0]) {
			return e.fail(ErrCodeBadArray, "image %d is %dx%d, want %dx%d",
				i, img.Dx(), img.Dy(), images[0].Dx(), images[0].Dy())
		}
	}

	e.width = images[0].Dx()
	e.height = images[0].Dy()
	e.sum = fgrid.NewGrid[float64](e.width, e.height)
	e.counts = fgrid.NewGrid[float64](e.width, e.height)

	sum := e.sum.Values()
	counts := e.counts.Values()
	for _, img := range images {
		for t, v := range img.Values() {
			if e.cfg.inRange(v) {
				sum[t] += float64(v)
				counts[t]++
			}
		}
	}

	e.stage = stageAggregated
	return nil
}

// AverageResult carries the averaged background field plus the explicit
// division-by-zero accounting: a pixel no image ever qualified for ends
// up NaN, and Undefined says how many did.
type AverageResult struct {
	Background *fgrid.Grid[float64]
	Counts     *fgrid.Grid[float64]
	Undefined  int
}

// Average divides each aggregated cell by its contributor count.
// Zero-count cells become NaN; they are reported, not repaired.
func (e *Estimator)Average() (AverageResult, error) {
	if e.stage != stageAggregated {
		return AverageResult{}, e.fail(ErrCodeBadStage, "average requires a completed aggregate pass")
	}

	e.background = fgrid.NewGrid[float64](e.width, e.height)
	bg := e.background.Values()
	counts := e.counts.Values()

	undefined := 0
	for t, s := range e.sum.Values() {
		bg[t] = s / counts[t]
		if math.IsNaN(bg[t]) || math.IsInf(bg[t], 0) {
			undefined++
		}
	}
	if undefined > 0 {
		e.sink.Statusf("%d of %d pixels had no in-threshold samples; their average is undefined", undefined, len(bg))
	}

	e.stage = stageAveraged
	return AverageResult{Background: e.background, Counts: e.counts, Undefined: undefined}, nil
}

func (e *Estimator)fail(code int, format string, args ...interface{}) error {
	e.sink.Errorf(code, format, args...)
	return &Error{Code: code, format: format, args: args}
}
