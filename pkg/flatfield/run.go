package flatfield

import(
	"mosaicfit/pkg/fgrid"
)

// RunResult bundles everything a full pass produces.
type RunResult struct {
	Average     AverageResult
	Fit         FitResult
	Surface     *fgrid.Grid[float64]
	Corrections []CorrectionResult
}

// Run performs the whole single-pass pipeline over the stack: aggregate,
// average, fit, center, and - if a correction mode is configured -
// correct every source image in place.
func (e *Estimator)Run(images []*fgrid.Grid[uint8]) (RunResult, error) {
	var res RunResult
	var err error

	if err = e.Aggregate(images); err != nil {
		return res, err
	}
	if res.Average, err = e.Average(); err != nil {
		return res, err
	}
	if res.Fit, err = e.FitPolynomial(); err != nil {
		return res, err
	}
	if res.Surface, err = e.CenteredSurface(); err != nil {
		return res, err
	}

	if mode, _ := e.cfg.mode(); mode != ModeNone {
		for _, img := range images {
			c, err := e.Apply(img)
			if err != nil {
				return res, err
			}
			res.Corrections = append(res.Corrections, c)
		}
	}

	e.sink.Statusf("complete")
	return res, nil
}
