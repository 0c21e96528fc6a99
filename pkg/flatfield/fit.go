package flatfield

import(
	"math"

	"gonum.org/v1/gonum/mat"

	"mosaicfit/pkg/fgrid"
)

// The surface model is f(x,y) = c0 + c1*x + c2*y + c3*xy + c4*x² + c5*y²,
// where x is the flat pixel index divided by the width and y is the
// remainder - the same row/column convention the row-major storage uses.
const numCoeffs = 6

// FitResult reports the fit alongside its explicit numeric-hazard
// accounting: background cells whose average was non-finite are left out
// of the design matrix rather than poisoning the solve, and SkippedCells
// says how many were.
type FitResult struct {
	Coeffs       [numCoeffs]float64
	SkippedCells int
}

// FitPolynomial least-squares fits the surface model to the averaged
// background field via QR decomposition.
func (e *Estimator)FitPolynomial() (FitResult, error) {
	if e.stage != stageAveraged {
		return FitResult{}, e.fail(ErrCodeBadStage, "fit requires a completed average pass")
	}

	bg := e.background.Values()
	rows := 0
	for _, v := range bg {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			rows++
		}
	}
	skipped := len(bg) - rows
	if rows < numCoeffs {
		return FitResult{}, e.fail(ErrCodeSolveFailed,
			"only %d finite background pixels; need at least %d to fit", rows, numCoeffs)
	}

	e.sink.Statusf("fitting a polynomial to data - may take a while to solve if images are large")

	A := mat.NewDense(rows, numCoeffs, nil)
	b := mat.NewVecDense(rows, nil)
	r := 0
	for i, v := range bg {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		x := float64(i / e.width)
		y := float64(i % e.width)
		A.Set(r, 0, 1)
		A.Set(r, 1, x)
		A.Set(r, 2, y)
		A.Set(r, 3, x*y)
		A.Set(r, 4, x*x)
		A.Set(r, 5, y*y)
		b.SetVec(r, v)
		r++
	}

	var qr mat.QR
	qr.Factorize(A)
	var p mat.VecDense
	if err := qr.SolveVecTo(&p, false, b); err != nil {
		return FitResult{}, e.fail(ErrCodeSolveFailed, "least-squares solve: %v", err)
	}

	for i := 0; i < numCoeffs; i++ {
		e.coeffs[i] = p.AtVec(i)
	}

	e.stage = stageFitted
	return FitResult{Coeffs: e.coeffs, SkippedCells: skipped}, nil
}

// EvalSurface evaluates the fitted model at a flat pixel index.
func evalSurface(coeffs [numCoeffs]float64, i, width int) float64 {
	x := float64(i / width)
	y := float64(i % width)
	return coeffs[0] + coeffs[1]*x + coeffs[2]*y + coeffs[3]*x*y + coeffs[4]*x*x + coeffs[5]*y*y
}

// CenteredSurface evaluates the fit at every pixel and subtracts the
// field's mean, so the background model is a zero-mean deviation from
// uniform illumination rather than an absolute level.
func (e *Estimator)CenteredSurface() (*fgrid.Grid[float64], error) {
	if e.stage != stageFitted {
		return nil, e.fail(ErrCodeBadStage, "center requires a completed fit")
	}

	e.surface = fgrid.NewGrid[float64](e.width, e.height)
	vals := e.surface.Values()

	avg := 0.0
	for i := range vals {
		vals[i] = evalSurface(e.coeffs, i, e.width)
		avg += vals[i]
	}
	avg /= float64(len(vals))
	for i := range vals {
		vals[i] -= avg
	}

	e.stage = stageCentered
	return e.surface, nil
}
