package fftreg

import(
	"math"

	"gonum.org/v1/gonum/optimize"

	"mosaicfit/pkg/dewarp"
)

// AlignSettings controls the Nelder-Mead search. Zero values mean
// sensible defaults: start from the identity dewarp, let the converger
// decide when to stop.
type AlignSettings struct {
	InitialParams dewarp.Parameters
	MaxIterations int
}

type AlignResult struct {
	Params dewarp.Parameters
	Cost   float64 // the maximized residual² at Params
}

// Align searches dewarp parameter space with a downhill simplex
// (Nelder-Mead), the classic derivative-free companion to this cost
// function. We minimize the negated cost, since Evaluate's convention is
// bigger-is-better.
func (c *CostFunction)Align(s AlignSettings) (AlignResult, error) {
	p0 := s.InitialParams
	if p0 == nil {
		p0 = dewarp.Identity()
	}
	if err := p0.Validate(); err != nil {
		return AlignResult{}, err
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			v, err := c.Evaluate(dewarp.Parameters(x))
			if err != nil {
				return math.Inf(1)
			}
			return -v
		},
	}

	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{Absolute: 1e-8, Iterations: 100},
	}
	if s.MaxIterations > 0 {
		settings.MajorIterations = s.MaxIterations
	}

	c.sink.Statusf("starting simplex search over %d dewarp parameters", c.NumParameters())
	res, err := optimize.Minimize(problem, p0, settings, &optimize.NelderMead{})
	if err != nil {
		return AlignResult{}, err
	}

	c.sink.Statusf("simplex finished (%s) after %d evaluations", res.Status, res.FuncEvaluations)
	return AlignResult{Params: dewarp.Parameters(res.X), Cost: -res.F}, nil
}
