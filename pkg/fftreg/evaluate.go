package fftreg

import(
	"errors"
	"sync"

	"mosaicfit/pkg/dewarp"
)

// ErrNoDerivative: the cost function is gradient-free by contract; any
// optimizer driving it must not ask.
var ErrNoDerivative = errors.New("fft convolution cost function provides no derivative")

// Evaluate scores the montage alignment under the given dewarp
// parameters. Overlap pairs are scored on a worker pool; the caller
// folds the per-pair peaks after the join, so the result is independent
// of scheduling order. The return value is the square of the summed
// peaks - the quantity the external optimizer maximizes.
func (c *CostFunction)Evaluate(p dewarp.Parameters) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	jobsChan := make(chan OverlapPair, len(c.overlaps))
	resultsChan := make(chan float64, len(c.overlaps))

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ov := range jobsChan {
				resultsChan <- c.scoreOverlap(ov, p)
			}
		}()
	}

	for _, ov := range c.overlaps {
		jobsChan <- ov
	}
	close(jobsChan)
	wg.Wait()
	close(resultsChan)

	residual := 0.0
	for v := range resultsChan {
		residual += v
	}

	return residual * residual, nil
}

// Derivative always fails.
func (c *CostFunction)Derivative(p dewarp.Parameters, grad []float64) error {
	return ErrNoDerivative
}

func numParameters() int { return dewarp.NumParameters }
