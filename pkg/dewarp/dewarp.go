// Package dewarp models the lens-distortion correction applied to
// montage tiles: a polynomial coordinate transform mapping a corrected
// ("new") pixel position back to its original position in the source
// tile. The transform is evaluated in coordinates centered on the tile's
// nominal footprint center, so the center is always a fixed point.
package dewarp

import(
	"fmt"
	"math"
)

// Terms per axis: u, v, u², v², uv, u²v, uv².
const NumTerms = 7

// NumParameters is the fixed length of a parameter vector: the first
// NumTerms coefficients produce the old x, the rest the old y.
const NumParameters = 2 * NumTerms

type Parameters []float64

// Identity returns parameters under which every pixel maps to itself.
func Identity() Parameters {
	p := make(Parameters, NumParameters)
	p[0] = 1          // x' = u
	p[NumTerms+1] = 1 // y' = v
	return p
}

func (p Parameters)Validate() error {
	if len(p) != NumParameters {
		return fmt.Errorf("dewarp wants %d parameters, got %d", NumParameters, len(p))
	}
	return nil
}

type PixelIndex struct {
	X, Y int64
}

// OldIndex maps the new pixel position back to its old position in the
// source tile, relative to the distortion center (cx, cy).
func OldIndex(idx PixelIndex, cx, cy float64, p Parameters) PixelIndex {
	u := float64(idx.X) - cx
	v := float64(idx.Y) - cy

	terms := [NumTerms]float64{u, v, u * u, v * v, u * v, u * u * v, u * v * v}

	var uOld, vOld float64
	for i, t := range terms {
		uOld += p[i] * t
		vOld += p[NumTerms+i] * t
	}

	return PixelIndex{
		X: int64(math.Round(uOld + cx)),
		Y: int64(math.Round(vOld + cy)),
	}
}
