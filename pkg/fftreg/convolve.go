package fftreg

import(
	"math"

	"github.com/mjibson/go-dsp/fft"

	"mosaicfit/pkg/fgrid"
)

// convolveMax computes the circular FFT convolution of two equally sized
// fields and returns the maximum value of the output - the alignment
// peak. Well-aligned overlaps concentrate their energy into a sharp,
// high peak.
func convolveMax(a, b *fgrid.Grid[float64]) float64 {
	fa := fft.FFT2Real(gridRows(a))
	fb := fft.FFT2Real(gridRows(b))

	for i := range fa {
		for j := range fa[i] {
			fa[i][j] *= fb[i][j]
		}
	}

	out := fft.IFFT2(fa)

	max := math.Inf(-1)
	for _, row := range out {
		for _, v := range row {
			if re := real(v); re > max {
				max = re
			}
		}
	}
	return max
}

// gridRows reslices a grid into the row-per-slice layout the fft package
// wants. Rows share the grid's backing array.
func gridRows(g *fgrid.Grid[float64]) [][]float64 {
	w, h := g.Dx(), g.Dy()
	vals := g.Values()
	rows := make([][]float64, h)
	for y := 0; y < h; y++ {
		rows[y] = vals[y*w : (y+1)*w]
	}
	return rows
}
