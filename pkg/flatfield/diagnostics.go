package flatfield

import(
	"github.com/skypies/util/histogram"

	"mosaicfit/pkg/fgrid"
)

// PixelHistogram buckets every pixel value across the stack. Useful for
// picking thresholds: the operator can see where sensor noise and
// saturation live before gating the average.
func PixelHistogram(images []*fgrid.Grid[uint8]) histogram.Histogram {
	h := histogram.Histogram{NumBuckets: 256, ValMin: 0, ValMax: 256}
	for _, img := range images {
		if img == nil {
			continue
		}
		for _, v := range img.Values() {
			h.Add(histogram.ScalarVal(int(v)))
		}
	}
	return h
}
