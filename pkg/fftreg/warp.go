package fftreg

import(
	"mosaicfit/pkg/dewarp"
	"mosaicfit/pkg/fgrid"
)

// warpOverlap fills the pair's region with pixels pulled from the base
// tile through the inverse dewarp (new position -> old position). A new
// pixel whose old position falls outside the base tile's footprint gets
// zero, and tightens the shared valid bounds via the nearest-edge rule.
//
// Both tiles of a pair warp into the same region and share one bounds
// record, so the eventual crop is common to both.
func (c *CostFunction)warpOverlap(base *fgrid.Grid[uint8], region fgrid.Bounds, p dewarp.Parameters, bounds *fgrid.Bounds) *fgrid.Grid[float64] {
	img := fgrid.NewGridAt[float64](region.Left, region.Top, int(region.Width()), int(region.Height()))

	// The distortion is centered on the base tile's nominal footprint
	// center, so identity parameters reproduce the unwarped tile.
	cx := float64(base.OriginX()) + (c.imageDimX-1)/2.0
	cy := float64(base.OriginY()) + (c.imageDimY-1)/2.0

	for y := region.Top; y < region.Bottom; y++ {
		for x := region.Left; x < region.Right; x++ {
			old := dewarp.OldIndex(dewarp.PixelIndex{X: x, Y: y}, cx, cy, p)
			var px float64
			if base.Contains(old.X, old.Y) {
				px = float64(base.Get(old.X, old.Y))
			} else {
				bounds.Shrink(x, y, region)
			}
			img.Set(x, y, px)
		}
	}

	return img
}

// scoreOverlap produces one pair's alignment score: warp both tiles,
// crop to the surviving common bounds, convolve, take the peak. A pair
// whose region is degenerate to begin with (tiles placed with a gap), or
// whose valid region shrank away, contributes nothing.
func (c *CostFunction)scoreOverlap(ov OverlapPair, p dewarp.Parameters) float64 {
	if ov.Region.Empty() {
		return 0
	}

	bounds := ov.Region

	first := c.warpOverlap(c.images[ov.A], ov.Region, p, &bounds)
	second := c.warpOverlap(c.images[ov.B], ov.Region, p, &bounds)

	if bounds.Empty() {
		return 0
	}
	croppedA, err := first.Crop(bounds)
	if err != nil {
		return 0
	}
	croppedB, err := second.Crop(bounds)
	if err != nil {
		return 0
	}

	return convolveMax(croppedA, croppedB)
}
