package fftreg

import(
	"mosaicfit/pkg/fgrid"
	"mosaicfit/pkg/montage"
)

// createOverlapPairs walks the crop map in deterministic key order and
// pairs every tile with its right and bottom neighbor where one exists.
func createOverlapPairs(m *montage.Montage, cropMap map[montage.Key]fgrid.Bounds) []OverlapPair {
	var overlaps []OverlapPair

	for _, key := range m.Keys() {
		bounds := cropMap[key]

		if rb, ok := cropMap[key.Right()]; ok {
			overlaps = append(overlaps, OverlapPair{
				A:      key,
				B:      key.Right(),
				Region: rightOverlapRegion(bounds, rb),
			})
		}
		if bb, ok := cropMap[key.Bottom()]; ok {
			overlaps = append(overlaps, OverlapPair{
				A:      key,
				B:      key.Bottom(),
				Region: bottomOverlapRegion(bounds, bb),
			})
		}
	}

	return overlaps
}

// rightOverlapRegion intersects the two tiles vertically; horizontally
// the region runs from the right tile's left edge to the left tile's
// right edge.
func rightOverlapRegion(left, right fgrid.Bounds) fgrid.Bounds {
	top := left.Top
	if right.Top > top { top = right.Top }
	bottom := left.Bottom
	if right.Bottom < bottom { bottom = right.Bottom }

	return fgrid.Bounds{
		Top:    top,
		Bottom: bottom,
		Left:   right.Left,
		Right:  left.Right,
	}
}

// bottomOverlapRegion is the same rule with the axes swapped.
func bottomOverlapRegion(top, bottom fgrid.Bounds) fgrid.Bounds {
	left := top.Left
	if bottom.Left > left { left = bottom.Left }
	right := top.Right
	if bottom.Right < right { right = bottom.Right }

	return fgrid.Bounds{
		Top:    bottom.Top,
		Bottom: top.Bottom,
		Left:   left,
		Right:  right,
	}
}
