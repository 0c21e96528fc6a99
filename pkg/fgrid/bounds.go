package fgrid

import "fmt"

// Bounds is a half-open rectangle [Left,Right) x [Top,Bottom) in frame
// coordinates. It does double duty: the crop footprint of a materialized
// tile, and the shrinking valid region of a warped overlap image.
type Bounds struct {
	Top    int64
	Bottom int64
	Left   int64
	Right  int64
}

func (b Bounds)Width() int64  { return b.Right - b.Left }
func (b Bounds)Height() int64 { return b.Bottom - b.Top }
func (b Bounds)Empty() bool   { return b.Width() <= 0 || b.Height() <= 0 }

func (b Bounds)String() string {
	return fmt.Sprintf("bounds[x:%d..%d y:%d..%d]", b.Left, b.Right, b.Top, b.Bottom)
}

// Shrink tightens the bounds for an invalid pixel found at (x,y) during a
// warp. The pixel's distance to each edge of the window it was found in
// decides which single bound gives way: the nearest edge wins, with ties
// resolved in the fixed order top, bottom, left, right. This is a
// heuristic, not a visibility computation; the check order must not be
// reordered or results stop being reproducible.
func (b *Bounds)Shrink(x, y int64, window Bounds) {
	distTop := y - window.Top
	distBot := window.Bottom - y
	distLeft := x - window.Left
	distRight := window.Right - x

	switch {
	case distTop <= distBot && distTop <= distLeft && distTop <= distRight:
		if y > b.Top { b.Top = y }
	case distBot <= distTop && distBot <= distLeft && distBot <= distRight:
		if y < b.Bottom { b.Bottom = y }
	case distLeft <= distTop && distLeft <= distBot && distLeft <= distRight:
		if x > b.Left { b.Left = x }
	case distRight <= distTop && distRight <= distBot && distRight <= distLeft:
		if x < b.Right { b.Right = x }
	}
}
