package fgrid

import(
	"fmt"
)

// The two pixel element types the pipeline deals in: raw images are
// byte-valued, background/derived fields are float64. Anything else is
// the hosting application's problem.
type Scalar interface {
	~uint8 | ~float64
}

// A Grid is a 2D field of scalar samples in row-major order, placed at
// an integer origin in a shared montage coordinate frame. The zero
// origin is the common case for standalone images.
//
// Grids borrow or own their backing slice depending on how they were
// built; either way the grid never resizes it.
type Grid[T Scalar] struct {
	originX, originY int64
	stride           int
	values           []T
}

// NewGrid builds a zero-origin grid. Degenerate dimensions yield an
// empty grid, never a panic: callers computing sizes from untrusted
// geometry get an inert grid back (Dx/Dy 0, Contains always false).
func NewGrid[T Scalar](w, h int) *Grid[T] {
	if w < 1 || h < 1 {
		w, h = 0, 0
	}
	return &Grid[T]{
		stride: w,
		values: make([]T, w*h),
	}
}

// NewGridAt places the grid at an origin in the shared frame. Montage
// tiles use this; Set/Get then take frame coordinates.
func NewGridAt[T Scalar](originX, originY int64, w, h int) *Grid[T] {
	g := NewGrid[T](w, h)
	g.originX, g.originY = originX, originY
	return g
}

// WrapGrid adopts an externally owned row-major slice without copying.
// The caller keeps ownership of the storage; mutations through the grid
// are visible to it.
func WrapGrid[T Scalar](values []T, w int) (*Grid[T], error) {
	if w <= 0 || len(values)%w != 0 {
		return nil, fmt.Errorf("cannot wrap %d values with width %d", len(values), w)
	}
	return &Grid[T]{stride: w, values: values}, nil
}

func (g *Grid[T])Set(x, y int64, v T) { g.values[g.stride*int(y-g.originY)+int(x-g.originX)] = v }
func (g *Grid[T])Get(x, y int64) T    { return g.values[g.stride*int(y-g.originY)+int(x-g.originX)] }
func (g *Grid[T])Dx() int             { return g.stride }
func (g *Grid[T])Dy() int {
	if g.stride == 0 {
		return 0
	}
	return len(g.values) / g.stride
}
func (g *Grid[T])OriginX() int64      { return g.originX }
func (g *Grid[T])OriginY() int64      { return g.originY }
func (g *Grid[T])Values() []T         { return g.values }

func (g *Grid[T])Contains(x, y int64) bool {
	return x >= g.originX && x < g.originX+int64(g.Dx()) &&
		y >= g.originY && y < g.originY+int64(g.Dy())
}

func (g *Grid[T])SameDims(o *Grid[T]) bool {
	return g.Dx() == o.Dx() && g.Dy() == o.Dy()
}

func (g *Grid[T])Copy() *Grid[T] {
	o := &Grid[T]{originX: g.originX, originY: g.originY, stride: g.stride, values: make([]T, len(g.values))}
	copy(o.values, g.values)
	return o
}

// Bounds returns the grid's full footprint in frame coordinates.
func (g *Grid[T])Bounds() Bounds {
	return Bounds{
		Top:    g.originY,
		Bottom: g.originY + int64(g.Dy()),
		Left:   g.originX,
		Right:  g.originX + int64(g.Dx()),
	}
}

// Crop copies out the window `b`, which must lie inside the grid. The
// result keeps frame coordinates (its origin is b's top-left corner).
func (g *Grid[T])Crop(b Bounds) (*Grid[T], error) {
	if b.Empty() {
		return nil, fmt.Errorf("crop to empty bounds %v", b)
	}
	full := g.Bounds()
	if b.Left < full.Left || b.Right > full.Right || b.Top < full.Top || b.Bottom > full.Bottom {
		return nil, fmt.Errorf("crop %v exceeds grid %v", b, full)
	}
	o := NewGridAt[T](b.Left, b.Top, int(b.Width()), int(b.Height()))
	for y := b.Top; y < b.Bottom; y++ {
		for x := b.Left; x < b.Right; x++ {
			o.Set(x, y, g.Get(x, y))
		}
	}
	return o, nil
}

func (g *Grid[T])Stats() string {
	var min, max float64
	for i, v := range g.values {
		f := float64(v)
		if i == 0 || f > max { max = f }
		if i == 0 || f < min { min = f }
	}
	return fmt.Sprintf("grid[%dx%d @(%d,%d), vals{%f,%f}]", g.Dx(), g.Dy(), g.originX, g.originY, min, max)
}
