package fftreg

import(
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosaicfit/pkg/dewarp"
	"mosaicfit/pkg/fgrid"
	"mosaicfit/pkg/montage"
	"mosaicfit/pkg/report"
)

const testArray = "ImageData"

func tileOf(originX, originY float64, w, h int, f func(x, y int) uint8) *montage.Tile {
	data := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			data[y*w+x] = f(x, y)
		}
	}
	return &montage.Tile{
		OriginX: originX, OriginY: originY,
		SpacingX: 1, SpacingY: 1,
		Width: w, Height: h,
		Arrays: map[string][]uint8{testArray: data},
	}
}

func constTile(originX, originY float64, w, h int, v uint8) *montage.Tile {
	return tileOf(originX, originY, w, h, func(x, y int) uint8 { return v })
}

// A 2x2 grid of 8x8 tiles laid out with a 2 pixel overlap must produce
// exactly one pair per adjacent edge, each with the expected rectangle.
func TestOverlapPairsFor2x2Montage(t *testing.T) {
	m := montage.New(2, 2)
	require.NoError(t, m.SetTile(montage.Key{Col: 0, Row: 0}, constTile(0, 0, 8, 8, 1)))
	require.NoError(t, m.SetTile(montage.Key{Col: 1, Row: 0}, constTile(6, 0, 8, 8, 1)))
	require.NoError(t, m.SetTile(montage.Key{Col: 0, Row: 1}, constTile(0, 6, 8, 8, 1)))
	require.NoError(t, m.SetTile(montage.Key{Col: 1, Row: 1}, constTile(6, 6, 8, 8, 1)))

	c, err := New(m, testArray, &report.Recorder{})
	require.NoError(t, err)

	want := []OverlapPair{
		{A: montage.Key{Col: 0, Row: 0}, B: montage.Key{Col: 1, Row: 0},
			Region: fgrid.Bounds{Top: 0, Bottom: 8, Left: 6, Right: 8}},
		{A: montage.Key{Col: 0, Row: 0}, B: montage.Key{Col: 0, Row: 1},
			Region: fgrid.Bounds{Top: 6, Bottom: 8, Left: 0, Right: 8}},
		{A: montage.Key{Col: 1, Row: 0}, B: montage.Key{Col: 1, Row: 1},
			Region: fgrid.Bounds{Top: 6, Bottom: 8, Left: 6, Right: 14}},
		{A: montage.Key{Col: 0, Row: 1}, B: montage.Key{Col: 1, Row: 1},
			Region: fgrid.Bounds{Top: 6, Bottom: 14, Left: 6, Right: 8}},
	}
	require.Len(t, c.Overlaps(), len(want))
	for i, ov := range c.Overlaps() {
		assert.Equal(t, want[i], ov, "pair %d", i)
		assert.False(t, ov.Region.Empty(), "pair %d region must not be empty", i)
	}
}

// With constant-valued tiles the circular convolution of an overlap is
// constant, so the peak is exactly value² times the overlap area. One
// pair of 8x8 tiles shifted 6 pixels apart overlaps in a 2x8 strip:
// peak = 3*3*16 = 144, and the cost is the squared residual, 144².
func TestIdentityCostOnConstantTiles(t *testing.T) {
	m := montage.New(2, 1)
	require.NoError(t, m.SetTile(montage.Key{Col: 0, Row: 0}, constTile(0, 0, 8, 8, 3)))
	require.NoError(t, m.SetTile(montage.Key{Col: 1, Row: 0}, constTile(6, 0, 8, 8, 3)))

	c, err := New(m, testArray, &report.Recorder{})
	require.NoError(t, err)
	require.Len(t, c.Overlaps(), 1)

	cost, err := c.Evaluate(dewarp.Identity())
	require.NoError(t, err)
	assert.InDelta(t, 20736.0, cost, 1e-6)
}

// Nominally adjacent tiles placed with a gap produce an overlap pair
// whose region is empty; the pair must score 0 rather than crash a
// scoring worker.
func TestGappedNeighborsContributeNothing(t *testing.T) {
	m := montage.New(2, 1)
	require.NoError(t, m.SetTile(montage.Key{Col: 0, Row: 0}, constTile(0, 0, 8, 8, 3)))
	require.NoError(t, m.SetTile(montage.Key{Col: 1, Row: 0}, constTile(10, 0, 8, 8, 3)))

	c, err := New(m, testArray, &report.Recorder{})
	require.NoError(t, err)
	require.Len(t, c.Overlaps(), 1)
	assert.True(t, c.Overlaps()[0].Region.Empty())

	cost, err := c.Evaluate(dewarp.Identity())
	require.NoError(t, err)
	assert.Zero(t, cost)
}

func TestEvaluateRejectsWrongParameterCount(t *testing.T) {
	m := montage.New(2, 1)
	require.NoError(t, m.SetTile(montage.Key{Col: 0, Row: 0}, constTile(0, 0, 8, 8, 3)))
	require.NoError(t, m.SetTile(montage.Key{Col: 1, Row: 0}, constTile(6, 0, 8, 8, 3)))

	c, err := New(m, testArray, &report.Recorder{})
	require.NoError(t, err)

	_, err = c.Evaluate(dewarp.Parameters{1, 2, 3})
	assert.Error(t, err)
}

func TestDerivativeAlwaysErrors(t *testing.T) {
	m := montage.New(2, 1)
	require.NoError(t, m.SetTile(montage.Key{Col: 0, Row: 0}, constTile(0, 0, 8, 8, 3)))
	require.NoError(t, m.SetTile(montage.Key{Col: 1, Row: 0}, constTile(6, 0, 8, 8, 3)))

	c, err := New(m, testArray, &report.Recorder{})
	require.NoError(t, err)

	grad := make([]float64, c.NumParameters())
	assert.ErrorIs(t, c.Derivative(dewarp.Identity(), grad), ErrNoDerivative)
}

func TestNewValidatesInput(t *testing.T) {
	_, err := New(montage.New(2, 1), testArray, &report.Recorder{})
	assert.Error(t, err, "empty montage")

	m := montage.New(2, 1)
	require.NoError(t, m.SetTile(montage.Key{Col: 0, Row: 0}, constTile(0, 0, 8, 8, 3)))
	require.NoError(t, m.SetTile(montage.Key{Col: 1, Row: 0}, constTile(6, 0, 8, 8, 3)))

	rec := &report.Recorder{}
	_, err = New(m, "NoSuchArray", rec)
	require.Error(t, err)
	entry, ok := rec.LastError()
	require.True(t, ok)
	assert.Equal(t, ErrCodeMissingArray, entry.Code)
}

// In grids wider than 2 tiles, an oversized column-0 tile is anchored to
// its inner (right) edge: the excess is trimmed from the outer side and
// the origin advances by the trimmed amount.
func TestEdgeTileAnchorsToInnerEdge(t *testing.T) {
	m := montage.New(3, 1)
	require.NoError(t, m.SetTile(montage.Key{Col: 0, Row: 0}, tileOf(0, 0, 10, 8, func(x, y int) uint8 { return uint8(x) })))
	require.NoError(t, m.SetTile(montage.Key{Col: 1, Row: 0}, constTile(8, 0, 8, 8, 1)))
	require.NoError(t, m.SetTile(montage.Key{Col: 2, Row: 0}, constTile(14, 0, 8, 8, 1)))

	c, err := New(m, testArray, &report.Recorder{})
	require.NoError(t, err)

	g := c.images[montage.Key{Col: 0, Row: 0}]
	require.NotNil(t, g)
	assert.Equal(t, 8, g.Dx())
	assert.Equal(t, int64(2), g.OriginX())
	// Source column 2 becomes the grid's first column.
	assert.Equal(t, uint8(2), g.Get(2, 0))
	assert.Equal(t, uint8(9), g.Get(9, 0))
}

func TestAlignReturnsFullParameterVector(t *testing.T) {
	m := montage.New(2, 1)
	grad := func(x, y int) uint8 { return uint8(10 + 3*x + 2*y) }
	require.NoError(t, m.SetTile(montage.Key{Col: 0, Row: 0}, tileOf(0, 0, 8, 8, grad)))
	require.NoError(t, m.SetTile(montage.Key{Col: 1, Row: 0}, tileOf(6, 0, 8, 8, grad)))

	c, err := New(m, testArray, &report.Recorder{})
	require.NoError(t, err)

	identity, err := c.Evaluate(dewarp.Identity())
	require.NoError(t, err)

	res, err := c.Align(AlignSettings{MaxIterations: 25})
	require.NoError(t, err)
	assert.Len(t, []float64(res.Params), dewarp.NumParameters)
	assert.False(t, math.IsNaN(res.Cost))
	assert.False(t, math.IsInf(res.Cost, 0))
	// The search starts at the identity, so the best cost cannot be worse.
	assert.GreaterOrEqual(t, res.Cost, identity)
}
