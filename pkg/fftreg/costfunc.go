// Package fftreg scores the alignment quality of a montage under a
// candidate dewarp, by FFT-convolving the overlap regions of neighboring
// tiles and summing the per-pair convolution peaks. An external
// derivative-free optimizer drives repeated Evaluate calls; this package
// also ships a Nelder-Mead driver for standalone use.
package fftreg

import(
	"fmt"
	"math"
	"runtime"
	"sync"

	"mosaicfit/pkg/fgrid"
	"mosaicfit/pkg/montage"
	"mosaicfit/pkg/report"
)

const (
	ErrCodeMissingTile  = -77000
	ErrCodeMissingArray = -77001
	ErrCodeBadGeometry  = -77002
)

// CostFunction is built once per registration run; after New returns,
// the tile images, crop map and overlap pairs are immutable and Evaluate
// may be called any number of times.
type CostFunction struct {
	m         *montage.Montage
	arrayName string
	sink      report.Sink
	workers   int

	imageDimX float64 // nominal (non-edge) tile dimensions
	imageDimY float64

	images   map[montage.Key]*fgrid.Grid[uint8]
	overlaps []OverlapPair
}

// An OverlapPair associates two adjacent tiles with the rectangle, in
// the shared pixel frame, where their content should coincide.
type OverlapPair struct {
	A      montage.Key // left, or top
	B      montage.Key // right, or bottom
	Region fgrid.Bounds
}

// New materializes every tile of the montage from its named byte array,
// derives per-tile crop bounds and the right/bottom-neighbor overlap
// pairs. Tile materialization runs on a worker pool; the grid map is
// assembled from the workers' results after the join.
func New(m *montage.Montage, arrayName string, sink report.Sink) (*CostFunction, error) {
	if sink == nil {
		sink = report.Default()
	}
	c := &CostFunction{
		m:         m,
		arrayName: arrayName,
		sink:      sink,
		workers:   runtime.NumCPU(),
		images:    map[montage.Key]*fgrid.Grid[uint8]{},
	}

	if m == nil || len(m.Keys()) == 0 {
		sink.Errorf(ErrCodeMissingTile, "montage has no tiles")
		return nil, fmt.Errorf("fftreg (%d): montage has no tiles", ErrCodeMissingTile)
	}

	if err := c.calculateImageDims(); err != nil {
		return nil, err
	}
	if err := c.materializeAll(); err != nil {
		return nil, err
	}

	cropMap := map[montage.Key]fgrid.Bounds{}
	for key, img := range c.images {
		cropMap[key] = img.Bounds()
	}
	c.overlaps = createOverlapPairs(c.m, cropMap)

	c.sink.Statusf("montage %dx%d: %d tiles materialized, %d overlap pairs",
		m.Cols(), m.Rows(), len(c.images), len(c.overlaps))
	return c, nil
}

// NumParameters is the length of the parameter vector Evaluate expects.
func (c *CostFunction)NumParameters() int { return numParameters() }

func (c *CostFunction)Overlaps() []OverlapPair { return c.overlaps }

// The nominal tile dimensions come from a non-edge tile where one
// exists, because edge tiles may carry extra slack that is trimmed
// during materialization.
func (c *CostFunction)calculateImageDims() error {
	x, y := 0, 0
	if c.m.Cols() > 2 { x = 1 }
	if c.m.Rows() > 2 { y = 1 }

	tx, ok := c.m.Tile(montage.Key{Col: x, Row: 0})
	if !ok {
		c.sink.Errorf(ErrCodeMissingTile, "tile (%d,0) missing; cannot size montage", x)
		return fmt.Errorf("fftreg (%d): tile (%d,0) missing", ErrCodeMissingTile, x)
	}
	ty, ok := c.m.Tile(montage.Key{Col: 0, Row: y})
	if !ok {
		c.sink.Errorf(ErrCodeMissingTile, "tile (0,%d) missing; cannot size montage", y)
		return fmt.Errorf("fftreg (%d): tile (0,%d) missing", ErrCodeMissingTile, y)
	}
	c.imageDimX = float64(tx.Width)
	c.imageDimY = float64(ty.Height)
	return nil
}

type tileJob struct {
	key  montage.Key
	grid *fgrid.Grid[uint8]
	err  error
}

func (c *CostFunction)materializeAll() error {
	keys := c.m.Keys()
	jobsChan := make(chan montage.Key, len(keys))
	resultsChan := make(chan tileJob, len(keys))

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobsChan {
				grid, err := c.materializeTile(key)
				resultsChan <- tileJob{key: key, grid: grid, err: err}
			}
		}()
	}

	for _, key := range keys {
		jobsChan <- key
	}
	close(jobsChan)
	wg.Wait()
	close(resultsChan)

	for res := range resultsChan {
		if res.err != nil {
			return res.err
		}
		c.images[res.key] = res.grid
	}
	return nil
}

// materializeTile builds the tile's image view, sized to at most the
// nominal footprint. The first row and column of grids larger than 2x2
// are anchored to their inner edge: only the overlap-bearing portion of
// an oversized edge tile takes part in registration.
func (c *CostFunction)materializeTile(key montage.Key) (*fgrid.Grid[uint8], error) {
	tile, ok := c.m.Tile(key)
	if !ok {
		c.sink.Errorf(ErrCodeMissingTile, "tile %s not populated", key)
		return nil, fmt.Errorf("fftreg (%d): tile %s not populated", ErrCodeMissingTile, key)
	}
	data, ok := tile.Array(c.arrayName)
	if !ok {
		c.sink.Errorf(ErrCodeMissingArray, "tile %s has no array %q", key, c.arrayName)
		return nil, fmt.Errorf("fftreg (%d): tile %s has no array %q", ErrCodeMissingArray, key, c.arrayName)
	}
	geomW, geomH := tile.Width, tile.Height
	if len(data) < geomW*geomH {
		c.sink.Errorf(ErrCodeBadGeometry, "tile %s array %q has %d values, geometry wants %d",
			key, c.arrayName, len(data), geomW*geomH)
		return nil, fmt.Errorf("fftreg (%d): tile %s array too short", ErrCodeBadGeometry, key)
	}

	// Dimensions and origins are in pixel units (physical origin divided
	// by spacing), so the whole montage behaves as if spacing were 1.
	xOrigin := tile.PixelOriginX()
	yOrigin := tile.PixelOriginY()
	tileW := geomW
	if w := int(math.Floor(c.imageDimX)); w < tileW { tileW = w }
	tileH := geomH
	if h := int(math.Floor(c.imageDimY)); h < tileH { tileH = h }

	offsetX, offsetY := 0, 0
	if key.Row == 0 && c.m.Rows() > 2 {
		offsetY = geomH - tileH
		yOrigin += int64(offsetY)
	}
	if key.Col == 0 && c.m.Cols() > 2 {
		offsetX = geomW - tileW
		xOrigin += int64(offsetX)
	}

	g := fgrid.NewGridAt[uint8](xOrigin, yOrigin, tileW, tileH)
	for ly := 0; ly < tileH; ly++ {
		for lx := 0; lx < tileW; lx++ {
			g.Set(xOrigin+int64(lx), yOrigin+int64(ly), data[(offsetY+ly)*geomW+offsetX+lx])
		}
	}
	return g, nil
}
