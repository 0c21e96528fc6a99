// Package montage holds the tile-grid data model: a rectangular grid of
// spatially adjacent images intended to be stitched. It is the boundary
// to the hosting pipeline - tiles carry named byte arrays whose storage
// the host owns; this package only describes geometry and lets callers
// borrow the data.
package montage

import(
	"fmt"
	"sort"
)

// Key addresses a grid cell by (column, row).
type Key struct {
	Col int
	Row int
}

func (k Key)String() string { return fmt.Sprintf("(%d,%d)", k.Col, k.Row) }

func (k Key)Right() Key  { return Key{Col: k.Col + 1, Row: k.Row} }
func (k Key)Bottom() Key { return Key{Col: k.Col, Row: k.Row + 1} }

// A Tile is one image of the montage: physical placement plus the host's
// named pixel arrays, row-major, one byte per pixel.
type Tile struct {
	OriginX  float64 // physical units
	OriginY  float64
	SpacingX float64 // physical units per pixel
	SpacingY float64
	Width    int
	Height   int
	Arrays   map[string][]uint8
}

// PixelOriginX is the tile's placement in pixel units, the coordinate
// frame all the registration geometry works in.
func (t *Tile)PixelOriginX() int64 { return int64(t.OriginX / t.SpacingX) }
func (t *Tile)PixelOriginY() int64 { return int64(t.OriginY / t.SpacingY) }

func (t *Tile)Array(name string) ([]uint8, bool) {
	a, ok := t.Arrays[name]
	return a, ok
}

// Montage is populated once, then read-only for the duration of a
// registration run.
type Montage struct {
	cols  int
	rows  int
	tiles map[Key]*Tile
}

func New(cols, rows int) *Montage {
	return &Montage{
		cols:  cols,
		rows:  rows,
		tiles: map[Key]*Tile{},
	}
}

func (m *Montage)Cols() int { return m.cols }
func (m *Montage)Rows() int { return m.rows }

func (m *Montage)SetTile(k Key, t *Tile) error {
	if k.Col < 0 || k.Col >= m.cols || k.Row < 0 || k.Row >= m.rows {
		return fmt.Errorf("tile key %s outside %dx%d grid", k, m.cols, m.rows)
	}
	if _, exists := m.tiles[k]; exists {
		return fmt.Errorf("tile %s already set", k)
	}
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("tile %s has degenerate dimensions %dx%d", k, t.Width, t.Height)
	}
	if t.SpacingX == 0 || t.SpacingY == 0 {
		return fmt.Errorf("tile %s has zero spacing", k)
	}
	m.tiles[k] = t
	return nil
}

func (m *Montage)Tile(k Key) (*Tile, bool) {
	t, ok := m.tiles[k]
	return t, ok
}

// Keys returns every populated cell in deterministic row-major order.
func (m *Montage)Keys() []Key {
	keys := make([]Key, 0, len(m.tiles))
	for k := range m.tiles {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return keys[i].Col < keys[j].Col
	})
	return keys
}
