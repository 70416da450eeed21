package physics

import (
	"math"

	"github.com/san-kum/verletsim/internal/parallel"
)

const (
	// CellCapacity is the number of particle indices a cell can hold.
	// Insertions past it are dropped for that sub-step.
	CellCapacity = 4

	// MaxDimension is the largest grid side accepted, so cell coordinates
	// always fit in an int16.
	MaxDimension = math.MaxInt16

	// neighborReach is how many rows above or below a cell Nearby touches.
	neighborReach = 1
)

// Cell is a fixed-capacity bucket of particle indices.
type Cell struct {
	items [CellCapacity]int32
	count uint8
}

// emptyCell stands in for out-of-range neighbors. It is never written.
var emptyCell Cell

func (c *Cell) add(index int32) bool {
	if c.count >= CellCapacity {
		return false
	}
	c.items[c.count] = index
	c.count++
	return true
}

func (c *Cell) Len() int { return int(c.count) }

// Indices returns a view of the particle indices in the cell. The view is
// only valid until the next grid rebuild.
func (c *Cell) Indices() []int32 {
	return c.items[:c.count]
}

// Grid is a dense uniform lattice with one cell per unit of area.
// Index = y*Width + x.
type Grid struct {
	width    int
	height   int
	cells    []Cell
	overflow int
}

// NewGrid allocates a width x height grid.
func NewGrid(width, height int) (*Grid, error) {
	if width > MaxDimension || height > MaxDimension {
		return nil, &ConfigError{Field: "size", Value: float64(max(width, height)), Wrapped: ErrSizeTooLarge}
	}
	if width < 1 || height < 1 {
		return nil, &ConfigError{Field: "size", Value: float64(min(width, height)), Wrapped: ErrInvalidSize}
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
	}, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }
func (g *Grid) Len() int    { return len(g.cells) }

// Overflow reports how many insertions were dropped since the last clear.
func (g *Grid) Overflow() int { return g.overflow }

// Index returns the flat index of (x, y). It does not bounds-check.
func (g *Grid) Index(x, y int) int {
	return y*g.width + x
}

// At returns the cell at (x, y), or a shared empty cell when out of range.
func (g *Grid) At(x, y int) *Cell {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return &emptyCell
	}
	return &g.cells[g.Index(x, y)]
}

// Cell returns the cell at a flat index.
func (g *Grid) Cell(index int) *Cell {
	return &g.cells[index]
}

// Nearby returns the 3x3 neighborhood of a flat index in row-major order,
// so slot 4 is the cell itself.
func (g *Grid) Nearby(index int) [9]*Cell {
	x, y := index%g.width, index/g.width
	return [9]*Cell{
		g.At(x-1, y-1), g.At(x, y-1), g.At(x+1, y-1),
		g.At(x-1, y), g.At(x, y), g.At(x+1, y),
		g.At(x-1, y+1), g.At(x, y+1), g.At(x+1, y+1),
	}
}

// insert hashes a particle index by its truncated position. Positions off
// the lattice and full cells are counted as overflow.
func (g *Grid) insert(index int32, pos Vec2) bool {
	if !(pos.X > -1 && pos.Y > -1) {
		g.overflow++
		return false
	}
	x, y := int(pos.X), int(pos.Y)
	if x >= g.width || y >= g.height {
		g.overflow++
		return false
	}
	if !g.cells[g.Index(x, y)].add(index) {
		g.overflow++
		return false
	}
	return true
}

func (g *Grid) clear(pool *parallel.Pool) {
	g.overflow = 0
	pool.For(len(g.cells), 4096, func(start, end int) {
		for i := start; i < end; i++ {
			g.cells[i].count = 0
		}
	})
}
