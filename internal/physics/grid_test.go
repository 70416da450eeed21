package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/verletsim/internal/parallel"
)

func TestNewGridRejectsBadSizes(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		want          error
	}{
		{"too wide", MaxDimension + 1, 10, ErrSizeTooLarge},
		{"too tall", 10, 40000, ErrSizeTooLarge},
		{"zero width", 0, 10, ErrInvalidSize},
		{"negative height", 10, -1, ErrInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.width, tt.height)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := NewGrid(MaxDimension, 1); err != nil {
		t.Errorf("max dimension rejected: %v", err)
	}
}

func TestGridInsertOverflow(t *testing.T) {
	g, err := NewGrid(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 6; i++ {
		g.insert(int32(i), Vec2{X: 1.5, Y: 2.5})
	}

	cell := g.At(1, 2)
	if cell.Len() != CellCapacity {
		t.Errorf("cell len = %d, want %d", cell.Len(), CellCapacity)
	}
	if g.Overflow() != 2 {
		t.Errorf("overflow = %d, want 2", g.Overflow())
	}
	for k, idx := range cell.Indices() {
		if int(idx) != k {
			t.Errorf("slot %d holds %d, want insertion order", k, idx)
		}
	}
}

func TestGridInsertTruncates(t *testing.T) {
	g, _ := NewGrid(4, 4)

	tests := []struct {
		name string
		pos  Vec2
		ok   bool
		x, y int
	}{
		{"interior", Vec2{X: 2.9, Y: 0.1}, true, 2, 0},
		{"emitter inset", Vec2{X: -0.2, Y: 3.0}, true, 0, 3},
		{"far left", Vec2{X: -1.5, Y: 1}, false, 0, 0},
		{"past right", Vec2{X: 4.0, Y: 1}, false, 0, 0},
		{"nan", Vec2{X: math.NaN(), Y: 1}, false, 0, 0},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.insert(int32(i), tt.pos); got != tt.ok {
				t.Fatalf("insert = %v, want %v", got, tt.ok)
			}
			if !tt.ok {
				return
			}
			found := false
			for _, idx := range g.At(tt.x, tt.y).Indices() {
				if int(idx) == i {
					found = true
				}
			}
			if !found {
				t.Errorf("index %d not in cell (%d,%d)", i, tt.x, tt.y)
			}
		})
	}
}

func TestNearbyUsesEmptyCellOffGrid(t *testing.T) {
	g, _ := NewGrid(3, 3)
	near := g.Nearby(0)

	for _, slot := range []int{0, 1, 2, 3, 6} {
		if near[slot] != &emptyCell {
			t.Errorf("slot %d should be the shared empty cell", slot)
		}
	}
	if near[4] != g.Cell(0) {
		t.Error("slot 4 should be the cell itself")
	}
	if near[8] != g.At(1, 1) {
		t.Error("slot 8 should be the lower-right neighbor")
	}

	center := g.Nearby(g.Index(1, 1))
	for slot, c := range center {
		if c == &emptyCell {
			t.Errorf("interior slot %d mapped to empty cell", slot)
		}
	}
}

func TestGridClear(t *testing.T) {
	g, _ := NewGrid(64, 64)
	for i := 0; i < 1000; i++ {
		g.insert(int32(i), Vec2{X: float64(i % 64), Y: float64(i / 64 % 64)})
	}
	for i := 0; i < 10; i++ {
		g.insert(int32(i), Vec2{X: 0, Y: 0})
	}

	g.clear(parallel.New(4))

	if g.Overflow() != 0 {
		t.Errorf("overflow = %d after clear", g.Overflow())
	}
	for i := 0; i < g.Len(); i++ {
		if g.Cell(i).Len() != 0 {
			t.Fatalf("cell %d not cleared", i)
		}
	}
}
