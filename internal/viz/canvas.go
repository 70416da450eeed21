package viz

import (
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBase = 0x2800

var defaultTint = colorful.Color{R: 0, G: 1, B: 0.5}

// Canvas is a braille canvas with one blended tint per character cell.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	tint          [][]colorful.Color
	hits          [][]int
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		tint:   make([][]colorful.Color, h),
		hits:   make([][]int, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.tint[i] = make([]colorful.Color, w)
		c.hits[i] = make([]int, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) locate(x, y int) (col, row int, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, false
	}
	return col, row, true
}

// Set turns on the sub-pixel (x, y). The canvas is Width*2 by Height*4
// sub-pixels.
func (c *Canvas) Set(x, y int) {
	col, row, ok := c.locate(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// SetColor turns on a sub-pixel and blends clr into its cell tint.
func (c *Canvas) SetColor(x, y int, clr color.RGBA) {
	col, row, ok := c.locate(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])

	next := colorful.Color{R: float64(clr.R) / 255, G: float64(clr.G) / 255, B: float64(clr.B) / 255}
	c.hits[row][col]++
	if c.hits[row][col] == 1 {
		c.tint[row][col] = next
		return
	}
	c.tint[row][col] = c.tint[row][col].BlendRgb(next, 1/float64(c.hits[row][col]))
}

func (c *Canvas) IsSet(x, y int) bool {
	col, row, ok := c.locate(x, y)
	if !ok {
		return false
	}
	return c.Grid[row][col]&rune(pixelMap[y%4][x%2]) != 0
}

// TintHex returns the blended color of a character cell, or the default
// tint when nothing colored was drawn there.
func (c *Canvas) TintHex(col, row int) string {
	if row < 0 || row >= c.Height || col < 0 || col >= c.Width || c.hits[row][col] == 0 {
		return defaultTint.Hex()
	}
	return c.tint[row][col].Hex()
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBase
			c.hits[i][j] = 0
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render is String with each non-empty character colored by its tint.
func (c *Canvas) Render() string {
	var b strings.Builder
	for row, runes := range c.Grid {
		for col, r := range runes {
			if r == brailleBase {
				b.WriteRune(r)
				continue
			}
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(c.TintHex(col, row)))
			b.WriteString(style.Render(string(r)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
