package recolor

import (
	"image"
	"image/color"

	"github.com/san-kum/verletsim/internal/physics"
)

var unclaimed = color.RGBA{A: 255}

// MapColors builds a spawn-order palette of n colors from the current grid
// occupancy. Every particle index found in the cell at (x, y) takes the
// color of the pixel at (x, y). Indices not found in any cell stay opaque
// black.
func MapColors(img image.Image, grid *physics.Grid, n int) []color.RGBA {
	palette := make([]color.RGBA, n)
	for i := range palette {
		palette[i] = unclaimed
	}

	r := img.Bounds()
	w := min(grid.Width(), r.Dx())
	h := min(grid.Height(), r.Dy())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cell := grid.At(x, y)
			if cell.Len() == 0 {
				continue
			}
			c := color.RGBAModel.Convert(img.At(r.Min.X+x, r.Min.Y+y)).(color.RGBA)
			for _, idx := range cell.Indices() {
				if int(idx) < n {
					palette[idx] = c
				}
			}
		}
	}
	return palette
}
