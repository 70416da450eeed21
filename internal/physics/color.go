package physics

import (
	"image/color"
	"math"
)

const colorPhase = math.Pi / 3

// SpawnColor maps x onto a smooth rainbow: three sin² waves a third of a
// period apart, one per channel.
func SpawnColor(x float64) color.RGBA {
	channel := func(k float64) uint8 {
		s := math.Sin(x + colorPhase*k)
		return uint8(s * s * 255)
	}
	return color.RGBA{R: channel(0), G: channel(1), B: channel(2), A: 255}
}
