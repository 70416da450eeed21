package physics

import (
	"github.com/aquilax/go-perlin"
)

// Emitter places the particles of a spawn batch. slot is the position of
// the particle within its batch and tick counts batches since the last reset.
type Emitter interface {
	Emit(tick, slot int, bounds Vec2) Vec2
}

// ColumnEmitter stacks a batch vertically at the left wall.
type ColumnEmitter struct {
	X       float64
	Y       float64
	Spacing float64
}

// DefaultEmitter returns the column used when no emitter is configured.
func DefaultEmitter() ColumnEmitter {
	return ColumnEmitter{X: -0.2, Y: 5.0, Spacing: 1.1}
}

func (c ColumnEmitter) Emit(_, slot int, bounds Vec2) Vec2 {
	y := c.Y + c.Spacing*float64(slot)
	return Vec2{X: c.X, Y: clampSpawn(y, bounds.Y)}
}

// WaveEmitter sways a column up and down along a 1D Perlin noise curve, so
// successive batches enter at different heights.
type WaveEmitter struct {
	Column    ColumnEmitter
	Amplitude float64
	Period    float64
	noise     *perlin.Perlin
}

// NewWaveEmitter seeds the noise source. The same seed always produces the
// same sequence of batch heights.
func NewWaveEmitter(amplitude, period float64, seed int64) *WaveEmitter {
	if period <= 0 {
		period = 60
	}
	return &WaveEmitter{
		Column:    DefaultEmitter(),
		Amplitude: amplitude,
		Period:    period,
		noise:     perlin.NewPerlin(2, 2, 3, seed),
	}
}

func (w *WaveEmitter) Emit(tick, slot int, bounds Vec2) Vec2 {
	offset := w.Amplitude * (w.noise.Noise1D(float64(tick)/w.Period) + 0.5)
	if offset < 0 {
		offset = 0
	}
	pos := w.Column.Emit(tick, slot, bounds)
	pos.Y = clampSpawn(pos.Y+offset, bounds.Y)
	return pos
}

func clampSpawn(y, height float64) float64 {
	if y > height-1 {
		y = height - 1
	}
	if y < 0 {
		y = 0
	}
	return y
}
