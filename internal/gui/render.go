package gui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/verletsim/internal/physics"
)

const (
	maxWindowW = 1280
	maxWindowH = 720
	padding    = 10
	headerH    = 36
)

// Layout maps simulation units onto window pixels.
type Layout struct {
	Scale   float32
	OriginX float32
	OriginY float32
	Width   int32
	Height  int32
}

// NewLayout picks the largest whole-pixel scale, at least 1, that fits the
// bounds inside the maximum window with padding and the header strip.
func NewLayout(bounds physics.Vec2) Layout {
	fitX := (maxWindowW - 2*padding) / bounds.X
	fitY := (maxWindowH - 2*padding - headerH) / bounds.Y
	scale := math.Max(1, math.Floor(math.Min(fitX, fitY)))

	return Layout{
		Scale:   float32(scale),
		OriginX: padding,
		OriginY: padding + headerH,
		Width:   int32(bounds.X*scale) + 2*padding,
		Height:  int32(bounds.Y*scale) + 2*padding + headerH,
	}
}

func (l Layout) project(p physics.Vec2) rl.Vector2 {
	return rl.NewVector2(
		l.OriginX+float32(p.X+0.5)*l.Scale,
		l.OriginY+float32(p.Y+0.5)*l.Scale,
	)
}

func (a *App) drawParticles() {
	radius := a.layout.Scale / 2
	for _, p := range a.Solver.Particles() {
		rl.DrawCircleV(a.layout.project(p.Position), radius, p.Color)
	}
}

func (a *App) drawBounds() {
	size := a.Solver.Size()
	rl.DrawRectangleLines(
		int32(a.layout.OriginX)-1,
		int32(a.layout.OriginY)-1,
		int32(float32(size.X)*a.layout.Scale)+2,
		int32(float32(size.Y)*a.layout.Scale)+2,
		ColGrid,
	)
}
