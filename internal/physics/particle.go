package physics

import "image/color"

// Particle is a unit-diameter point mass. Velocity is stored implicitly as
// Position - Previous.
type Particle struct {
	Position     Vec2
	Previous     Vec2
	Acceleration Vec2
	Color        color.RGBA
}

// NewParticle returns a particle at rest at pos.
func NewParticle(pos Vec2) Particle {
	return Particle{Position: pos, Previous: pos}
}

// Velocity returns the displacement over the last sub-step.
func (p *Particle) Velocity() Vec2 {
	return p.Position.Sub(p.Previous)
}

// integrate advances one Verlet sub-step. Previous is written only here.
func (p *Particle) integrate(dt, drag float64) {
	pos := p.Position
	displacement := pos.Sub(p.Previous)
	next := pos.
		Add(displacement.Scale(1 - drag)).
		Add(p.Acceleration.Scale(dt * dt))

	p.Previous = pos
	p.Position = next
	p.Acceleration = Vec2{}
}
