package metrics

import (
	"math"

	"github.com/san-kum/verletsim/internal/physics"
)

// Penetration tracks the deepest overlap 1-d between any two particles that
// share a grid neighborhood. A settled pile stays well below 1.
type Penetration struct {
	name  string
	worst float64
}

func NewPenetration() *Penetration {
	return &Penetration{name: "penetration"}
}

func (p *Penetration) Name() string { return p.name }

func (p *Penetration) Observe(s *physics.Solver, t float64) {
	p.worst = math.Max(p.worst, MaxOverlap(s))
}

func (p *Penetration) Value() float64 { return p.worst }
func (p *Penetration) Reset()         { p.worst = 0 }

// MaxOverlap scans the grid for the deepest overlapping pair.
func MaxOverlap(s *physics.Solver) float64 {
	g := s.Grid()
	particles := s.Particles()
	worst := 0.0
	for index := 0; index < g.Len(); index++ {
		near := g.Nearby(index)
		for _, i := range near[4].Indices() {
			if int(i) >= len(particles) {
				continue
			}
			for _, cell := range near {
				for _, j := range cell.Indices() {
					if j <= i || int(j) >= len(particles) {
						continue
					}
					d := particles[i].Position.Sub(particles[j].Position).Length()
					if d < 1 {
						worst = math.Max(worst, 1-d)
					}
				}
			}
		}
	}
	return worst
}

// Containment is the lowest fraction of particles found inside the bounds
// over all observed ticks. Anything below 1 is a solver bug.
type Containment struct {
	name    string
	lowest  float64
	samples int
}

func NewContainment() *Containment {
	return &Containment{name: "containment", lowest: 1}
}

func (c *Containment) Name() string { return c.name }

func (c *Containment) Observe(s *physics.Solver, t float64) {
	c.samples++
	particles := s.Particles()
	if len(particles) == 0 {
		return
	}
	hi := s.Size().Sub(physics.Vec2{X: 1, Y: 1})
	inside := 0
	for i := range particles {
		p := particles[i].Position
		if p.X >= 0 && p.Y >= 0 && p.X <= hi.X && p.Y <= hi.Y {
			inside++
		}
	}
	c.lowest = math.Min(c.lowest, float64(inside)/float64(len(particles)))
}

func (c *Containment) Value() float64 { return c.lowest }

func (c *Containment) Reset() {
	c.lowest = 1
	c.samples = 0
}
