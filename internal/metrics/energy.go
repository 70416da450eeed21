package metrics

import (
	"math"

	"github.com/san-kum/verletsim/internal/physics"
)

// KineticEnergy averages the per-particle kinetic energy over all observed
// ticks.
type KineticEnergy struct {
	name    string
	samples int
	total   float64
	peak    float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(s *physics.Solver, t float64) {
	ke := s.KineticEnergy()
	e.total += ke
	e.peak = math.Max(e.peak, ke)
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Peak() float64 { return e.peak }

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.peak = 0
	e.samples = 0
}
