package metrics

import "github.com/san-kum/verletsim/internal/physics"

// Population reports the particle count at the last observed tick.
type Population struct {
	name string
	last int
}

func NewPopulation() *Population {
	return &Population{name: "population"}
}

func (p *Population) Name() string                         { return p.name }
func (p *Population) Observe(s *physics.Solver, t float64) { p.last = s.Len() }
func (p *Population) Value() float64                       { return float64(p.last) }
func (p *Population) Reset()                               { p.last = 0 }

// Overflow averages the grid insertions dropped per tick because a cell was
// full or a particle was off the lattice.
type Overflow struct {
	name    string
	samples int
	dropped int
}

func NewOverflow() *Overflow {
	return &Overflow{name: "overflow"}
}

func (o *Overflow) Name() string { return o.name }

func (o *Overflow) Observe(s *physics.Solver, t float64) {
	o.dropped += s.Grid().Overflow()
	o.samples++
}

func (o *Overflow) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return float64(o.dropped) / float64(o.samples)
}

func (o *Overflow) Reset() {
	o.dropped = 0
	o.samples = 0
}
