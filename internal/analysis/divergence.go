package analysis

import (
	"errors"
	"math"

	"github.com/san-kum/verletsim/internal/physics"
)

// Separation is the mean distance between same-index particles of two
// solvers. Only the common prefix of the populations is compared.
func Separation(a, b *physics.Solver) float64 {
	pa, pb := a.Particles(), b.Particles()
	n := min(len(pa), len(pb))
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += pa[i].Position.Sub(pb[i].Position).Length()
	}
	return sum / float64(n)
}

// SeparationExponent runs a reference solver next to one built with a
// perturbation eps and fits the growth rate of their separation:
// λ ≈ (1/t) * ln(d(t)/d(t0)), measured from the first tick the two runs
// differ at all.
func SeparationExponent(
	build func(perturbation float64) (*physics.Solver, error),
	ticks int,
	dt, eps float64,
) (float64, error) {
	ref, err := build(0)
	if err != nil {
		return 0, err
	}
	pert, err := build(eps)
	if err != nil {
		return 0, err
	}

	d0, t0 := 0.0, 0.0
	d, t := 0.0, 0.0
	for i := 0; i < ticks; i++ {
		ref.Tick(dt)
		pert.Tick(dt)
		t += dt

		d = Separation(ref, pert)
		if d0 == 0 && d > 0 {
			d0, t0 = d, t
		}
	}

	if d0 == 0 {
		return 0, errors.New("runs never separated")
	}
	if t == t0 {
		return 0, nil
	}
	return math.Log(d/d0) / (t - t0), nil
}
