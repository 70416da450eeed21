// Package physics implements the particle solver: Verlet integration of
// unit-diameter point masses under gravity, a uniform grid broad-phase and a
// lock-free parallel collision pass.
//
//   - [Particle]: position, previous position, pending acceleration, color
//   - [Grid]: one 4-slot [Cell] per unit of area, rebuilt every sub-step
//   - [Solver]: owns the population and runs [Solver.Tick]
//
// # Example
//
//	s, err := physics.New(physics.Vec2{X: 128, Y: 128})
//	if err != nil {
//	    return err
//	}
//	for !done {
//	    s.Tick(1.0 / 60)
//	}
//
// # Parallel collisions
//
// The grid is cut into bands of [DefaultBandRows] full rows. All even bands
// are resolved in parallel, then all odd bands. A cell's neighborhood reaches
// one row up and down, so two bands of the same parity never share a
// particle and the shared particle slice needs no locks. Results are
// identical for any worker count.
//
// # Thread Safety
//
// A Solver is NOT safe for concurrent use. Drive it from one goroutine.
package physics
