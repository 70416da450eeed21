package recolor

import (
	"image"

	"github.com/san-kum/verletsim/internal/physics"
)

// Director turns a settled procedural fill into an image: once the solver
// has been full and uncolored for the settle period, it snapshots which
// particle ended up in which cell, installs the matching palette and
// restarts the fill. Replaying the same spawns then paints the image.
type Director struct {
	image image.Image
	timer *SettleTimer
}

// NewDirector returns a director for img, which may be nil until Load.
func NewDirector(img image.Image, settle float64) *Director {
	return &Director{image: img, timer: NewSettleTimer(settle)}
}

func (d *Director) Image() image.Image  { return d.image }
func (d *Director) Timer() *SettleTimer { return d.timer }
func (d *Director) HasImage() bool      { return d.image != nil }

// Load resizes the solver to the image and starts a fresh uncolored fill.
// On error neither the solver nor the director change.
func (d *Director) Load(s *physics.Solver, img image.Image) error {
	if err := CheckBounds(img.Bounds()); err != nil {
		return err
	}
	if err := s.SetSize(Bounds(img)); err != nil {
		return err
	}
	d.image = img
	d.timer.Reset()
	return nil
}

// Restart drops the palette and starts a fresh uncolored fill.
func (d *Director) Restart(s *physics.Solver) {
	s.SetColors(nil)
	s.Reset()
	d.timer.Reset()
}

// Recolor maps the image onto the current grid occupancy and restarts the
// fill with that palette. It reports whether a palette was installed.
func (d *Director) Recolor(s *physics.Solver) bool {
	d.timer.Reset()
	if d.image == nil {
		return false
	}
	palette := MapColors(d.image, s.Grid(), max(s.Len(), s.MaxObjects()))
	if !s.SetColors(palette) {
		return false
	}
	s.Reset()
	return true
}

// Advance is called once per tick, before Solver.Tick, with the tick's
// simulated duration. It reports whether a recolor happened.
func (d *Director) Advance(s *physics.Solver, dt float64) bool {
	waiting := d.image != nil && s.Phase() == physics.Full && !s.HasColors()
	if !d.timer.Step(waiting, dt) {
		return false
	}
	return d.Recolor(s)
}
