package physics

import (
	"image/color"
	"math"

	"github.com/san-kum/verletsim/internal/parallel"
)

const (
	// DefaultSubsteps is the number of integration sub-steps per tick.
	DefaultSubsteps = 8
	// DefaultSpawnBatch is the number of particles added per tick while filling.
	DefaultSpawnBatch = 10
	// DefaultBandRows is the height of a collision band in grid rows.
	DefaultBandRows = 4
	// Density is the capacity target in particles per unit of area.
	Density = 1.14

	minSeparation = 0.0001
)

// DefaultGravity is the downward acceleration applied every sub-step.
var DefaultGravity = Vec2{X: 0, Y: 20}

// Phase is the spawn state of a solver.
type Phase int

const (
	Filling Phase = iota
	Full
)

func (p Phase) String() string {
	if p == Full {
		return "full"
	}
	return "filling"
}

// Option configures a Solver at construction.
type Option func(*Solver)

func WithGravity(g Vec2) Option        { return func(s *Solver) { s.gravity = g } }
func WithDrag(c float64) Option        { return func(s *Solver) { s.drag = c } }
func WithSubsteps(n int) Option        { return func(s *Solver) { s.substeps = n } }
func WithSpawnBatch(n int) Option      { return func(s *Solver) { s.batch = n } }
func WithBandRows(rows int) Option     { return func(s *Solver) { s.bandRows = rows } }
func WithEmitter(e Emitter) Option     { return func(s *Solver) { s.emitter = e } }
func WithPool(p *parallel.Pool) Option { return func(s *Solver) { s.pool = p } }

// WithWorkers sizes the worker pool. Zero selects one worker per CPU.
func WithWorkers(n int) Option {
	return func(s *Solver) { s.pool = parallel.New(n) }
}

// Solver owns a particle population and advances it tick by tick.
//
// A Solver is not safe for concurrent use: Tick, Reset, SetSize and
// SetColors must all be called from the same goroutine. Tick itself fans
// out over the worker pool internally.
type Solver struct {
	size       Vec2
	area       float64
	maxObjects int
	grid       *Grid
	bands      bandSchedule
	particles  []Particle
	palette    []color.RGBA

	pool     *parallel.Pool
	gravity  Vec2
	drag     float64
	substeps int
	batch    int
	bandRows int
	emitter  Emitter

	tick  int
	subDt float64
}

// New builds a solver for the given bounds.
func New(size Vec2, opts ...Option) (*Solver, error) {
	s := &Solver{
		gravity:  DefaultGravity,
		substeps: DefaultSubsteps,
		batch:    DefaultSpawnBatch,
		bandRows: DefaultBandRows,
		emitter:  DefaultEmitter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pool == nil {
		s.pool = parallel.New(0)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	if err := s.SetSize(size); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Solver) validate() error {
	if !validBandRows(s.bandRows) {
		return &ConfigError{Field: "band_rows", Value: float64(s.bandRows), Wrapped: ErrBandTooNarrow}
	}
	if s.substeps < 1 {
		return &ConfigError{Field: "substeps", Value: float64(s.substeps), Wrapped: ErrInvalidOption}
	}
	if s.batch < 1 {
		return &ConfigError{Field: "spawn_batch", Value: float64(s.batch), Wrapped: ErrInvalidOption}
	}
	if s.drag < 0 || s.drag >= 1 || math.IsNaN(s.drag) {
		return &ConfigError{Field: "drag", Value: s.drag, Wrapped: ErrInvalidOption}
	}
	if s.emitter == nil {
		s.emitter = DefaultEmitter()
	}
	return nil
}

// SetSize replaces the bounds, rebuilds the grid, clears the palette and
// discards every particle. On error the solver is left unchanged.
func (s *Solver) SetSize(size Vec2) error {
	if math.Max(size.X, size.Y) > MaxDimension {
		return &ConfigError{Field: "size", Value: math.Max(size.X, size.Y), Wrapped: ErrSizeTooLarge}
	}
	if !(size.X >= 1 && size.Y >= 1) {
		return &ConfigError{Field: "size", Value: math.Min(size.X, size.Y), Wrapped: ErrInvalidSize}
	}
	grid, err := NewGrid(int(size.X), int(size.Y))
	if err != nil {
		return err
	}

	s.size = size
	s.area = size.X * size.Y
	s.maxObjects = int(math.Floor(s.area * Density))
	s.grid = grid
	s.bands = newBandSchedule(grid, s.bandRows)
	s.palette = nil
	s.particles = make([]Particle, 0, s.maxObjects)
	s.tick = 0
	return nil
}

// SetColors installs a spawn-order palette. A palette shorter than
// max(Len, MaxObjects) is rejected and leaves the solver with no palette.
func (s *Solver) SetColors(palette []color.RGBA) bool {
	if palette == nil || len(palette) < max(len(s.particles), s.maxObjects) {
		s.palette = nil
		return false
	}
	s.palette = palette
	return true
}

// Reset discards every particle and keeps bounds, capacity and palette.
func (s *Solver) Reset() {
	s.particles = s.particles[:0]
	s.tick = 0
}

func (s *Solver) Size() Vec2        { return s.size }
func (s *Solver) Area() float64     { return s.area }
func (s *Solver) MaxObjects() int   { return s.maxObjects }
func (s *Solver) HasColors() bool   { return s.palette != nil }
func (s *Solver) Len() int          { return len(s.particles) }
func (s *Solver) Workers() int      { return s.pool.Workers() }
func (s *Solver) Substeps() int     { return s.substeps }
func (s *Solver) BandRows() int     { return s.bandRows }
func (s *Solver) Grid() *Grid       { return s.grid }
func (s *Solver) Gravity() Vec2     { return s.gravity }
func (s *Solver) Drag() float64     { return s.drag }
func (s *Solver) SpawnBatch() int   { return s.batch }
func (s *Solver) SubDelta() float64 { return s.subDt }

// Particles returns the live population. The slice is owned by the solver
// and must not be modified or retained across Tick.
func (s *Solver) Particles() []Particle { return s.particles }

func (s *Solver) Phase() Phase {
	if len(s.particles) >= s.maxObjects {
		return Full
	}
	return Filling
}

// Tick advances the simulation by delta seconds: one spawn batch while
// filling, then Substeps rounds of grid rebuild, collision resolution and
// integration.
func (s *Solver) Tick(delta float64) {
	if s.Phase() == Filling {
		s.spawn(s.batch)
	}
	s.tick++

	s.subDt = delta / float64(s.substeps)
	for i := 0; i < s.substeps; i++ {
		s.rebuildGrid()
		s.solveCollisions()
		s.integrate(s.subDt)
	}
}

func (s *Solver) spawn(count int) {
	count = min(count, s.maxObjects-len(s.particles))
	for i := 0; i < count; i++ {
		index := len(s.particles)
		p := NewParticle(s.emitter.Emit(s.tick, i, s.size))
		if s.palette != nil {
			p.Color = s.palette[index]
		} else {
			p.Color = SpawnColor(float64(index) / float64(s.maxObjects) * math.Pi)
		}
		s.particles = append(s.particles, p)
	}
}

func (s *Solver) rebuildGrid() {
	s.grid.clear(s.pool)
	for i := range s.particles {
		s.grid.insert(int32(i), s.particles[i].Position)
	}
}

func (s *Solver) integrate(dt float64) {
	hi := s.size.Sub(Vec2{X: 1, Y: 1})
	s.pool.For(len(s.particles), 1024, func(start, end int) {
		for i := start; i < end; i++ {
			p := &s.particles[i]
			p.Acceleration = p.Acceleration.Add(s.gravity)
			p.integrate(dt, s.drag)
			p.Position = p.Position.Clamp(Vec2{}, hi)
		}
	})
}

// KineticEnergy returns the mean per-particle kinetic energy over the last
// sub-step, taking unit mass.
func (s *Solver) KineticEnergy() float64 {
	if len(s.particles) == 0 || s.subDt == 0 {
		return 0
	}
	sum := 0.0
	for i := range s.particles {
		sum += s.particles[i].Velocity().LengthSq()
	}
	return sum / (2 * s.subDt * s.subDt * float64(len(s.particles)))
}
