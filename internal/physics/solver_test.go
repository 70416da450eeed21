package physics

import (
	"errors"
	"image/color"
	"math"
	"testing"
)

const testDelta = 1.0 / 60

func newTestSolver(t *testing.T, w, h float64, opts ...Option) *Solver {
	t.Helper()
	s, err := New(Vec2{X: w, Y: h}, opts...)
	if err != nil {
		t.Fatalf("New(%v, %v): %v", w, h, err)
	}
	return s
}

func place(s *Solver, positions ...Vec2) {
	s.particles = s.particles[:0]
	for _, pos := range positions {
		s.particles = append(s.particles, NewParticle(pos))
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name  string
		size  Vec2
		opts  []Option
		want  error
		field string
	}{
		{"wide bounds", Vec2{X: 40000, Y: 10}, nil, ErrSizeTooLarge, "size"},
		{"tall bounds", Vec2{X: 10, Y: 32768}, nil, ErrSizeTooLarge, "size"},
		{"empty bounds", Vec2{X: 0.5, Y: 10}, nil, ErrInvalidSize, "size"},
		{"one-row bands", Vec2{X: 32, Y: 32}, []Option{WithBandRows(1)}, ErrBandTooNarrow, "band_rows"},
		{"two-row bands", Vec2{X: 32, Y: 32}, []Option{WithBandRows(2)}, ErrBandTooNarrow, "band_rows"},
		{"no substeps", Vec2{X: 32, Y: 32}, []Option{WithSubsteps(0)}, ErrInvalidOption, "substeps"},
		{"empty batch", Vec2{X: 32, Y: 32}, []Option{WithSpawnBatch(0)}, ErrInvalidOption, "spawn_batch"},
		{"full drag", Vec2{X: 32, Y: 32}, []Option{WithDrag(1)}, ErrInvalidOption, "drag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("err %T is not a *ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestMaxObjects(t *testing.T) {
	tests := []struct {
		w, h float64
		want int
	}{
		{32, 32, 1167},
		{128, 128, 18677},
		{64, 32, 2334},
		{16, 16, 291},
	}

	for _, tt := range tests {
		s := newTestSolver(t, tt.w, tt.h)
		if s.MaxObjects() != tt.want {
			t.Errorf("%vx%v: MaxObjects = %d, want %d", tt.w, tt.h, s.MaxObjects(), tt.want)
		}
		if s.Area() != tt.w*tt.h {
			t.Errorf("%vx%v: Area = %v", tt.w, tt.h, s.Area())
		}
	}
}

func TestCapacityConvergence(t *testing.T) {
	s := newTestSolver(t, 32, 32)

	prev := 0
	for tick := 1; tick <= 130; tick++ {
		s.Tick(testDelta)
		want := min(prev+DefaultSpawnBatch, 1167)
		if s.Len() != want {
			t.Fatalf("tick %d: Len = %d, want %d", tick, s.Len(), want)
		}
		prev = s.Len()
	}

	if s.Phase() != Full {
		t.Errorf("phase = %v, want full", s.Phase())
	}
}

func TestBoundaryClamp(t *testing.T) {
	s := newTestSolver(t, 32, 32, WithGravity(Vec2{}))
	s.particles = append(s.particles,
		Particle{Position: Vec2{X: 30.9, Y: 30.9}, Previous: Vec2{X: 29.9, Y: 29.9}},
		Particle{Position: Vec2{X: 0.2, Y: 5}, Previous: Vec2{X: 1.2, Y: 5}},
	)

	s.integrate(testDelta / DefaultSubsteps)

	if got := s.particles[0].Position; got != (Vec2{X: 31, Y: 31}) {
		t.Errorf("lower-right particle = %+v, want (31, 31)", got)
	}
	if got := s.particles[1].Position.X; got != 0 {
		t.Errorf("left particle x = %v, want 0", got)
	}
}

func TestCollisionSeparation(t *testing.T) {
	distances := []float64{0.001, 0.25, 0.5, 0.75, 0.99}

	for _, d := range distances {
		s := newTestSolver(t, 32, 32, WithGravity(Vec2{}))
		a := Vec2{X: 10.3, Y: 10.4}
		b := a.Add(Vec2{X: d * 0.6, Y: d * 0.8})
		place(s, a, b)
		mid := a.Add(b).Scale(0.5)

		s.rebuildGrid()
		s.solveCollisions()

		pa, pb := s.particles[0].Position, s.particles[1].Position
		if got := pa.Sub(pb).Length(); math.Abs(got-1) > 1e-9 {
			t.Errorf("d=%v: separation = %v, want 1", d, got)
		}
		if got := pa.Add(pb).Scale(0.5); got.Sub(mid).Length() > 1e-9 {
			t.Errorf("d=%v: midpoint moved from %+v to %+v", d, mid, got)
		}
	}
}

func TestCollisionOutsideRangeIsNoop(t *testing.T) {
	tests := []struct {
		name   string
		offset Vec2
	}{
		{"touching", Vec2{X: 1}},
		{"apart", Vec2{X: 1.5}},
		{"diagonal apart", Vec2{X: 0.8, Y: 0.8}},
		{"coincident", Vec2{}},
		{"below epsilon", Vec2{X: 0.00005}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSolver(t, 32, 32)
			a := Vec2{X: 8, Y: 8}
			b := a.Add(tt.offset)
			place(s, a, b)

			s.rebuildGrid()
			s.solveCollisions()

			if s.particles[0].Position != a || s.particles[1].Position != b {
				t.Errorf("positions changed: %+v %+v", s.particles[0].Position, s.particles[1].Position)
			}
		})
	}
}

func TestBandSchedule(t *testing.T) {
	s := newTestSolver(t, 10, 30)

	if s.Bands() != 8 {
		t.Fatalf("Bands = %d, want 8", s.Bands())
	}

	covered := make([]int, s.Grid().Len())
	for _, phase := range [][]band{s.bands.even, s.bands.odd} {
		for k, b := range phase {
			for c := b.start; c < b.end; c++ {
				covered[c]++
			}
			if k > 0 {
				gap := b.start - phase[k-1].end
				if gap < 2*neighborReach*s.Grid().Width() {
					t.Errorf("bands %d and %d of one phase are only %d cells apart", k-1, k, gap)
				}
			}
		}
	}
	for c, n := range covered {
		if n != 1 {
			t.Fatalf("cell %d covered %d times", c, n)
		}
	}

	last := s.bands.odd[len(s.bands.odd)-1]
	if last.end-last.start != 2*10 {
		t.Errorf("trailing band covers %d cells, want 20", last.end-last.start)
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	serial := newTestSolver(t, 64, 64, WithWorkers(1))
	fanned := newTestSolver(t, 64, 64, WithWorkers(8))
	if serial.Bands() < 3 {
		t.Fatalf("need at least 3 bands, got %d", serial.Bands())
	}

	for i := 0; i < 200; i++ {
		serial.Tick(testDelta)
		fanned.Tick(testDelta)
	}

	if serial.Len() != fanned.Len() {
		t.Fatalf("Len %d != %d", serial.Len(), fanned.Len())
	}
	for i := range serial.particles {
		a, b := serial.particles[i], fanned.particles[i]
		if a.Position != b.Position || a.Previous != b.Previous {
			t.Fatalf("particle %d diverged: %+v vs %+v", i, a, b)
		}
	}
}

func TestSetColors(t *testing.T) {
	s := newTestSolver(t, 32, 32)

	if s.SetColors(make([]color.RGBA, 100)) {
		t.Error("short palette accepted")
	}
	if s.HasColors() {
		t.Error("HasColors after rejected palette")
	}

	s.Tick(testDelta)
	if got := s.Particles()[0].Color; got != SpawnColor(0) {
		t.Errorf("procedural color = %+v, want %+v", got, SpawnColor(0))
	}

	red := color.RGBA{R: 255, A: 255}
	palette := make([]color.RGBA, s.MaxObjects())
	for i := range palette {
		palette[i] = red
	}
	if !s.SetColors(palette) {
		t.Fatal("full-length palette rejected")
	}

	s.Reset()
	if !s.HasColors() {
		t.Error("Reset dropped the palette")
	}
	s.Tick(testDelta)
	for i, p := range s.Particles() {
		if p.Color != red {
			t.Fatalf("particle %d color = %+v, want palette color", i, p.Color)
		}
	}

	s.SetColors(nil)
	if s.HasColors() {
		t.Error("nil palette kept colors")
	}
}

func TestSetSize(t *testing.T) {
	s := newTestSolver(t, 32, 32)
	for i := 0; i < 5; i++ {
		s.Tick(testDelta)
	}
	s.SetColors(make([]color.RGBA, s.MaxObjects()))

	err := s.SetSize(Vec2{X: 40000, Y: 40000})
	if !errors.Is(err, ErrSizeTooLarge) {
		t.Fatalf("err = %v, want ErrSizeTooLarge", err)
	}
	if s.Len() != 50 || s.Size() != (Vec2{X: 32, Y: 32}) || !s.HasColors() {
		t.Error("failed SetSize modified the solver")
	}

	if err := s.SetSize(Vec2{X: 64, Y: 32}); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d after resize", s.Len())
	}
	if s.HasColors() {
		t.Error("palette survived resize")
	}
	if s.MaxObjects() != 2334 {
		t.Errorf("MaxObjects = %d, want 2334", s.MaxObjects())
	}
	if s.Grid().Width() != 64 || s.Grid().Height() != 32 {
		t.Errorf("grid = %dx%d", s.Grid().Width(), s.Grid().Height())
	}
}

func TestReset(t *testing.T) {
	s := newTestSolver(t, 32, 32)
	for i := 0; i < 20; i++ {
		s.Tick(testDelta)
	}
	s.Reset()

	if s.Len() != 0 || s.Phase() != Filling {
		t.Errorf("after Reset: Len = %d, phase = %v", s.Len(), s.Phase())
	}
	if s.MaxObjects() != 1167 {
		t.Errorf("Reset changed capacity to %d", s.MaxObjects())
	}

	s.Tick(testDelta)
	if s.Len() != DefaultSpawnBatch {
		t.Errorf("Len after refill tick = %d", s.Len())
	}
}

func TestSpawnStaysInsideTinyBounds(t *testing.T) {
	s := newTestSolver(t, 4, 4, WithGravity(Vec2{}))
	s.Tick(testDelta)

	for i, p := range s.Particles() {
		if p.Position.Y < 0 || p.Position.Y > 3 {
			t.Errorf("particle %d spawned at y=%v", i, p.Position.Y)
		}
	}
}

func TestWaveEmitter(t *testing.T) {
	bounds := Vec2{X: 128, Y: 128}
	a := NewWaveEmitter(20, 30, 7)
	b := NewWaveEmitter(20, 30, 7)

	for tick := 0; tick < 50; tick++ {
		for slot := 0; slot < DefaultSpawnBatch; slot++ {
			pa, pb := a.Emit(tick, slot, bounds), b.Emit(tick, slot, bounds)
			if pa != pb {
				t.Fatalf("tick %d slot %d: %+v != %+v", tick, slot, pa, pb)
			}
			if pa.Y < 0 || pa.Y > bounds.Y-1 {
				t.Fatalf("tick %d slot %d: y=%v outside bounds", tick, slot, pa.Y)
			}
		}
	}
}

func TestKineticEnergy(t *testing.T) {
	s := newTestSolver(t, 32, 32)
	if s.KineticEnergy() != 0 {
		t.Error("empty solver has kinetic energy")
	}

	for i := 0; i < 10; i++ {
		s.Tick(testDelta)
	}
	if s.KineticEnergy() <= 0 {
		t.Error("falling particles report no kinetic energy")
	}
}

func BenchmarkTick(b *testing.B) {
	s, err := New(Vec2{X: 128, Y: 128})
	if err != nil {
		b.Fatal(err)
	}
	for s.Phase() == Filling {
		s.Tick(testDelta)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Tick(testDelta)
	}
}

func BenchmarkTickSerial(b *testing.B) {
	s, err := New(Vec2{X: 128, Y: 128}, WithWorkers(1))
	if err != nil {
		b.Fatal(err)
	}
	for s.Phase() == Filling {
		s.Tick(testDelta)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Tick(testDelta)
	}
}
