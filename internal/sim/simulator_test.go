package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/verletsim/internal/physics"
)

func newSolver(t *testing.T) *physics.Solver {
	t.Helper()
	s, err := physics.New(physics.Vec2{X: 32, Y: 32}, physics.WithWorkers(2))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

type testMetric struct {
	count int
	sum   float64
}

func (m *testMetric) Name() string { return "test" }
func (m *testMetric) Observe(s *physics.Solver, t float64) {
	m.count++
	m.sum += float64(s.Len())
}
func (m *testMetric) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
func (m *testMetric) Reset() {
	m.count = 0
	m.sum = 0
}

func TestSimulatorRun(t *testing.T) {
	sim := New()
	result, err := sim.Run(context.Background(), newSolver(t), Config{Ticks: 150, Dt: 1.0 / 60})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Samples) != 150 || result.TicksTaken != 150 {
		t.Errorf("expected 150 samples, got %d", len(result.Samples))
	}
	if result.FullAt != 116 {
		t.Errorf("expected full at tick 116, got %d", result.FullAt)
	}

	last := result.Samples[len(result.Samples)-1]
	if last.Population != 1167 {
		t.Errorf("expected 1167 particles, got %d", last.Population)
	}
	if last.Time < 2.49 || last.Time > 2.51 {
		t.Errorf("expected t=2.5, got %f", last.Time)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Ticks: 10}},
		{"negative dt", Config{Dt: -0.1, Ticks: 10}},
		{"zero ticks", Config{Dt: 0.1, Ticks: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := sim.Run(context.Background(), newSolver(t), tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New()
	metric := &testMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), newSolver(t), Config{Ticks: 10, Dt: 1.0 / 60})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
	if result.Metrics["test"] != 55 {
		t.Errorf("expected mean population 55, got %f", result.Metrics["test"])
	}
}

func TestSimulatorHooksAndObservers(t *testing.T) {
	sim := New()
	var order []string
	sim.AddHook(HookFunc(func(s *physics.Solver, tick int, t float64) {
		order = append(order, "hook")
		if tick == 5 {
			s.Reset()
		}
	}))
	sim.AddObserver(ObserverFunc(func(s *physics.Solver, tick int, t float64) {
		order = append(order, "observer")
	}))

	result, err := sim.Run(context.Background(), newSolver(t), Config{Ticks: 8, Dt: 1.0 / 60})
	if err != nil {
		t.Fatal(err)
	}

	if len(order) != 16 || order[0] != "hook" || order[1] != "observer" {
		t.Errorf("unexpected call order: %v", order)
	}
	if result.Samples[5].Population != 10 {
		t.Errorf("hook reset ignored: population %d", result.Samples[5].Population)
	}
}

func TestSimulatorCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sim := New()
	sim.AddObserver(ObserverFunc(func(s *physics.Solver, tick int, t float64) {
		if tick == 4 {
			cancel()
		}
	}))

	result, err := sim.Run(ctx, newSolver(t), Config{Ticks: 100, Dt: 1.0 / 60})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.TicksTaken != 5 {
		t.Errorf("expected 5 ticks before cancel, got %d", result.TicksTaken)
	}
}

func TestRunWithCallback(t *testing.T) {
	sim := New()
	solver := newSolver(t)

	ticks := 0
	err := sim.RunWithCallback(context.Background(), solver, 1.0/60, func(s *physics.Solver, tick int) bool {
		ticks++
		return s.Phase() == physics.Filling
	})
	if err != nil {
		t.Fatal(err)
	}
	if ticks != 117 {
		t.Errorf("expected 117 ticks to fill, got %d", ticks)
	}
}

func TestResultSeries(t *testing.T) {
	r := &Result{Samples: []Sample{
		{Tick: 0, Time: 0.5, Population: 10, KineticEnergy: 1.5, Overflow: 2},
		{Tick: 1, Time: 1.0, Population: 20, KineticEnergy: 2.5},
	}}

	tests := []struct {
		name string
		want []float64
	}{
		{SeriesPopulation, []float64{10, 20}},
		{SeriesKineticEnergy, []float64{1.5, 2.5}},
		{SeriesOverflow, []float64{2, 0}},
	}
	for _, tt := range tests {
		got, err := r.Series(tt.name)
		if err != nil {
			t.Fatal(err)
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("%s[%d] = %f, want %f", tt.name, i, got[i], tt.want[i])
			}
		}
	}

	if _, err := r.Series("pressure"); err == nil {
		t.Error("expected error for unknown series")
	}
	if times := r.Times(); times[1] != 1.0 {
		t.Errorf("unexpected times %v", times)
	}
}

func TestEnsemble(t *testing.T) {
	build := func(seed int64) (*physics.Solver, error) {
		return physics.New(physics.Vec2{X: 24, Y: 24},
			physics.WithWorkers(1),
			physics.WithEmitter(physics.NewWaveEmitter(6, 20, seed)))
	}
	metrics := func() []Metric { return []Metric{&testMetric{}} }

	e := NewEnsemble(build, metrics, 4, 100)
	e.SetLimit(2)

	results, err := e.Run(context.Background(), Config{Ticks: 30, Dt: 1.0 / 60})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Seed != 100+int64(i) {
			t.Errorf("result %d has seed %d", i, r.Seed)
		}
		if r.TicksTaken != 30 {
			t.Errorf("result %d took %d ticks", i, r.TicksTaken)
		}
		if _, ok := r.Metrics["test"]; !ok {
			t.Errorf("result %d missing metric", i)
		}
	}
}

func TestEnsembleBuildError(t *testing.T) {
	build := func(seed int64) (*physics.Solver, error) {
		return physics.New(physics.Vec2{X: 40000, Y: 10})
	}
	e := NewEnsemble(build, nil, 3, 0)
	if _, err := e.Run(context.Background(), DefaultConfig()); !errors.Is(err, physics.ErrSizeTooLarge) {
		t.Errorf("expected ErrSizeTooLarge, got %v", err)
	}
}
