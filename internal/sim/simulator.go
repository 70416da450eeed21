package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/verletsim/internal/physics"
)

type Simulator struct {
	metrics   []Metric
	observers []Observer
	hooks     []Hook
}

func New() *Simulator {
	return &Simulator{
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		hooks:     make([]Hook, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) AddHook(h Hook)         { s.hooks = append(s.hooks, h) }

// Run ticks the solver cfg.Ticks times. The context is checked between
// ticks; on cancellation the partial result is returned with ctx.Err().
func (s *Simulator) Run(ctx context.Context, solver *physics.Solver, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Samples: make([]Sample, 0, cfg.Ticks),
		Metrics: make(map[string]float64),
		FullAt:  -1,
		Seed:    cfg.Seed,
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	t := 0.0
	for i := 0; i < cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		for _, h := range s.hooks {
			h.BeforeTick(solver, i, t)
		}

		solver.Tick(cfg.Dt)
		t += cfg.Dt
		result.TicksTaken++

		if result.FullAt < 0 && solver.Phase() == physics.Full {
			result.FullAt = i
		}

		result.Samples = append(result.Samples, Sample{
			Tick:          i,
			Time:          t,
			Population:    solver.Len(),
			KineticEnergy: solver.KineticEnergy(),
			Overflow:      solver.Grid().Overflow(),
		})

		for _, m := range s.metrics {
			m.Observe(solver, t)
		}
		for _, obs := range s.observers {
			obs.OnTick(solver, i, t)
		}
	}

	s.collect(result)
	return result, nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", cfg.Ticks)
	}
	return nil
}

// RunWithCallback ticks until the callback returns false or the context is
// done. Hooks run, metrics and observers do not.
func (s *Simulator) RunWithCallback(ctx context.Context, solver *physics.Solver, dt float64, callback func(*physics.Solver, int) bool) error {
	if dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", dt)
	}

	t := 0.0
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for _, h := range s.hooks {
			h.BeforeTick(solver, i, t)
		}
		solver.Tick(dt)
		t += dt

		if !callback(solver, i) {
			return nil
		}
	}
}
