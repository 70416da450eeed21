package sim

import (
	"fmt"

	"github.com/san-kum/verletsim/internal/physics"
)

type Metric interface {
	Name() string
	Observe(s *physics.Solver, t float64)
	Value() float64
	Reset()
}

// Observer sees the solver after every tick.
type Observer interface {
	OnTick(s *physics.Solver, tick int, t float64)
}

// Hook runs before every tick and may reconfigure the solver, for example
// to install a palette and restart the fill.
type Hook interface {
	BeforeTick(s *physics.Solver, tick int, t float64)
}

type ObserverFunc func(s *physics.Solver, tick int, t float64)

func (f ObserverFunc) OnTick(s *physics.Solver, tick int, t float64) { f(s, tick, t) }

type HookFunc func(s *physics.Solver, tick int, t float64)

func (f HookFunc) BeforeTick(s *physics.Solver, tick int, t float64) { f(s, tick, t) }

type Config struct {
	Ticks int
	Dt    float64
	Seed  int64
}

func DefaultConfig() Config {
	return Config{Ticks: 600, Dt: 1.0 / 60}
}

// Sample is the solver state recorded after one tick.
type Sample struct {
	Tick          int
	Time          float64
	Population    int
	KineticEnergy float64
	Overflow      int
}

type Result struct {
	Samples    []Sample
	Metrics    map[string]float64
	TicksTaken int
	FullAt     int
	Seed       int64
}

// Series names accepted by Result.Series.
const (
	SeriesPopulation    = "population"
	SeriesKineticEnergy = "kinetic_energy"
	SeriesOverflow      = "overflow"
)

// Series extracts one column of the samples.
func (r *Result) Series(name string) ([]float64, error) {
	var pick func(Sample) float64
	switch name {
	case SeriesPopulation:
		pick = func(s Sample) float64 { return float64(s.Population) }
	case SeriesKineticEnergy:
		pick = func(s Sample) float64 { return s.KineticEnergy }
	case SeriesOverflow:
		pick = func(s Sample) float64 { return float64(s.Overflow) }
	default:
		return nil, fmt.Errorf("unknown series %q", name)
	}

	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = pick(s)
	}
	return out, nil
}

func (r *Result) Times() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Time
	}
	return out
}
