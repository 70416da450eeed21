package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/verletsim/internal/physics"
)

// SolverFactory builds an independent solver for one ensemble member.
type SolverFactory func(seed int64) (*physics.Solver, error)

// Ensemble runs independent solvers side by side, one per seed.
type Ensemble struct {
	build     SolverFactory
	metrics   func() []Metric
	numRuns   int
	seedStart int64
	limit     int
}

// NewEnsemble prepares numRuns runs with seeds seedStart, seedStart+1, ...
// metrics is called once per run, so stateful metrics are never shared.
func NewEnsemble(build SolverFactory, metrics func() []Metric, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, metrics: metrics, numRuns: numRuns, seedStart: seedStart}
}

// SetLimit caps how many runs execute at once. Each solver already fans
// out over its own pool, so a small limit usually wins.
func (e *Ensemble) SetLimit(n int) { e.limit = n }

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			solver, err := e.build(cfgCopy.Seed)
			if err != nil {
				return err
			}

			sim := New()
			if e.metrics != nil {
				for _, m := range e.metrics() {
					sim.AddMetric(m)
				}
			}

			res, err := sim.Run(ctx, solver, cfgCopy)
			if err != nil {
				return err
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
