package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/san-kum/verletsim/internal/config"
)

// Objective evaluates one parameter combination and returns named metrics.
type Objective func(ctx context.Context, params map[string]float64) (map[string]float64, error)

// Trial is one evaluated combination.
type Trial struct {
	Params  map[string]float64
	Metrics map[string]float64
	Err     error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	trials     []Trial
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Trials returns every combination evaluated by the last Search, in
// visiting order.
func (g *GridSearch) Trials() []Trial { return g.trials }

// Search visits the full cartesian product and returns the combination that
// minimizes metricName. Failed trials are skipped; an error is returned only
// when the context ends or no trial succeeded.
func (g *GridSearch) Search(ctx context.Context, objective Objective, metricName string) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	g.trials = g.trials[:0]

	best := math.Inf(1)
	var bestParams map[string]float64

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), objective, metricName, &best, &bestParams); err != nil {
		return bestParams, best, err
	}
	if bestParams == nil {
		var errs []error
		for _, t := range g.trials {
			errs = append(errs, t.Err)
		}
		return nil, best, fmt.Errorf("no successful trial for %q: %w", metricName, errors.Join(errs...))
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	objective Objective,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		trial := Trial{Params: current}
		trial.Metrics, trial.Err = objective(ctx, current)
		if trial.Err == nil {
			if _, ok := trial.Metrics[metricName]; !ok {
				trial.Err = fmt.Errorf("objective did not report %q", metricName)
			}
		}
		g.trials = append(g.trials, trial)
		if trial.Err != nil {
			return nil
		}

		val := trial.Metrics[metricName]
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, objective, metricName, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

// TickTime builds an objective that constructs a solver from base with the
// trial's parameters applied, runs base.Ticks ticks and reports the mean
// wall time per tick as "tick_ms" plus the final "population".
func TickTime(base *config.Config) Objective {
	return func(ctx context.Context, params map[string]float64) (map[string]float64, error) {
		cfg := *base
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := cfg.Set(name, params[name]); err != nil {
				return nil, err
			}
		}

		solver, err := cfg.NewSolver()
		if err != nil {
			return nil, err
		}
		ticks := max(cfg.Ticks, 1)

		start := time.Now()
		for i := 0; i < ticks; i++ {
			if i%64 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			solver.Tick(cfg.Dt)
		}
		elapsed := time.Since(start)

		return map[string]float64{
			"tick_ms":    float64(elapsed.Microseconds()) / 1000 / float64(ticks),
			"population": float64(solver.Len()),
		}, nil
	}
}
