package automation

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/physics"
	"github.com/san-kum/verletsim/internal/recolor"
	"github.com/san-kum/verletsim/internal/sim"
	"github.com/san-kum/verletsim/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single step in a scenario. All steps share one solver;
// a step that names a preset, a size or an image resizes it, which discards
// the particles. A preset's emitter and drag only apply to the first step,
// where the solver is built.
type ScenarioStep struct {
	Preset  string  `yaml:"preset"`
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	Ticks   int     `yaml:"ticks"`
	Dt      float64 `yaml:"dt"`
	Image   string  `yaml:"image"`
	Recolor bool    `yaml:"recolor"`
	Restart bool    `yaml:"restart"`
	SaveAs  string  `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%s: scenario has no steps", path)
	}
	return &scenario, nil
}

// Runner executes scenarios. Store may be nil, in which case save_as is
// ignored.
type Runner struct {
	Base  *config.Config
	Store *storage.Store
	Out   io.Writer
}

func (r *Runner) printf(format string, args ...any) {
	if r.Out != nil {
		fmt.Fprintf(r.Out, format, args...)
	}
}

// RunScenario executes all steps in a scenario
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]*sim.Result, error) {
	cfg := config.DefaultConfig()
	if r.Base != nil {
		copied := *r.Base
		cfg = &copied
	}

	var solver *physics.Solver
	director := recolor.NewDirector(nil, cfg.SettleSeconds)
	results := make([]*sim.Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		r.printf("Running step %d/%d\n", i+1, len(scenario.Steps))

		resize, err := applyStep(cfg, step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		switch {
		case solver == nil:
			if solver, err = cfg.NewSolver(); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		case resize:
			if err := solver.SetSize(cfg.Size()); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}

		if step.Image != "" {
			img, err := recolor.LoadImage(step.Image)
			if err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
			if err := director.Load(solver, img); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
			size := solver.Size()
			cfg.Width, cfg.Height, cfg.Image = size.X, size.Y, step.Image
		}
		if step.Restart {
			director.Restart(solver)
		}

		result, err := r.runTicks(ctx, solver, director, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, result)

		if step.Recolor {
			if director.Recolor(solver) {
				r.printf("  recolored %d particles from image\n", solver.MaxObjects())
			} else {
				r.printf("  recolor skipped: no image loaded\n")
			}
		}

		if step.SaveAs != "" && r.Store != nil {
			runID, err := r.Store.Save(step.SaveAs, cfg, result, storage.NewSnapshot(solver))
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			r.printf("  saved %s\n", runID)
		}
	}

	return results, nil
}

// applyStep folds a step into cfg and reports whether the bounds changed.
func applyStep(cfg *config.Config, step ScenarioStep) (bool, error) {
	oldW, oldH := cfg.Width, cfg.Height
	if step.Preset != "" {
		p := config.GetPreset(step.Preset)
		if p == nil {
			return false, fmt.Errorf("unknown preset %q", step.Preset)
		}
		cfg.Width, cfg.Height, cfg.Ticks = p.Width, p.Height, p.Ticks
		cfg.Emitter, cfg.Seed, cfg.Drag = p.Emitter, p.Seed, p.Drag
	}
	if step.Width > 0 {
		cfg.Width = step.Width
	}
	if step.Height > 0 {
		cfg.Height = step.Height
	}
	if step.Ticks > 0 {
		cfg.Ticks = step.Ticks
	}
	if step.Dt > 0 {
		cfg.Dt = step.Dt
	}
	return cfg.Width != oldW || cfg.Height != oldH, cfg.Validate()
}

func (r *Runner) runTicks(ctx context.Context, solver *physics.Solver, director *recolor.Director, cfg *config.Config) (*sim.Result, error) {
	s := sim.New()
	s.AddMetric(metrics.NewPopulation())
	s.AddMetric(metrics.NewKineticEnergy())
	s.AddMetric(metrics.NewContainment())
	s.AddHook(sim.HookFunc(func(solver *physics.Solver, tick int, t float64) {
		director.Advance(solver, cfg.Dt)
	}))
	return s.Run(ctx, solver, sim.Config{Ticks: cfg.Ticks, Dt: cfg.Dt, Seed: cfg.Seed})
}

// ParameterSweep runs the base configuration once per value of one
// numeric parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue  float64
	Population  int
	FullAt      int
	MeanEnergy  float64
	Penetration float64
}

// RunSweep executes a parameter sweep
func (r *Runner) RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step")
	}
	results := make([]SweepResult, 0, sweep.NumSteps)

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := *sweep.Base
		if err := cfg.Set(sweep.ParamName, paramVal); err != nil {
			return nil, err
		}
		solver, err := cfg.NewSolver()
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}

		s := sim.New()
		energy := metrics.NewKineticEnergy()
		penetration := metrics.NewPenetration()
		s.AddMetric(energy)
		s.AddMetric(penetration)

		result, err := s.Run(ctx, solver, sim.Config{Ticks: cfg.Ticks, Dt: cfg.Dt, Seed: cfg.Seed})
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			ParamValue:  paramVal,
			Population:  solver.Len(),
			FullAt:      result.FullAt,
			MeanEnergy:  energy.Value(),
			Penetration: penetration.Value(),
		})

		r.printf("Sweep %d/%d: %s=%.4f\n", i+1, sweep.NumSteps, sweep.ParamName, paramVal)
	}

	return results, nil
}
