package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/verletsim/internal/physics"
)

const (
	DefaultWidth  = 128
	DefaultHeight = 128
	DefaultTicks  = 1200
	DefaultDt     = 1.0 / 60
	DefaultSettle = 10.0
)

const (
	EmitterColumn = "column"
	EmitterWave   = "wave"
)

type Config struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	Ticks         int     `yaml:"ticks"`
	Dt            float64 `yaml:"dt"`
	Substeps      int     `yaml:"substeps"`
	GravityX      float64 `yaml:"gravity_x"`
	GravityY      float64 `yaml:"gravity_y"`
	Drag          float64 `yaml:"drag"`
	SpawnBatch    int     `yaml:"spawn_batch"`
	BandRows      int     `yaml:"band_rows"`
	Workers       int     `yaml:"workers"`
	Emitter       string  `yaml:"emitter"`
	Seed          int64   `yaml:"seed"`
	Image         string  `yaml:"image,omitempty"`
	SettleSeconds float64 `yaml:"settle_seconds"`
}

func DefaultConfig() *Config {
	return &Config{
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		Ticks:         DefaultTicks,
		Dt:            DefaultDt,
		Substeps:      physics.DefaultSubsteps,
		GravityX:      physics.DefaultGravity.X,
		GravityY:      physics.DefaultGravity.Y,
		SpawnBatch:    physics.DefaultSpawnBatch,
		BandRows:      physics.DefaultBandRows,
		Emitter:       EmitterColumn,
		SettleSeconds: DefaultSettle,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields the solver does not check itself.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Ticks < 0 {
		return fmt.Errorf("ticks must not be negative, got %d", c.Ticks)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	switch c.Emitter {
	case "", EmitterColumn, EmitterWave:
	default:
		return fmt.Errorf("unknown emitter %q", c.Emitter)
	}
	return nil
}

// Size returns the solver bounds.
func (c *Config) Size() physics.Vec2 {
	return physics.Vec2{X: c.Width, Y: c.Height}
}

// Options translates the config into solver options.
func (c *Config) Options() []physics.Option {
	opts := []physics.Option{
		physics.WithGravity(physics.Vec2{X: c.GravityX, Y: c.GravityY}),
		physics.WithDrag(c.Drag),
		physics.WithSubsteps(c.Substeps),
		physics.WithSpawnBatch(c.SpawnBatch),
		physics.WithBandRows(c.BandRows),
		physics.WithWorkers(c.Workers),
	}
	if c.Emitter == EmitterWave {
		amplitude := c.Height / 4
		opts = append(opts, physics.WithEmitter(physics.NewWaveEmitter(amplitude, 60, c.Seed)))
	}
	return opts
}

// NewSolver validates the config and builds a solver from it.
func (c *Config) NewSolver() (*physics.Solver, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return physics.New(c.Size(), c.Options()...)
}

// Set assigns a numeric field by its yaml name. Integer fields are
// truncated.
func (c *Config) Set(name string, v float64) error {
	switch name {
	case "width":
		c.Width = v
	case "height":
		c.Height = v
	case "ticks":
		c.Ticks = int(v)
	case "dt":
		c.Dt = v
	case "substeps":
		c.Substeps = int(v)
	case "gravity_x":
		c.GravityX = v
	case "gravity_y":
		c.GravityY = v
	case "drag":
		c.Drag = v
	case "spawn_batch":
		c.SpawnBatch = int(v)
	case "band_rows":
		c.BandRows = int(v)
	case "workers":
		c.Workers = int(v)
	case "seed":
		c.Seed = int64(v)
	case "settle_seconds":
		c.SettleSeconds = v
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}
