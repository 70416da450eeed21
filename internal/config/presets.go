package config

import "sort"

var Presets = map[string]*Config{
	"small": {
		Width: 32, Height: 32, Ticks: 600,
	},
	"medium": {
		Width: 128, Height: 128, Ticks: 1200,
	},
	"wide": {
		Width: 256, Height: 96, Ticks: 1800,
	},
	"tall": {
		Width: 64, Height: 192, Ticks: 1800,
	},
	"rain": {
		Width: 128, Height: 128, Ticks: 1800, Emitter: EmitterWave, Seed: 7,
	},
	"syrup": {
		Width: 96, Height: 96, Ticks: 1200, Drag: 0.02,
	},
}

// GetPreset returns a full config for a preset, with unset fields taken
// from DefaultConfig. It returns nil for unknown names.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Width, cfg.Height, cfg.Ticks = p.Width, p.Height, p.Ticks
	if p.Emitter != "" {
		cfg.Emitter = p.Emitter
	}
	cfg.Seed = p.Seed
	cfg.Drag = p.Drag
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
