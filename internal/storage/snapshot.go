package storage

import (
	"fmt"
	"image/color"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/san-kum/verletsim/internal/physics"
)

type ParticleRecord struct {
	X     float64 `msgpack:"x"`
	Y     float64 `msgpack:"y"`
	Color uint32  `msgpack:"c"`
}

// Snapshot is the population of a solver at one instant.
type Snapshot struct {
	Width     float64          `msgpack:"width"`
	Height    float64          `msgpack:"height"`
	HasColors bool             `msgpack:"has_colors"`
	Particles []ParticleRecord `msgpack:"particles"`
}

func NewSnapshot(s *physics.Solver) *Snapshot {
	size := s.Size()
	snap := &Snapshot{
		Width:     size.X,
		Height:    size.Y,
		HasColors: s.HasColors(),
		Particles: make([]ParticleRecord, s.Len()),
	}
	for i, p := range s.Particles() {
		snap.Particles[i] = ParticleRecord{
			X:     p.Position.X,
			Y:     p.Position.Y,
			Color: PackColor(p.Color),
		}
	}
	return snap
}

func PackColor(c color.RGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

func UnpackColor(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

func (r ParticleRecord) RGBA() color.RGBA { return UnpackColor(r.Color) }

// Palette returns the particle colors in spawn order.
func (s *Snapshot) Palette() []color.RGBA {
	out := make([]color.RGBA, len(s.Particles))
	for i, p := range s.Particles {
		out[i] = p.RGBA()
	}
	return out
}

func (s *Snapshot) Encode() ([]byte, error) {
	return msgpack.Marshal(s)
}

func (s *Snapshot) WriteFile(path string) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
