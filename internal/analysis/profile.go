package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/verletsim/internal/physics"
)

// DensityProfile splits the bounds into bins horizontal slabs, top to
// bottom, and returns the particles per unit area in each.
func DensityProfile(particles []physics.Particle, bounds physics.Vec2, bins int) []float64 {
	if bins <= 0 || bounds.Y <= 0 || bounds.X <= 0 {
		return nil
	}

	counts := make([]float64, bins)
	for _, p := range particles {
		b := int(p.Position.Y / bounds.Y * float64(bins))
		b = max(0, min(b, bins-1))
		counts[b]++
	}

	slab := bounds.X * bounds.Y / float64(bins)
	for i := range counts {
		counts[i] /= slab
	}
	return counts
}

// ProfileToASCII renders a density profile as one bar per slab.
func ProfileToASCII(profile []float64, width int) string {
	if len(profile) == 0 {
		return ""
	}

	peak := 0.0
	for _, v := range profile {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var sb strings.Builder
	for i, v := range profile {
		n := int(v / peak * float64(width))
		sb.WriteString(fmt.Sprintf("%3d │%s %.2f\n", i, strings.Repeat("█", n), v))
	}
	return sb.String()
}
