package physics_test

import (
	"image/color"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/verletsim/internal/physics"
)

const frame = 1.0 / 60

func outOfBounds(s *physics.Solver) int {
	hi := s.Size().Sub(physics.Vec2{X: 1, Y: 1})
	n := 0
	for _, p := range s.Particles() {
		if p.Position.X < 0 || p.Position.Y < 0 || p.Position.X > hi.X || p.Position.Y > hi.Y {
			n++
		}
	}
	return n
}

var _ = Describe("Solver", func() {
	var s *physics.Solver

	BeforeEach(func() {
		var err error
		s, err = physics.New(physics.Vec2{X: 32, Y: 32})
		Expect(err).NotTo(HaveOccurred())
	})

	Context("with 32x32 bounds", func() {
		It("targets 1167 particles", func() {
			Expect(s.MaxObjects()).To(Equal(1167))
			Expect(s.Len()).To(BeZero())
			Expect(s.Phase()).To(Equal(physics.Filling))
		})

		It("fills in 117 ticks and stops spawning", func() {
			for i := 0; i < 116; i++ {
				s.Tick(frame)
			}
			Expect(s.Len()).To(Equal(1160))

			s.Tick(frame)
			Expect(s.Len()).To(Equal(1167))
			Expect(s.Phase()).To(Equal(physics.Full))

			s.Tick(frame)
			Expect(s.Len()).To(Equal(1167))
		})

		It("keeps every particle inside the bounds once full", func() {
			for s.Phase() == physics.Filling {
				s.Tick(frame)
				Expect(outOfBounds(s)).To(BeZero())
			}
			for i := 0; i < 480; i++ {
				s.Tick(frame)
				Expect(outOfBounds(s)).To(BeZero(), "tick %d", i)
			}
			Expect(s.Len()).To(Equal(1167))
		})
	})

	Describe("SetSize", func() {
		It("rejects bounds beyond the 16-bit range without touching state", func() {
			s.Tick(frame)
			Expect(s.SetSize(physics.Vec2{X: 40000, Y: 40000})).To(MatchError(physics.ErrSizeTooLarge))
			Expect(s.Len()).To(Equal(physics.DefaultSpawnBatch))
		})

		It("restarts the fill for the new bounds", func() {
			s.Tick(frame)
			Expect(s.SetSize(physics.Vec2{X: 16, Y: 16})).To(Succeed())
			Expect(s.Len()).To(BeZero())
			Expect(s.MaxObjects()).To(Equal(291))
		})
	})

	Describe("SetColors", func() {
		It("colors the refill from the palette", func() {
			palette := make([]color.RGBA, s.MaxObjects())
			for i := range palette {
				palette[i] = color.RGBA{B: uint8(i), A: 255}
			}
			Expect(s.SetColors(palette)).To(BeTrue())

			s.Reset()
			for i := 0; i < 3; i++ {
				s.Tick(frame)
			}
			for i, p := range s.Particles() {
				Expect(p.Color).To(Equal(palette[i]))
			}
		})

		It("falls back to procedural colors for a short palette", func() {
			Expect(s.SetColors(make([]color.RGBA, 10))).To(BeFalse())
			s.Tick(frame)
			Expect(s.Particles()[0].Color).To(Equal(physics.SpawnColor(0)))
		})
	})
})
