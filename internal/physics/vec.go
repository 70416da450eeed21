package physics

import "math"

// Vec2 is a 2D vector in world units.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) LengthSq() float64    { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Length() float64      { return math.Sqrt(v.LengthSq()) }

// Clamp limits each component to [lo, hi].
func (v Vec2) Clamp(lo, hi Vec2) Vec2 {
	return Vec2{
		X: math.Min(math.Max(v.X, lo.X), hi.X),
		Y: math.Min(math.Max(v.Y, lo.Y), hi.Y),
	}
}
