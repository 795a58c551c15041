package core

import "math"

// Epsilon is the base offset used to avoid self-intersection at ray origins
const Epsilon = 1e-6

// ShadowEpsilon is the relative margin shaved off shadow ray extents so
// occlusion tests don't re-hit the light surface itself
const ShadowEpsilon = 1e-4

// Ray represents a ray with an origin, direction and a valid parameter range.
// Points ray.At(t) with TMin <= t <= TMax are candidates for intersection.
type Ray struct {
	Origin    Vec3
	Direction Vec3
	TMin      float64
	TMax      float64
}

// NewRay creates an unbounded ray (TMin = Epsilon, TMax = +inf)
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction, TMin: Epsilon, TMax: math.Inf(1)}
}

// NewBoundedRay creates a ray with an explicit valid parameter range
func NewBoundedRay(origin, direction Vec3, tMin, tMax float64) Ray {
	return Ray{Origin: origin, Direction: direction, TMin: tMin, TMax: tMax}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// Lane reports whether lane i of a batch participates in an operation.
// A nil mask means every lane is active.
func Lane(active []bool, i int) bool {
	return active == nil || active[i]
}
