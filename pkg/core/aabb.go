package core

import "math"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB returns an inverted box that expands to any point unioned into it
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: Vec3{X: inf, Y: inf, Z: inf},
		Max: Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsValid reports whether the box bounds at least one point
func (aabb AABB) IsValid() bool {
	return aabb.Min.X <= aabb.Max.X && aabb.Min.Y <= aabb.Max.Y && aabb.Min.Z <= aabb.Max.Z
}

// Union returns the smallest AABB containing both boxes
func (aabb AABB) Union(other AABB) AABB {
	return AABB{
		Min: Vec3{
			X: math.Min(aabb.Min.X, other.Min.X),
			Y: math.Min(aabb.Min.Y, other.Min.Y),
			Z: math.Min(aabb.Min.Z, other.Min.Z),
		},
		Max: Vec3{
			X: math.Max(aabb.Max.X, other.Max.X),
			Y: math.Max(aabb.Max.Y, other.Max.Y),
			Z: math.Max(aabb.Max.Z, other.Max.Z),
		},
	}
}

// Center returns the center point of the box
func (aabb AABB) Center() Vec3 {
	return aabb.Min.Add(aabb.Max).Multiply(0.5)
}

// Extents returns the size of the box along each axis
func (aabb AABB) Extents() Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// MaxExtent returns the size of the box along its longest axis
func (aabb AABB) MaxExtent() float64 {
	return aabb.Extents().MaxComponent()
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the largest extent
func (aabb AABB) LongestAxis() int {
	extents := aabb.Extents()
	if extents.X >= extents.Y && extents.X >= extents.Z {
		return 0
	}
	if extents.Y >= extents.Z {
		return 1
	}
	return 2
}

// Corners returns the eight corner points of the box
func (aabb AABB) Corners() [8]Vec3 {
	var corners [8]Vec3
	for i := 0; i < 8; i++ {
		corners[i] = Vec3{
			X: pick(i&1 == 0, aabb.Min.X, aabb.Max.X),
			Y: pick(i&2 == 0, aabb.Min.Y, aabb.Max.Y),
			Z: pick(i&4 == 0, aabb.Min.Z, aabb.Max.Z),
		}
	}
	return corners
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// Hit tests if a ray intersects this AABB within [tMin, tMax] using the slab method
func (aabb AABB) Hit(ray Ray, tMin, tMax float64) bool {
	for axis := 0; axis < 3; axis++ {
		min := aabb.Min.Component(axis)
		max := aabb.Max.Component(axis)
		origin := ray.Origin.Component(axis)
		direction := ray.Direction.Component(axis)

		// Ray is parallel to this axis
		if math.Abs(direction) < 1e-12 {
			if origin < min || origin > max {
				return false
			}
			continue
		}

		invDirection := 1.0 / direction
		t1 := (min - origin) * invDirection
		t2 := (max - origin) * invDirection
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMax < tMin {
			return false
		}
	}
	return true
}
