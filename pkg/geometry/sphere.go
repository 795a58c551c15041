package geometry

import (
	"fmt"
	"math"

	"github.com/lumen-render/lumen/pkg/core"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material core.Material
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, material core.Material) *Sphere {
	return &Sphere{
		Center:   center,
		Radius:   radius,
		Material: material,
	}
}

// Hit tests if a ray intersects with the sphere within [ray.TMin, ray.TMax]
func (s *Sphere) Hit(ray core.Ray) (*core.SurfaceInteraction, bool) {
	// Vector from ray origin to sphere center
	oc := ray.Origin.Subtract(s.Center)

	// Quadratic equation coefficients: at² + bt + c = 0
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return nil, false
	}

	sqrtD := math.Sqrt(discriminant)

	// Try the closer intersection point first
	root := (-halfB - sqrtD) / a
	if root < ray.TMin || root > ray.TMax {
		root = (-halfB + sqrtD) / a
		if root < ray.TMin || root > ray.TMax {
			return nil, false
		}
	}

	isect := &core.SurfaceInteraction{
		Valid:    true,
		T:        root,
		Point:    ray.At(root),
		Material: s.Material,
		Shape:    s,
	}

	// Outward normal points from center to hit point
	outwardNormal := isect.Point.Subtract(s.Center).Multiply(1.0 / s.Radius)
	isect.SetFaceNormal(ray, outwardNormal)

	return isect, true
}

// BoundingBox returns the axis-aligned bounding box for this sphere
func (s *Sphere) BoundingBox() core.AABB {
	radius := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(
		s.Center.Subtract(radius),
		s.Center.Add(radius),
	)
}

func (s *Sphere) String() string {
	return fmt.Sprintf("Sphere[center=%v, radius=%g]", s.Center, s.Radius)
}
