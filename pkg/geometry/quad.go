package geometry

import (
	"fmt"
	"math"

	"github.com/lumen-render/lumen/pkg/core"
)

// Quad represents a rectangular surface defined by a corner and two edge vectors
type Quad struct {
	Corner   core.Vec3     // One corner of the quad
	U        core.Vec3     // First edge vector
	V        core.Vec3     // Second edge vector
	Normal   core.Vec3     // Normal vector (computed from U × V)
	Material core.Material // Material of the quad
	d        float64       // Plane equation constant: normal · corner
	w        core.Vec3     // Cached cross product for barycentric coordinates
}

// NewQuad creates a new quad from a corner point and two edge vectors
func NewQuad(corner, u, v core.Vec3, material core.Material) *Quad {
	normal := u.Cross(v).Normalize()
	cross := u.Cross(v)

	return &Quad{
		Corner:   corner,
		U:        u,
		V:        v,
		Normal:   normal,
		Material: material,
		d:        normal.Dot(corner),
		w:        normal.Multiply(1.0 / normal.Dot(cross)),
	}
}

// Hit tests if a ray intersects with the quad within [ray.TMin, ray.TMax]
func (q *Quad) Hit(ray core.Ray) (*core.SurfaceInteraction, bool) {
	denominator := ray.Direction.Dot(q.Normal)

	// Ray is parallel to the quad
	if math.Abs(denominator) < 1e-8 {
		return nil, false
	}

	t := (q.d - ray.Origin.Dot(q.Normal)) / denominator
	if t < ray.TMin || t > ray.TMax {
		return nil, false
	}

	hitPoint := ray.At(t)

	// Barycentric coordinates within the quad
	hitVector := hitPoint.Subtract(q.Corner)
	alpha := q.w.Dot(hitVector.Cross(q.V))
	beta := q.w.Dot(q.U.Cross(hitVector))
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 {
		return nil, false
	}

	isect := &core.SurfaceInteraction{
		Valid:    true,
		T:        t,
		Point:    hitPoint,
		Material: q.Material,
		Shape:    q,
	}
	isect.SetFaceNormal(ray, q.Normal)

	return isect, true
}

// BoundingBox returns the axis-aligned bounding box for this quad.
// The box is padded slightly so axis-aligned quads don't produce a
// degenerate zero-thickness box.
func (q *Quad) BoundingBox() core.AABB {
	p0 := q.Corner
	p1 := q.Corner.Add(q.U)
	p2 := q.Corner.Add(q.V)
	p3 := q.Corner.Add(q.U).Add(q.V)

	bounds := core.NewAABB(p0, p0)
	for _, p := range []core.Vec3{p1, p2, p3} {
		bounds = bounds.Union(core.NewAABB(p, p))
	}

	const padding = 1e-4
	pad := core.NewVec3(padding, padding, padding)
	return core.NewAABB(bounds.Min.Subtract(pad), bounds.Max.Add(pad))
}

func (q *Quad) String() string {
	return fmt.Sprintf("Quad[corner=%v, u=%v, v=%v]", q.Corner, q.U, q.V)
}
