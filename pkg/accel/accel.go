// Package accel provides interchangeable acceleration backends for ray
// intersection and occlusion queries. Exactly one backend is active per
// scene, selected once at deploy time by name; backends register themselves
// via Register (the GPU backend registers on blank import of its package).
//
// All query methods operate on batches of rays under an active-lane mask
// (nil = all active). Inactive lanes must never affect the correctness of
// active lanes; their outputs are the zero value.
package accel

import (
	"errors"

	"github.com/lumen-render/lumen/pkg/core"
)

// Common backend errors.
var (
	// ErrNaiveUnsupported is returned by backends that delegate entirely to
	// an external library or GPU and cannot provide an unaccelerated path.
	ErrNaiveUnsupported = errors.New("accel: naive intersection not implemented")

	// ErrUnknownBackend is returned when no backend is registered under a name.
	ErrUnknownBackend = errors.New("accel: unknown backend")

	// ErrNotBuilt is returned when queries are issued before Build.
	ErrNotBuilt = errors.New("accel: backend not built")
)

// Backend is the uniform contract the scene consumes for ray queries.
type Backend interface {
	// Name returns the backend identifier (e.g. "bvh", "rtree", "wgpu").
	Name() string

	// Build constructs the acceleration structure over the given shapes.
	// Called exactly once per scene, before any query.
	Build(shapes []core.Shape) error

	// Release frees the structure. The backend must not be queried afterward.
	Release()

	// IntersectClosest returns the closest hit per active lane.
	IntersectClosest(rays []core.Ray, active []bool) []core.SurfaceInteraction

	// IntersectNaive returns the closest hit per active lane without using
	// any acceleration structure. It exists as a correctness oracle for the
	// accelerated path and returns ErrNaiveUnsupported on backends that
	// cannot provide it. It must never silently fall back to the
	// accelerated path.
	IntersectNaive(rays []core.Ray, active []bool) ([]core.SurfaceInteraction, error)

	// TestOccluded reports, per active lane, whether any shape is hit.
	TestOccluded(rays []core.Ray, active []bool) []bool
}

// intersectLinear is the shared unaccelerated closest-hit scan.
func intersectLinear(shapes []core.Shape, rays []core.Ray, active []bool) []core.SurfaceInteraction {
	results := make([]core.SurfaceInteraction, len(rays))
	for i, ray := range rays {
		if !core.Lane(active, i) {
			continue
		}
		for _, shape := range shapes {
			if isect, hit := shape.Hit(ray); hit {
				ray.TMax = isect.T
				results[i] = *isect
			}
		}
	}
	return results
}
