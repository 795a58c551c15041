package accel

import (
	"github.com/lumen-render/lumen/pkg/core"
)

func init() {
	Register("bvh", func() Backend { return &bvhBackend{} })
}

// Leaf threshold: nodes with this many or fewer shapes store them directly
const leafThreshold = 8

// bvhBackend is the native in-process backend: a median-split bounding
// volume hierarchy built and traversed on the CPU. It is the only backend
// with an unaccelerated oracle path.
type bvhBackend struct {
	root   *bvhNode
	shapes []core.Shape
}

type bvhNode struct {
	bounds core.AABB
	left   *bvhNode
	right  *bvhNode
	shapes []core.Shape // Leaf shapes (nil for internal nodes)
}

func (b *bvhBackend) Name() string { return "bvh" }

// Build constructs the hierarchy over a copy of the shape slice
func (b *bvhBackend) Build(shapes []core.Shape) error {
	b.shapes = shapes
	if len(shapes) == 0 {
		b.root = nil
		return nil
	}

	// Copy so recursive partitioning never mutates the caller's slice
	shapesCopy := make([]core.Shape, len(shapes))
	copy(shapesCopy, shapes)
	b.root = buildBVH(shapesCopy)
	return nil
}

func (b *bvhBackend) Release() {
	b.root = nil
	b.shapes = nil
}

func (b *bvhBackend) IntersectClosest(rays []core.Ray, active []bool) []core.SurfaceInteraction {
	results := make([]core.SurfaceInteraction, len(rays))
	for i, ray := range rays {
		if !core.Lane(active, i) {
			continue
		}
		if isect, hit := b.hitNode(b.root, ray); hit {
			results[i] = *isect
		}
	}
	return results
}

func (b *bvhBackend) IntersectNaive(rays []core.Ray, active []bool) ([]core.SurfaceInteraction, error) {
	return intersectLinear(b.shapes, rays, active), nil
}

func (b *bvhBackend) TestOccluded(rays []core.Ray, active []bool) []bool {
	results := make([]bool, len(rays))
	for i, ray := range rays {
		if !core.Lane(active, i) {
			continue
		}
		results[i] = b.anyHit(b.root, ray)
	}
	return results
}

// hitNode recursively finds the closest intersection below node
func (b *bvhBackend) hitNode(node *bvhNode, ray core.Ray) (*core.SurfaceInteraction, bool) {
	if node == nil || !node.bounds.Hit(ray, ray.TMin, ray.TMax) {
		return nil, false
	}

	// Leaf: linear search, shrinking the ray extent as hits are found
	if node.shapes != nil {
		var closest *core.SurfaceInteraction
		for _, shape := range node.shapes {
			if isect, hit := shape.Hit(ray); hit {
				ray.TMax = isect.T
				closest = isect
			}
		}
		return closest, closest != nil
	}

	var closest *core.SurfaceInteraction
	if isect, hit := b.hitNode(node.left, ray); hit {
		ray.TMax = isect.T
		closest = isect
	}
	if isect, hit := b.hitNode(node.right, ray); hit {
		closest = isect
	}
	return closest, closest != nil
}

// anyHit returns as soon as any intersection is found
func (b *bvhBackend) anyHit(node *bvhNode, ray core.Ray) bool {
	if node == nil || !node.bounds.Hit(ray, ray.TMin, ray.TMax) {
		return false
	}
	if node.shapes != nil {
		for _, shape := range node.shapes {
			if _, hit := shape.Hit(ray); hit {
				return true
			}
		}
		return false
	}
	return b.anyHit(node.left, ray) || b.anyHit(node.right, ray)
}

// buildBVH recursively builds the hierarchy using median splits along the
// longest axis, which is much faster than SAH and good enough for the
// shape counts this core sees
func buildBVH(shapes []core.Shape) *bvhNode {
	bounds := shapes[0].BoundingBox()
	for _, shape := range shapes[1:] {
		bounds = bounds.Union(shape.BoundingBox())
	}

	if len(shapes) <= leafThreshold {
		return &bvhNode{bounds: bounds, shapes: shapes}
	}

	axis := bounds.LongestAxis()
	minVal := bounds.Min.Component(axis)
	maxVal := bounds.Max.Component(axis)
	if maxVal <= minVal {
		return &bvhNode{bounds: bounds, shapes: shapes}
	}
	splitPos := (minVal + maxVal) * 0.5

	var left, right []core.Shape
	for _, shape := range shapes {
		if shape.BoundingBox().Center().Component(axis) < splitPos {
			left = append(left, shape)
		} else {
			right = append(right, shape)
		}
	}

	// Degenerate split (all centers on one side): fall back to a leaf
	if len(left) == 0 || len(right) == 0 {
		return &bvhNode{bounds: bounds, shapes: shapes}
	}

	return &bvhNode{
		bounds: bounds,
		left:   buildBVH(left),
		right:  buildBVH(right),
	}
}
