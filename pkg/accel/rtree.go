package accel

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/lumen-render/lumen/pkg/core"
)

func init() {
	Register("rtree", func() Backend { return &rtreeBackend{} })
}

// Minimum rectangle side length; rtreego rejects degenerate extents
const rectEpsilon = 1e-9

// rtreeBackend delegates spatial indexing to an external R*-tree library.
// Candidate shapes are found by searching the tree with the rectangle
// enclosing the (clipped) ray segment, then tested exactly. Because the
// structure is wholly library-owned there is no unaccelerated oracle path.
type rtreeBackend struct {
	tree        *rtreego.Rtree
	worldBounds core.AABB
}

// spatialShape adapts a scene shape to the library's Spatial interface
type spatialShape struct {
	shape core.Shape
	rect  *rtreego.Rect
}

func (s *spatialShape) Bounds() *rtreego.Rect { return s.rect }

func (b *rtreeBackend) Name() string { return "rtree" }

func (b *rtreeBackend) Build(shapes []core.Shape) error {
	b.tree = rtreego.NewTree(3, 25, 50)
	b.worldBounds = core.EmptyAABB()

	for _, shape := range shapes {
		bounds := shape.BoundingBox()
		b.worldBounds = b.worldBounds.Union(bounds)
		rect, err := rtreego.NewRect(
			rtreego.Point{bounds.Min.X, bounds.Min.Y, bounds.Min.Z},
			[]float64{
				math.Max(bounds.Max.X-bounds.Min.X, rectEpsilon),
				math.Max(bounds.Max.Y-bounds.Min.Y, rectEpsilon),
				math.Max(bounds.Max.Z-bounds.Min.Z, rectEpsilon),
			},
		)
		if err != nil {
			return err
		}
		b.tree.Insert(&spatialShape{shape: shape, rect: rect})
	}
	return nil
}

func (b *rtreeBackend) Release() {
	b.tree = nil
}

func (b *rtreeBackend) IntersectClosest(rays []core.Ray, active []bool) []core.SurfaceInteraction {
	results := make([]core.SurfaceInteraction, len(rays))
	for i, ray := range rays {
		if !core.Lane(active, i) {
			continue
		}
		for _, candidate := range b.candidates(ray) {
			if isect, hit := candidate.Hit(ray); hit {
				ray.TMax = isect.T
				results[i] = *isect
			}
		}
	}
	return results
}

func (b *rtreeBackend) IntersectNaive(rays []core.Ray, active []bool) ([]core.SurfaceInteraction, error) {
	return nil, ErrNaiveUnsupported
}

func (b *rtreeBackend) TestOccluded(rays []core.Ray, active []bool) []bool {
	results := make([]bool, len(rays))
	for i, ray := range rays {
		if !core.Lane(active, i) {
			continue
		}
		for _, candidate := range b.candidates(ray) {
			if _, hit := candidate.Hit(ray); hit {
				results[i] = true
				break
			}
		}
	}
	return results
}

// candidates searches the tree with the rectangle enclosing the ray segment,
// clipped to the world bounds so unbounded rays stay finite
func (b *rtreeBackend) candidates(ray core.Ray) []core.Shape {
	if b.tree == nil || !b.worldBounds.IsValid() {
		return nil
	}

	t0, t1, ok := rayBoundsInterval(b.worldBounds, ray)
	if !ok {
		return nil
	}

	p0 := ray.At(t0)
	p1 := ray.At(t1)
	lo := core.NewVec3(math.Min(p0.X, p1.X), math.Min(p0.Y, p1.Y), math.Min(p0.Z, p1.Z))
	hi := core.NewVec3(math.Max(p0.X, p1.X), math.Max(p0.Y, p1.Y), math.Max(p0.Z, p1.Z))

	rect, err := rtreego.NewRect(
		rtreego.Point{lo.X, lo.Y, lo.Z},
		[]float64{
			math.Max(hi.X-lo.X, rectEpsilon),
			math.Max(hi.Y-lo.Y, rectEpsilon),
			math.Max(hi.Z-lo.Z, rectEpsilon),
		},
	)
	if err != nil {
		return nil
	}

	spatials := b.tree.SearchIntersect(rect)
	shapes := make([]core.Shape, 0, len(spatials))
	for _, s := range spatials {
		shapes = append(shapes, s.(*spatialShape).shape)
	}
	return shapes
}

// rayBoundsInterval clips [ray.TMin, ray.TMax] against the box, returning
// the overlapping parameter interval
func rayBoundsInterval(bounds core.AABB, ray core.Ray) (float64, float64, bool) {
	t0, t1 := ray.TMin, ray.TMax
	for axis := 0; axis < 3; axis++ {
		min := bounds.Min.Component(axis)
		max := bounds.Max.Component(axis)
		origin := ray.Origin.Component(axis)
		direction := ray.Direction.Component(axis)

		if math.Abs(direction) < 1e-12 {
			if origin < min || origin > max {
				return 0, 0, false
			}
			continue
		}

		invDirection := 1.0 / direction
		near := (min - origin) * invDirection
		far := (max - origin) * invDirection
		if near > far {
			near, far = far, near
		}
		if near > t0 {
			t0 = near
		}
		if far < t1 {
			t1 = far
		}
		if t1 < t0 {
			return 0, 0, false
		}
	}
	return t0, t1, true
}
