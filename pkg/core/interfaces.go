package core

// Logger interface for renderer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// Object is the umbrella interface for everything a scene can hold.
// Concrete objects additionally satisfy one or more of the capability
// interfaces below (Shape, Emitter, Sensor, Integrator); a single value
// may satisfy several at once, e.g. an area light is both a Shape and
// an Emitter.
type Object interface {
	String() string
}

// Shape interface for objects that can be hit by rays
type Shape interface {
	Object

	// Hit tests the ray against the shape, honoring ray.TMin/ray.TMax
	Hit(ray Ray) (*SurfaceInteraction, bool)

	// BoundingBox returns the axis-aligned bounds of the shape
	BoundingBox() AABB
}

// Emitter interface for light sources that can be sampled for direct lighting
type Emitter interface {
	Object

	// SampleDirection samples a direction from the reference point toward the
	// emitter. The returned contribution is the emitted radiance already
	// divided by the per-direction solid-angle density; a zero-PDF sample
	// carries zero contribution.
	SampleDirection(ref Interaction, sample Vec2) (DirectionSample, Vec3)

	// PDFDirection returns the solid-angle density of sampling the given
	// direction from the reference point
	PDFDirection(ref Interaction, ds DirectionSample) float64

	// Emit evaluates emission along a ray that escaped the scene.
	// Finite emitters return zero; environment emitters return their radiance.
	Emit(ray Ray) Vec3

	// IsEnvironment reports whether this emitter surrounds the whole scene.
	// At most one environment emitter may exist per scene.
	IsEnvironment() bool

	// SetSceneBounds notifies the emitter of the aggregate scene bounds,
	// which environment emitters need for placement and extent queries
	SetSceneBounds(bounds AABB)
}

// Sensor interface for cameras and other measurement devices
type Sensor interface {
	Object

	// SampleRay generates a ray for the given film position (both in [0,1))
	// and aperture sample, returning the ray and its importance weight
	SampleRay(filmUV Vec2, aperture Vec2) (Ray, Vec3)
}

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	Object

	// Li computes the radiance arriving along a ray
	Li(ray Ray, scene SceneQueries, sampler Sampler) Vec3
}

// SceneQueries is the read-only query surface a scene exposes to integrators.
// All methods operate on batches of logically independent rays/samples under
// a shared active-lane mask (nil mask = all lanes active); inactive lanes are
// never observed and their outputs are the zero value.
type SceneQueries interface {
	// RayIntersect returns the closest intersection per active lane
	RayIntersect(rays []Ray, active []bool) []SurfaceInteraction

	// RayIntersectNaive is the unaccelerated correctness oracle; it fails
	// when the active backend cannot provide an unaccelerated path
	RayIntersectNaive(rays []Ray, active []bool) ([]SurfaceInteraction, error)

	// RayTest reports, per active lane, whether any geometry is hit
	RayTest(rays []Ray, active []bool) []bool

	// SampleEmitterDirection importance-samples one emitter and a direction
	// toward it per active lane, returning the direction sample and its
	// contribution (see DirectionSample)
	SampleEmitterDirection(refs []Interaction, samples []Vec2, testVisibility bool, active []bool) ([]DirectionSample, []Vec3)

	// Environment returns the scene's environment emitter, or nil
	Environment() Emitter

	// Bounds returns the aggregate bounding volume over all shapes
	Bounds() AABB
}

// Material interface for surfaces that can scatter rays
type Material interface {
	// Scatter generates a scattered ray at the intersection, or reports false
	// when the surface absorbs the path (e.g. pure emitters)
	Scatter(rayIn Ray, isect SurfaceInteraction, sampler Sampler) (ScatterResult, bool)

	// EvaluateBRDF evaluates the BRDF for a specific outgoing direction
	EvaluateBRDF(incomingDir, outgoingDir, normal Vec3) Vec3
}

// EmissiveMaterial is an optional capability of materials that emit light
type EmissiveMaterial interface {
	Emit(rayIn Ray) Vec3
}
