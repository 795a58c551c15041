package core

// Interaction is a reference point on a surface (or in free space) from
// which emitter sampling and shadow rays originate
type Interaction struct {
	P Vec3 // Position
	N Vec3 // Surface normal (zero for points in free space)
}

// SurfaceInteraction contains information about a ray-surface intersection.
// Valid is false for lanes whose ray missed all geometry (or was inactive).
type SurfaceInteraction struct {
	Valid     bool
	T         float64  // Parameter t along the ray
	Point     Vec3     // Point of intersection
	Normal    Vec3     // Surface normal at intersection, facing the ray
	FrontFace bool     // Whether the ray hit the front face
	Material  Material // Material of the hit shape (nil when untextured geometry)
	Shape     Shape    // The shape that was hit
}

// SetFaceNormal sets the normal vector and determines front/back face
func (si *SurfaceInteraction) SetFaceNormal(ray Ray, outwardNormal Vec3) {
	si.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if si.FrontFace {
		si.Normal = outwardNormal
	} else {
		si.Normal = outwardNormal.Negate()
	}
}

// DirectionSample describes a sampled direction from a reference point toward
// a chosen emitter. PDF is a solid-angle density; after emitter selection it
// also includes the discrete probability of having picked this emitter.
type DirectionSample struct {
	Point     Vec3    // Sampled point on the emitter (meaningless for environment emitters)
	Normal    Vec3    // Normal at the sampled point
	Direction Vec3    // Unit direction from the reference point toward the emitter
	Distance  float64 // Distance to the sampled point (+inf for environment emitters)
	PDF       float64 // Solid-angle probability density of this sample
	Emitter   Emitter // Identity of the sampled emitter
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   Ray     // The scattered ray
	Attenuation Vec3    // BRDF value (already includes any albedo/π factors)
	PDF         float64 // Probability density of the scattered direction (0 for specular)
}

// IsSpecular returns true if this is specular scattering (no PDF)
func (s ScatterResult) IsSpecular() bool {
	return s.PDF <= 0
}
