package lights

import (
	"fmt"
	"math"

	"github.com/lumen-render/lumen/pkg/core"
	"github.com/lumen-render/lumen/pkg/geometry"
	"github.com/lumen-render/lumen/pkg/material"
)

// SphereLight represents a spherical area light; a Shape and an Emitter at once
type SphereLight struct {
	*geometry.Sphere
	Emission core.Vec3
}

// NewSphereLight creates a new spherical light
func NewSphereLight(center core.Vec3, radius float64, emission core.Vec3) *SphereLight {
	return &SphereLight{
		Sphere:   geometry.NewSphere(center, radius, material.NewEmissive(emission)),
		Emission: emission,
	}
}

// SampleDirection samples the cone of directions subtended by the sphere as
// seen from the reference point
func (sl *SphereLight) SampleDirection(ref core.Interaction, sample core.Vec2) (core.DirectionSample, core.Vec3) {
	toCenter := sl.Center.Subtract(ref.P)
	distanceToCenter := toCenter.Length()

	// Reference point inside the sphere: degenerate, cannot contribute
	if distanceToCenter <= sl.Radius {
		return core.DirectionSample{Emitter: sl}, core.Vec3{}
	}

	// Orthonormal basis with w pointing at the sphere center
	w := toCenter.Normalize()
	u, v := core.OrthonormalBasis(w)

	// Half-angle of the cone subtended by the sphere
	sinThetaMax := sl.Radius / distanceToCenter
	cosThetaMax := math.Sqrt(math.Max(0, 1.0-sinThetaMax*sinThetaMax))

	// Uniform direction within the cone
	cosTheta := 1.0 - sample.X*(1.0-cosThetaMax)
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))
	phi := 2.0 * math.Pi * sample.Y

	direction := u.Multiply(sinTheta * math.Cos(phi)).
		Add(v.Multiply(sinTheta * math.Sin(phi))).
		Add(w.Multiply(cosTheta))

	isect, hit := sl.Sphere.Hit(core.NewRay(ref.P, direction))
	if !hit {
		// Grazing the silhouette; treat as a degenerate sample
		return core.DirectionSample{Direction: direction, Emitter: sl}, core.Vec3{}
	}

	// PDF for uniform cone sampling: 1 / (2π (1 - cos θ_max))
	pdf := 1.0 / (2.0 * math.Pi * (1.0 - cosThetaMax))

	return core.DirectionSample{
		Point:     isect.Point,
		Normal:    isect.Normal,
		Direction: direction,
		Distance:  isect.T,
		PDF:       pdf,
		Emitter:   sl,
	}, sl.Emission.Multiply(1.0 / pdf)
}

// PDFDirection returns the cone-sampling density for directions that hit the sphere
func (sl *SphereLight) PDFDirection(ref core.Interaction, ds core.DirectionSample) float64 {
	toCenter := sl.Center.Subtract(ref.P)
	distanceToCenter := toCenter.Length()
	if distanceToCenter <= sl.Radius {
		return 0.0
	}
	if _, hit := sl.Sphere.Hit(core.NewRay(ref.P, ds.Direction)); !hit {
		return 0.0
	}
	sinThetaMax := sl.Radius / distanceToCenter
	cosThetaMax := math.Sqrt(math.Max(0, 1.0-sinThetaMax*sinThetaMax))
	return 1.0 / (2.0 * math.Pi * (1.0 - cosThetaMax))
}

// Emit implements the Emitter interface; finite lights emit nothing along
// escaped rays
func (sl *SphereLight) Emit(ray core.Ray) core.Vec3 {
	return core.Vec3{}
}

// IsEnvironment reports whether this emitter surrounds the scene
func (sl *SphereLight) IsEnvironment() bool { return false }

// SetSceneBounds implements the Emitter interface
func (sl *SphereLight) SetSceneBounds(bounds core.AABB) {}

func (sl *SphereLight) String() string {
	return fmt.Sprintf("SphereLight[center=%v, radius=%g, emission=%v]", sl.Center, sl.Radius, sl.Emission)
}
