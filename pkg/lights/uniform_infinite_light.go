package lights

import (
	"fmt"
	"math"

	"github.com/lumen-render/lumen/pkg/core"
)

// UniformInfiniteLight is an environment emitter with constant radiance in
// every direction. At most one environment emitter may exist per scene; the
// scene notifies it of the aggregate bounds after assembly.
type UniformInfiniteLight struct {
	Emission    core.Vec3
	worldCenter core.Vec3
	worldRadius float64
}

// NewUniformInfiniteLight creates a new uniform environment light
func NewUniformInfiniteLight(emission core.Vec3) *UniformInfiniteLight {
	return &UniformInfiniteLight{Emission: emission}
}

// SampleDirection samples the hemisphere above the reference normal with a
// cosine-weighted density, which cancels the cosine term of the estimator
func (uil *UniformInfiniteLight) SampleDirection(ref core.Interaction, sample core.Vec2) (core.DirectionSample, core.Vec3) {
	direction := core.SampleCosineHemisphere(ref.N, sample)
	cosTheta := direction.Dot(ref.N)
	if cosTheta <= 0 {
		return core.DirectionSample{Direction: direction, Emitter: uil}, core.Vec3{}
	}
	pdf := cosTheta / math.Pi

	// A representative far point outside the finite scene, for diagnostics
	far := 2.0 * uil.worldRadius
	if far <= 0 {
		far = 1e8
	}

	return core.DirectionSample{
		Point:     ref.P.Add(direction.Multiply(far)),
		Normal:    direction.Negate(),
		Direction: direction,
		Distance:  math.Inf(1),
		PDF:       pdf,
		Emitter:   uil,
	}, uil.Emission.Multiply(1.0 / pdf)
}

// PDFDirection returns the cosine-weighted hemisphere density
func (uil *UniformInfiniteLight) PDFDirection(ref core.Interaction, ds core.DirectionSample) float64 {
	cosTheta := ds.Direction.Dot(ref.N)
	if cosTheta <= 0 {
		return 0.0
	}
	return cosTheta / math.Pi
}

// Emit evaluates emission for rays that escaped the scene
func (uil *UniformInfiniteLight) Emit(ray core.Ray) core.Vec3 {
	return uil.Emission
}

// IsEnvironment reports whether this emitter surrounds the scene
func (uil *UniformInfiniteLight) IsEnvironment() bool { return true }

// SetSceneBounds records the finite scene extent for far-point placement
func (uil *UniformInfiniteLight) SetSceneBounds(bounds core.AABB) {
	if !bounds.IsValid() {
		return
	}
	uil.worldCenter = bounds.Center()
	uil.worldRadius = bounds.Max.Subtract(uil.worldCenter).Length()
}

func (uil *UniformInfiniteLight) String() string {
	return fmt.Sprintf("UniformInfiniteLight[emission=%v]", uil.Emission)
}
