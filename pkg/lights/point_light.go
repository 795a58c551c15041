package lights

import (
	"fmt"

	"github.com/lumen-render/lumen/pkg/core"
)

// PointLight is a standalone delta emitter: it has a unique direction from
// every reference point, so its solid-angle density is a delta represented
// as PDF = 1.
type PointLight struct {
	Position  core.Vec3
	Intensity core.Vec3 // Radiant intensity (power per solid angle)
}

// NewPointLight creates a new point light
func NewPointLight(position, intensity core.Vec3) *PointLight {
	return &PointLight{Position: position, Intensity: intensity}
}

// SampleDirection returns the single direction toward the light with the
// inverse-square falloff folded into the contribution
func (pl *PointLight) SampleDirection(ref core.Interaction, sample core.Vec2) (core.DirectionSample, core.Vec3) {
	toLight := pl.Position.Subtract(ref.P)
	distanceSquared := toLight.LengthSquared()
	if distanceSquared < 1e-16 {
		return core.DirectionSample{Emitter: pl}, core.Vec3{}
	}
	distance := toLight.Length()
	direction := toLight.Multiply(1.0 / distance)

	ds := core.DirectionSample{
		Point:     pl.Position,
		Normal:    direction.Negate(),
		Direction: direction,
		Distance:  distance,
		PDF:       1.0,
		Emitter:   pl,
	}
	return ds, pl.Intensity.Multiply(1.0 / distanceSquared)
}

// PDFDirection returns 0: a delta emitter can never be hit by a sampled direction
func (pl *PointLight) PDFDirection(ref core.Interaction, ds core.DirectionSample) float64 {
	return 0.0
}

// Emit implements the Emitter interface
func (pl *PointLight) Emit(ray core.Ray) core.Vec3 {
	return core.Vec3{}
}

// IsEnvironment reports whether this emitter surrounds the scene
func (pl *PointLight) IsEnvironment() bool { return false }

// SetSceneBounds implements the Emitter interface
func (pl *PointLight) SetSceneBounds(bounds core.AABB) {}

func (pl *PointLight) String() string {
	return fmt.Sprintf("PointLight[position=%v, intensity=%v]", pl.Position, pl.Intensity)
}
