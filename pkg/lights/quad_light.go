// Package lights provides the concrete emitters the scene core samples:
// area lights carried by shapes, a point light, and a uniform environment
// light. Every emitter returns its contribution pre-divided by the
// per-direction solid-angle density, so zero-PDF samples carry zero
// contribution.
package lights

import (
	"fmt"
	"math"

	"github.com/lumen-render/lumen/pkg/core"
	"github.com/lumen-render/lumen/pkg/geometry"
	"github.com/lumen-render/lumen/pkg/material"
)

// QuadLight represents a rectangular area light. It is both a Shape (via the
// embedded quad) and an Emitter: one object, two roles.
type QuadLight struct {
	*geometry.Quad
	Emission core.Vec3
	area     float64 // Cached area for PDF calculations
}

// NewQuadLight creates a new quad light
func NewQuadLight(corner, u, v, emission core.Vec3) *QuadLight {
	return &QuadLight{
		Quad:     geometry.NewQuad(corner, u, v, material.NewEmissive(emission)),
		Emission: emission,
		area:     u.Cross(v).Length(),
	}
}

// SampleDirection samples a point uniformly on the quad and converts the
// area density to a solid-angle density at the reference point
func (ql *QuadLight) SampleDirection(ref core.Interaction, sample core.Vec2) (core.DirectionSample, core.Vec3) {
	samplePoint := ql.Corner.Add(ql.U.Multiply(sample.X)).Add(ql.V.Multiply(sample.Y))

	toLight := samplePoint.Subtract(ref.P)
	distance := toLight.Length()
	if distance < 1e-12 {
		return core.DirectionSample{Emitter: ql}, core.Vec3{}
	}
	direction := toLight.Multiply(1.0 / distance)

	// PDF_solid_angle = PDF_area * distance² / |cos(θ)|
	cosTheta := math.Abs(ql.Normal.Dot(direction.Negate()))
	if cosTheta < 1e-8 {
		// Light is edge-on, no contribution
		return core.DirectionSample{
			Point:     samplePoint,
			Normal:    ql.Normal,
			Direction: direction,
			Distance:  distance,
			Emitter:   ql,
		}, core.Vec3{}
	}
	pdf := (1.0 / ql.area) * distance * distance / cosTheta

	// Only the front face emits
	var contribution core.Vec3
	if direction.Dot(ql.Normal) < 0 {
		contribution = ql.Emission.Multiply(1.0 / pdf)
	}

	return core.DirectionSample{
		Point:     samplePoint,
		Normal:    ql.Normal,
		Direction: direction,
		Distance:  distance,
		PDF:       pdf,
		Emitter:   ql,
	}, contribution
}

// PDFDirection returns the solid-angle density of sampling the given direction
func (ql *QuadLight) PDFDirection(ref core.Interaction, ds core.DirectionSample) float64 {
	ray := core.NewRay(ref.P, ds.Direction)
	isect, hit := ql.Quad.Hit(ray)
	if !hit {
		return 0.0
	}
	cosTheta := math.Abs(ql.Normal.Dot(ds.Direction.Negate()))
	if cosTheta < 1e-8 {
		return 0.0
	}
	return (1.0 / ql.area) * isect.T * isect.T / cosTheta
}

// Emit implements the Emitter interface; finite lights emit nothing along
// escaped rays
func (ql *QuadLight) Emit(ray core.Ray) core.Vec3 {
	return core.Vec3{}
}

// IsEnvironment reports whether this emitter surrounds the scene
func (ql *QuadLight) IsEnvironment() bool { return false }

// SetSceneBounds implements the Emitter interface; quad lights don't need
// scene-wide queries
func (ql *QuadLight) SetSceneBounds(bounds core.AABB) {}

func (ql *QuadLight) String() string {
	return fmt.Sprintf("QuadLight[corner=%v, u=%v, v=%v, emission=%v]", ql.Corner, ql.U, ql.V, ql.Emission)
}
