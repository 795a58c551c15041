package material

import (
	"github.com/lumen-render/lumen/pkg/core"
)

// Emissive represents a light-emitting material
type Emissive struct {
	Emission core.Vec3 // Emitted light color/intensity
}

// NewEmissive creates a new emissive material
func NewEmissive(emission core.Vec3) *Emissive {
	return &Emissive{Emission: emission}
}

// Scatter implements the Material interface for emissive materials.
// Emissive materials don't scatter rays - they only emit light.
func (e *Emissive) Scatter(rayIn core.Ray, isect core.SurfaceInteraction, sampler core.Sampler) (core.ScatterResult, bool) {
	return core.ScatterResult{}, false
}

// EvaluateBRDF evaluates the BRDF for a specific outgoing direction.
// Lights don't reflect - they only emit.
func (e *Emissive) EvaluateBRDF(incomingDir, outgoingDir, normal core.Vec3) core.Vec3 {
	return core.Vec3{}
}

// Emit returns the emitted light for this material
func (e *Emissive) Emit(rayIn core.Ray) core.Vec3 {
	return e.Emission
}
