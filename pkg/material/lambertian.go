// Package material provides the minimal material layer the path-tracing
// integrator needs: diffuse reflection and surface emission.
package material

import (
	"math"

	"github.com/lumen-render/lumen/pkg/core"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo core.Vec3 // Base reflectance
}

// NewLambertian creates a new lambertian material
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

// Scatter implements the Material interface for lambertian scattering
func (l *Lambertian) Scatter(rayIn core.Ray, isect core.SurfaceInteraction, sampler core.Sampler) (core.ScatterResult, bool) {
	// Cosine-weighted direction in the hemisphere around the normal
	scatterDirection := core.SampleCosineHemisphere(isect.Normal, sampler.Get2D())
	scattered := core.NewRay(isect.Point, scatterDirection)

	cosTheta := scatterDirection.Dot(isect.Normal)
	if cosTheta < 0 {
		cosTheta = 0
	}

	return core.ScatterResult{
		Scattered:   scattered,
		Attenuation: l.Albedo.Multiply(1.0 / math.Pi), // BRDF: albedo / π
		PDF:         cosTheta / math.Pi,
	}, true
}

// EvaluateBRDF evaluates the BRDF for a specific outgoing direction
func (l *Lambertian) EvaluateBRDF(incomingDir, outgoingDir, normal core.Vec3) core.Vec3 {
	if outgoingDir.Dot(normal) <= 0 {
		return core.Vec3{}
	}
	return l.Albedo.Multiply(1.0 / math.Pi)
}
