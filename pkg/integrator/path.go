// Package integrator provides light transport algorithms.
package integrator

import (
	"fmt"
	"math"

	"github.com/lumen-render/lumen/pkg/core"
	"github.com/lumen-render/lumen/pkg/plugin"
)

func init() {
	plugin.Register("path", func(props plugin.Properties) (core.Object, error) {
		return NewPathTracerFromProps(props)
	})
}

// PathTracer is a unidirectional path tracer with next event estimation.
// Direct light is gathered by sampling the scene's emitters at every diffuse
// vertex; emission found by following the path itself is only counted after
// specular bounces, where light sampling cannot reach.
type PathTracer struct {
	maxDepth   int
	rrMinDepth int // first bounce at which Russian roulette may terminate
}

// NewPathTracer creates a path tracer with the given maximum path depth
func NewPathTracer(maxDepth int) *PathTracer {
	return &PathTracer{maxDepth: maxDepth, rrMinDepth: 3}
}

// NewPathTracerFromProps builds a path tracer from a configuration bundle
func NewPathTracerFromProps(props plugin.Properties) (*PathTracer, error) {
	maxDepth := props.Int("max_depth", 8)
	if maxDepth < 1 {
		return nil, fmt.Errorf("integrator: max_depth %d must be positive", maxDepth)
	}
	pt := NewPathTracer(maxDepth)
	pt.rrMinDepth = props.Int("rr_depth", 3)
	return pt, nil
}

// Li computes the radiance arriving along the ray
func (pt *PathTracer) Li(ray core.Ray, scene core.SceneQueries, sampler core.Sampler) core.Vec3 {
	radiance := core.NewVec3(0, 0, 0)
	throughput := core.NewVec3(1, 1, 1)
	specularBounce := true // the primary hit always counts emission

	for depth := 0; depth < pt.maxDepth; depth++ {
		isect := scene.RayIntersect([]core.Ray{ray}, nil)[0]
		if !isect.Valid {
			if env := scene.Environment(); env != nil && specularBounce {
				radiance = radiance.Add(throughput.MultiplyVec(env.Emit(ray)))
			}
			break
		}

		if specularBounce {
			if emissive, ok := isect.Material.(core.EmissiveMaterial); ok {
				radiance = radiance.Add(throughput.MultiplyVec(emissive.Emit(ray)))
			}
		}

		scatter, didScatter := isect.Material.Scatter(ray, isect, sampler)
		if !didScatter {
			break
		}

		if scatter.IsSpecular() {
			throughput = throughput.MultiplyVec(scatter.Attenuation)
			ray = scatter.Scattered
			specularBounce = true
			continue
		}

		radiance = radiance.Add(pt.directLight(scene, sampler, ray, isect, throughput))

		cosine := scatter.Scattered.Direction.Normalize().Dot(isect.Normal)
		if scatter.PDF <= 0 || cosine <= 0 {
			break
		}
		throughput = throughput.MultiplyVec(scatter.Attenuation).Multiply(cosine / scatter.PDF)
		ray = scatter.Scattered
		specularBounce = false

		if depth >= pt.rrMinDepth {
			survival := math.Min(0.95, math.Max(0.5, throughput.Luminance()))
			if sampler.Get1D() > survival {
				break
			}
			throughput = throughput.Multiply(1 / survival)
		}
	}
	return radiance
}

// directLight estimates direct illumination at a diffuse vertex by sampling
// the scene's emitters, shadow test included.
func (pt *PathTracer) directLight(scene core.SceneQueries, sampler core.Sampler, rayIn core.Ray, isect core.SurfaceInteraction, throughput core.Vec3) core.Vec3 {
	ref := core.Interaction{P: isect.Point, N: isect.Normal}
	samples, contribs := scene.SampleEmitterDirection(
		[]core.Interaction{ref}, []core.Vec2{sampler.Get2D()}, true, nil)

	ds, contrib := samples[0], contribs[0]
	if ds.PDF <= 0 {
		return core.NewVec3(0, 0, 0)
	}
	cosine := ds.Direction.Dot(isect.Normal)
	if cosine <= 0 {
		return core.NewVec3(0, 0, 0)
	}
	brdf := isect.Material.EvaluateBRDF(rayIn.Direction.Normalize(), ds.Direction, isect.Normal)
	return throughput.MultiplyVec(brdf).MultiplyVec(contrib).Multiply(cosine)
}

// MaxDepth returns the maximum path depth
func (pt *PathTracer) MaxDepth() int { return pt.maxDepth }

func (pt *PathTracer) String() string {
	return fmt.Sprintf("PathTracer(max_depth=%d, rr_depth=%d)", pt.maxDepth, pt.rrMinDepth)
}
