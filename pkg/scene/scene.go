// Package scene assembles renderable objects into a queryable scene.
//
// Construction classifies a flat, ordered list of objects by capability
// (Shape, Emitter, Sensor, Integrator), aggregates the bounding volume,
// synthesizes defaults for missing roles, and builds the acceleration
// backend plus the emitter sampling distribution. After New returns, all
// scene state is read-only, so concurrent queries need no locking.
package scene

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/lumen-render/lumen/pkg/accel"
	"github.com/lumen-render/lumen/pkg/core"
	"github.com/lumen-render/lumen/pkg/plugin"

	// Default sensor and integrator plugins.
	_ "github.com/lumen-render/lumen/pkg/integrator"
	_ "github.com/lumen-render/lumen/pkg/sensor"
)

// Configuration errors surfaced at construction.
var (
	ErrMultipleIntegrators  = errors.New("scene: only one integrator can be specified")
	ErrMultipleEnvironments = errors.New("scene: only one environment emitter can be specified")
)

// Scene holds the classified object graph and answers intersection and
// emitter sampling queries
type Scene struct {
	children    []core.Object
	shapes      []core.Shape
	emitters    []core.Emitter
	sensors     []core.Sensor
	integrator  core.Integrator
	environment core.Emitter
	bounds      core.AABB

	emitterDistr *core.DiscreteDistribution
	backend      accel.Backend

	logger    core.Logger
	closeOnce sync.Once
}

// Option configures scene construction
type Option func(*options)

type options struct {
	logger      core.Logger
	backendName string
	weightFn    func(core.Emitter) float64
}

// WithLogger routes construction diagnostics to the given logger
func WithLogger(logger core.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithBackend selects the acceleration backend by registry name
func WithBackend(name string) Option {
	return func(o *options) { o.backendName = name }
}

// WithEmitterWeights overrides the uniform emitter sampling weights.
// The function must return a non-negative weight per emitter.
func WithEmitterWeights(weightFn func(core.Emitter) float64) Option {
	return func(o *options) { o.weightFn = weightFn }
}

// New builds a scene from an ordered list of renderable objects.
// A single object may fill several roles at once, e.g. an area light is
// classified as both a shape and an emitter. Objects that fill no role are
// retained as opaque children.
func New(objects []core.Object, opts ...Option) (*Scene, error) {
	o := options{
		logger:      core.NewDefaultLogger(),
		backendName: accel.DefaultName,
		weightFn:    func(core.Emitter) float64 { return 1 },
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Scene{
		children: make([]core.Object, 0, len(objects)),
		bounds:   core.EmptyAABB(),
		logger:   o.logger,
	}

	for _, obj := range objects {
		if shape, ok := obj.(core.Shape); ok {
			s.shapes = append(s.shapes, shape)
			s.bounds = s.bounds.Union(shape.BoundingBox())
		}
		if emitter, ok := obj.(core.Emitter); ok {
			if emitter.IsEnvironment() {
				if s.environment != nil {
					return nil, ErrMultipleEnvironments
				}
				s.environment = emitter
			}
			s.emitters = append(s.emitters, emitter)
		}
		if sensor, ok := obj.(core.Sensor); ok {
			s.sensors = append(s.sensors, sensor)
		}
		if integrator, ok := obj.(core.Integrator); ok {
			if s.integrator != nil {
				return nil, ErrMultipleIntegrators
			}
			s.integrator = integrator
		}
		s.children = append(s.children, obj)
	}

	if len(s.sensors) == 0 {
		sensor, err := s.defaultSensor()
		if err != nil {
			return nil, err
		}
		s.logger.Printf("Warning: no sensors specified, adding a default sensor\n")
		s.sensors = append(s.sensors, sensor)
	}
	if s.integrator == nil {
		obj, err := plugin.Create("path", plugin.NewProperties("path"))
		if err != nil {
			return nil, err
		}
		s.logger.Printf("Warning: no integrator specified, adding a default integrator\n")
		s.integrator = obj.(core.Integrator)
	}

	for _, emitter := range s.emitters {
		emitter.SetSceneBounds(s.bounds)
	}

	backend, err := accel.New(o.backendName)
	if err != nil {
		return nil, err
	}
	if err := backend.Build(s.shapes); err != nil {
		return nil, fmt.Errorf("scene: backend %q build failed: %w", o.backendName, err)
	}
	s.backend = backend

	if len(s.emitters) > 0 {
		distr := core.NewDiscreteDistribution(len(s.emitters))
		for _, emitter := range s.emitters {
			distr.Append(o.weightFn(emitter))
		}
		if err := distr.Normalize(); err != nil {
			s.backend.Release()
			return nil, fmt.Errorf("scene: emitter weights: %w", err)
		}
		s.emitterDistr = distr
	}

	return s, nil
}

// defaultSensor synthesizes a perspective sensor framing the scene bounds.
// The camera backs away from the bounds along their dominant axis; with an
// empty bounding volume the sensor stays unplaced.
func (s *Scene) defaultSensor() (core.Sensor, error) {
	props := plugin.NewProperties("perspective").Set("fov", 45.0)
	if s.bounds.IsValid() {
		center := s.bounds.Center()
		maxExtent := s.bounds.MaxExtent()
		axis := s.bounds.LongestAxis()
		distance := maxExtent / (2 * math.Tan(22.5*math.Pi/180))

		origin := center.SetComponent(axis, s.bounds.Min.Component(axis)-distance)
		up := core.NewVec3(0, 1, 0)
		if axis == 1 {
			up = core.NewVec3(0, 0, 1)
		}
		props.Set("origin", origin).
			Set("target", center).
			Set("up", up).
			Set("near_clip", distance/100).
			Set("far_clip", 5*maxExtent+distance)
	}
	obj, err := plugin.Create("perspective", props)
	if err != nil {
		return nil, err
	}
	return obj.(core.Sensor), nil
}

// RayIntersect returns the closest intersection per active lane
func (s *Scene) RayIntersect(rays []core.Ray, active []bool) []core.SurfaceInteraction {
	return s.backend.IntersectClosest(rays, active)
}

// RayIntersectNaive intersects without the acceleration structure. It is a
// correctness oracle for validating the accelerated path and fails on
// backends that cannot support it.
func (s *Scene) RayIntersectNaive(rays []core.Ray, active []bool) ([]core.SurfaceInteraction, error) {
	return s.backend.IntersectNaive(rays, active)
}

// RayTest reports, per active lane, whether any geometry is hit
func (s *Scene) RayTest(rays []core.Ray, active []bool) []bool {
	return s.backend.TestOccluded(rays, active)
}

// SampleEmitterDirection importance-samples one emitter and a direction
// toward it per active lane. The discrete emitter choice reuses the first
// sample component; the returned density is the joint density of emitter
// and direction, and the contribution is pre-divided by it. With visibility
// testing on, occluded lanes keep their sample but contribute zero.
// A scene without emitters returns all-zero results.
func (s *Scene) SampleEmitterDirection(refs []core.Interaction, samples []core.Vec2, testVisibility bool, active []bool) ([]core.DirectionSample, []core.Vec3) {
	ds := make([]core.DirectionSample, len(refs))
	contribs := make([]core.Vec3, len(refs))
	if s.emitterDistr == nil {
		return ds, contribs
	}

	shadowRays := make([]core.Ray, len(refs))
	shadowActive := make([]bool, len(refs))
	needShadow := false

	for i := range refs {
		if !core.Lane(active, i) {
			continue
		}
		index, emitterPDF, reused := s.emitterDistr.SampleReusePDF(samples[i].X)
		emitter := s.emitters[index]

		sample, contrib := emitter.SampleDirection(refs[i], core.NewVec2(reused, samples[i].Y))
		sample.Emitter = emitter
		if sample.PDF == 0 {
			ds[i] = sample
			continue
		}
		sample.PDF *= emitterPDF
		ds[i] = sample
		contribs[i] = contrib.Multiply(1 / emitterPDF)

		if testVisibility {
			tMin := core.Epsilon * (1 + refs[i].P.MaxAbsComponent())
			tMax := sample.Distance * (1 - core.ShadowEpsilon)
			shadowRays[i] = core.NewBoundedRay(refs[i].P, sample.Direction, tMin, tMax)
			shadowActive[i] = true
			needShadow = true
		}
	}

	if needShadow {
		occluded := s.backend.TestOccluded(shadowRays, shadowActive)
		for i, blocked := range occluded {
			if blocked {
				contribs[i] = core.NewVec3(0, 0, 0)
			}
		}
	}
	return ds, contribs
}

// Environment returns the scene's environment emitter, or nil
func (s *Scene) Environment() core.Emitter { return s.environment }

// Bounds returns the aggregate bounding volume over all shapes
func (s *Scene) Bounds() core.AABB { return s.bounds }

// Children returns the supplied objects in insertion order. Synthesized
// defaults are reachable through Sensors and Integrator only.
func (s *Scene) Children() []core.Object { return s.children }

// Shapes returns the classified shapes in insertion order
func (s *Scene) Shapes() []core.Shape { return s.shapes }

// Emitters returns the classified emitters in insertion order
func (s *Scene) Emitters() []core.Emitter { return s.emitters }

// Sensors returns the classified sensors; index 0 is the default render view
func (s *Scene) Sensors() []core.Sensor { return s.sensors }

// Integrator returns the scene's light transport algorithm
func (s *Scene) Integrator() core.Integrator { return s.integrator }

// Close releases the acceleration backend. Safe to call more than once.
func (s *Scene) Close() {
	s.closeOnce.Do(func() {
		if s.backend != nil {
			s.backend.Release()
		}
	})
}

// String returns a structural dump of the scene graph for diagnostics
func (s *Scene) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scene[\n")
	fmt.Fprintf(&b, "    backend = %s,\n", s.backend.Name())
	fmt.Fprintf(&b, "    bounds = %v,\n", s.bounds)
	fmt.Fprintf(&b, "    integrator = %s,\n", indentTail(s.integrator.String()))
	fmt.Fprintf(&b, "    sensors = %s,\n", indentTail(objectList(sensorsAsObjects(s.sensors))))
	fmt.Fprintf(&b, "    children = %s\n", indentTail(objectList(s.children)))
	fmt.Fprintf(&b, "]")
	return b.String()
}

func sensorsAsObjects(sensors []core.Sensor) []core.Object {
	objects := make([]core.Object, len(sensors))
	for i, sensor := range sensors {
		objects[i] = sensor
	}
	return objects
}

func objectList(objects []core.Object) string {
	if len(objects) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteString("[\n")
	for _, obj := range objects {
		fmt.Fprintf(&b, "    %s,\n", indentTail(obj.String()))
	}
	b.WriteString("]")
	return b.String()
}

// indentTail indents every line after the first by one level, keeping
// nested multi-line dumps aligned
func indentTail(text string) string {
	return strings.ReplaceAll(text, "\n", "\n    ")
}
