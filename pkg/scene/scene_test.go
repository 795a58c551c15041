package scene

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/lumen-render/lumen/pkg/accel"
	"github.com/lumen-render/lumen/pkg/core"
	"github.com/lumen-render/lumen/pkg/geometry"
	"github.com/lumen-render/lumen/pkg/integrator"
	"github.com/lumen-render/lumen/pkg/lights"
	"github.com/lumen-render/lumen/pkg/material"
	"github.com/lumen-render/lumen/pkg/sensor"
)

// capturingLogger records log lines for assertions
type capturingLogger struct {
	lines []string
}

func (l *capturingLogger) Printf(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *capturingLogger) contains(substr string) bool {
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func grayMaterial() core.Material {
	return material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
}

func TestClassificationDualRole(t *testing.T) {
	shape := geometry.NewSphere(core.NewVec3(0, 0, 0), 1, grayMaterial())
	light := lights.NewQuadLight(
		core.NewVec3(-1, 3, -1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 2),
		core.NewVec3(5, 5, 5))

	s, err := New([]core.Object{shape, light}, WithLogger(&capturingLogger{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	// The area light fills both roles.
	if len(s.Shapes()) != 2 {
		t.Errorf("shapes = %d, want 2", len(s.Shapes()))
	}
	if len(s.Emitters()) != 1 {
		t.Errorf("emitters = %d, want 1", len(s.Emitters()))
	}
	if s.Children()[0] != core.Object(shape) || s.Children()[1] != core.Object(light) {
		t.Error("children must preserve insertion order")
	}
	if s.Environment() != nil {
		t.Error("no environment emitter was supplied")
	}
}

func TestDuplicateIntegratorError(t *testing.T) {
	objects := []core.Object{integrator.NewPathTracer(4), integrator.NewPathTracer(8)}
	if _, err := New(objects, WithLogger(&capturingLogger{})); !errors.Is(err, ErrMultipleIntegrators) {
		t.Errorf("New error = %v, want ErrMultipleIntegrators", err)
	}
}

func TestDuplicateEnvironmentError(t *testing.T) {
	objects := []core.Object{
		lights.NewUniformInfiniteLight(core.NewVec3(1, 1, 1)),
		lights.NewUniformInfiniteLight(core.NewVec3(2, 2, 2)),
	}
	if _, err := New(objects, WithLogger(&capturingLogger{})); !errors.Is(err, ErrMultipleEnvironments) {
		t.Errorf("New error = %v, want ErrMultipleEnvironments", err)
	}
}

func TestDefaultSensorFramesBounds(t *testing.T) {
	logger := &capturingLogger{}
	shapes := []core.Object{
		geometry.NewSphere(core.NewVec3(-3, 0, 0), 1, grayMaterial()),
		geometry.NewSphere(core.NewVec3(3, 0.5, 1), 1, grayMaterial()),
	}
	s, err := New(shapes, WithLogger(logger))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if !logger.contains("no sensors specified") {
		t.Error("default sensor synthesis must log a warning")
	}
	if len(s.Sensors()) != 1 {
		t.Fatalf("sensors = %d, want exactly one synthesized", len(s.Sensors()))
	}
	if len(s.Children()) != len(shapes) {
		t.Errorf("children = %d, want the %d supplied objects only", len(s.Children()), len(shapes))
	}
	cam, ok := s.Sensors()[0].(*sensor.Perspective)
	if !ok {
		t.Fatalf("default sensor is %T, want *sensor.Perspective", s.Sensors()[0])
	}
	if cam.FOV() != 45 {
		t.Errorf("default fov = %v, want 45", cam.FOV())
	}
	for i, corner := range s.Bounds().Corners() {
		if !cam.ContainsPoint(corner) {
			t.Errorf("bounds corner %d (%v) outside the default frustum", i, corner)
		}
	}
}

func TestDefaultSensorEmptyScene(t *testing.T) {
	logger := &capturingLogger{}
	s, err := New(nil, WithLogger(logger))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if len(s.Sensors()) != 1 {
		t.Fatalf("sensors = %d, want 1", len(s.Sensors()))
	}
	cam := s.Sensors()[0].(*sensor.Perspective)
	if cam.Origin() != core.NewVec3(0, 0, 0) {
		t.Errorf("empty scene sensor should be unplaced, got origin %v", cam.Origin())
	}
}

func TestDefaultIntegratorSynthesis(t *testing.T) {
	logger := &capturingLogger{}
	s, err := New(nil, WithLogger(logger))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if !logger.contains("no integrator specified") {
		t.Error("default integrator synthesis must log a warning")
	}
	if _, ok := s.Integrator().(*integrator.PathTracer); !ok {
		t.Errorf("default integrator is %T, want *integrator.PathTracer", s.Integrator())
	}
	if len(s.Children()) != 0 {
		t.Errorf("children = %d, synthesized defaults must not appear", len(s.Children()))
	}
}

func TestZeroEmittersZeroContribution(t *testing.T) {
	s, err := New([]core.Object{
		geometry.NewSphere(core.NewVec3(0, 0, 0), 1, grayMaterial()),
	}, WithLogger(&capturingLogger{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	refs := []core.Interaction{
		{P: core.NewVec3(0, 2, 0), N: core.NewVec3(0, 1, 0)},
		{P: core.NewVec3(1, 2, 0), N: core.NewVec3(0, 1, 0)},
	}
	samples := []core.Vec2{core.NewVec2(0.3, 0.4), core.NewVec2(0.7, 0.1)}
	ds, contribs := s.SampleEmitterDirection(refs, samples, true, nil)
	for i := range refs {
		if contribs[i] != core.NewVec3(0, 0, 0) {
			t.Errorf("lane %d: contribution = %v, want zero", i, contribs[i])
		}
		if ds[i].PDF != 0 {
			t.Errorf("lane %d: pdf = %v, want 0", i, ds[i].PDF)
		}
	}
}

func TestOcclusionZeroesContribution(t *testing.T) {
	ref := core.Interaction{P: core.NewVec3(0, 0, 0), N: core.NewVec3(0, 1, 0)}
	light := lights.NewQuadLight(
		core.NewVec3(-1, 4, -1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 2),
		core.NewVec3(10, 10, 10))
	// A wide quad between the reference point and the light blocks every
	// direction toward it.
	blocker := geometry.NewQuad(
		core.NewVec3(-50, 2, -50), core.NewVec3(100, 0, 0), core.NewVec3(0, 0, 100),
		grayMaterial())

	s, err := New([]core.Object{light, blocker}, WithLogger(&capturingLogger{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	refs := []core.Interaction{ref}
	samples := []core.Vec2{core.NewVec2(0.5, 0.5)}

	_, blocked := s.SampleEmitterDirection(refs, samples, true, nil)
	if blocked[0] != core.NewVec3(0, 0, 0) {
		t.Errorf("occluded contribution = %v, want zero", blocked[0])
	}

	ds, open := s.SampleEmitterDirection(refs, samples, false, nil)
	if open[0] == core.NewVec3(0, 0, 0) {
		t.Error("without visibility testing the contribution must be non-zero")
	}
	if ds[0].PDF <= 0 {
		t.Errorf("pdf = %v, want positive", ds[0].PDF)
	}
	if ds[0].Emitter != core.Emitter(light) {
		t.Error("sample must identify the chosen emitter")
	}
}

func TestTwoEmitterEstimatorUnbiased(t *testing.T) {
	// Two point lights with unobstructed visibility. The contribution is
	// pre-divided by the joint density, so its sample mean converges to the
	// analytic total incident intensity regardless of selection weights.
	l1 := lights.NewPointLight(core.NewVec3(0, 2, 0), core.NewVec3(8, 8, 8))    // 8/4 = 2
	l2 := lights.NewPointLight(core.NewVec3(0, 0, 3), core.NewVec3(18, 18, 18)) // 18/9 = 2
	want := 4.0

	weights := func(e core.Emitter) float64 {
		if e == core.Emitter(l1) {
			return 1
		}
		return 3
	}
	s, err := New([]core.Object{l1, l2}, WithLogger(&capturingLogger{}), WithEmitterWeights(weights))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	ref := core.Interaction{P: core.NewVec3(0, 0, 0), N: core.NewVec3(0, 1, 0)}
	const n = 10000
	var sum float64
	for i := 0; i < n; i++ {
		u := (float64(i) + 0.5) / n
		_, contribs := s.SampleEmitterDirection(
			[]core.Interaction{ref}, []core.Vec2{core.NewVec2(u, 0.5)}, true, nil)
		sum += contribs[0].X
	}
	mean := sum / n
	if math.Abs(mean-want) > 0.05 {
		t.Errorf("estimator mean = %v, want %v within 0.05", mean, want)
	}
}

func TestActiveMaskSkipsLanes(t *testing.T) {
	light := lights.NewPointLight(core.NewVec3(0, 5, 0), core.NewVec3(100, 100, 100))
	s, err := New([]core.Object{light}, WithLogger(&capturingLogger{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	refs := []core.Interaction{
		{P: core.NewVec3(0, 0, 0), N: core.NewVec3(0, 1, 0)},
		{P: core.NewVec3(1, 0, 0), N: core.NewVec3(0, 1, 0)},
	}
	samples := []core.Vec2{core.NewVec2(0.2, 0.2), core.NewVec2(0.8, 0.8)}
	ds, contribs := s.SampleEmitterDirection(refs, samples, true, []bool{false, true})

	if contribs[0] != core.NewVec3(0, 0, 0) || ds[0].PDF != 0 {
		t.Error("inactive lane must produce zero outputs")
	}
	if contribs[1] == core.NewVec3(0, 0, 0) {
		t.Error("active lane must produce a contribution")
	}
}

func TestIntersectionForwarding(t *testing.T) {
	sphere := geometry.NewSphere(core.NewVec3(0, 0, -5), 1, grayMaterial())
	s, err := New([]core.Object{sphere}, WithLogger(&capturingLogger{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	rays := []core.Ray{
		core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)),
		core.NewRay(core.NewVec3(0, 10, 0), core.NewVec3(0, 0, -1)),
	}
	isects := s.RayIntersect(rays, nil)
	if !isects[0].Valid || isects[1].Valid {
		t.Fatalf("RayIntersect validity = (%v, %v), want (true, false)", isects[0].Valid, isects[1].Valid)
	}
	if math.Abs(isects[0].T-4) > 1e-9 {
		t.Errorf("hit distance = %v, want 4", isects[0].T)
	}

	occluded := s.RayTest(rays, nil)
	if !occluded[0] || occluded[1] {
		t.Errorf("RayTest = %v, want [true false]", occluded)
	}

	naive, err := s.RayIntersectNaive(rays, nil)
	if err != nil {
		t.Fatalf("RayIntersectNaive on the default backend: %v", err)
	}
	if !naive[0].Valid || math.Abs(naive[0].T-isects[0].T) > 1e-12 {
		t.Error("naive oracle disagrees with the accelerated path")
	}
}

func TestNaiveUnsupportedOnLibraryBackend(t *testing.T) {
	sphere := geometry.NewSphere(core.NewVec3(0, 0, -5), 1, grayMaterial())
	s, err := New([]core.Object{sphere}, WithLogger(&capturingLogger{}), WithBackend("rtree"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	rays := []core.Ray{core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))}
	if _, err := s.RayIntersectNaive(rays, nil); !errors.Is(err, accel.ErrNaiveUnsupported) {
		t.Errorf("RayIntersectNaive error = %v, want ErrNaiveUnsupported", err)
	}
	// The accelerated path still works.
	if !s.RayIntersect(rays, nil)[0].Valid {
		t.Error("accelerated intersection failed on rtree backend")
	}
}

func TestUnknownBackendFailsConstruction(t *testing.T) {
	if _, err := New(nil, WithLogger(&capturingLogger{}), WithBackend("embree")); !errors.Is(err, accel.ErrUnknownBackend) {
		t.Errorf("New error = %v, want ErrUnknownBackend", err)
	}
}

func TestEnvironmentNotifiedOfBounds(t *testing.T) {
	env := lights.NewUniformInfiniteLight(core.NewVec3(1, 1, 1))
	sphere := geometry.NewSphere(core.NewVec3(0, 0, 0), 2, grayMaterial())
	s, err := New([]core.Object{sphere, env}, WithLogger(&capturingLogger{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if s.Environment() != core.Emitter(env) {
		t.Fatal("environment emitter not classified")
	}
	ref := core.Interaction{P: core.NewVec3(0, 3, 0), N: core.NewVec3(0, 1, 0)}
	ds, contrib := s.SampleEmitterDirection(
		[]core.Interaction{ref}, []core.Vec2{core.NewVec2(0.4, 0.6)}, false, nil)
	if ds[0].PDF <= 0 {
		t.Errorf("environment sample pdf = %v, want positive", ds[0].PDF)
	}
	if contrib[0] == core.NewVec3(0, 0, 0) {
		t.Error("environment sample above the horizon must contribute")
	}
	if !math.IsInf(ds[0].Distance, 1) {
		t.Errorf("environment sample distance = %v, want +Inf", ds[0].Distance)
	}
}

func TestSceneStringDump(t *testing.T) {
	s, err := New([]core.Object{
		geometry.NewSphere(core.NewVec3(0, 0, 0), 1, grayMaterial()),
	}, WithLogger(&capturingLogger{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	dump := s.String()
	for _, want := range []string{"Scene[", "backend = bvh", "Sphere", "PathTracer", "Perspective"} {
		if !strings.Contains(dump, want) {
			t.Errorf("scene dump missing %q:\n%s", want, dump)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := New(nil, WithLogger(&capturingLogger{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Close()
	s.Close()
}
