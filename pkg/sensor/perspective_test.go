package sensor

import (
	"math"
	"testing"

	"github.com/lumen-render/lumen/pkg/core"
	"github.com/lumen-render/lumen/pkg/plugin"
)

func testCamera() *Perspective {
	return NewPerspective(
		core.NewVec3(0, 0, 5), core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0),
		90, 1, 0.1, 100)
}

func TestSampleRayCenter(t *testing.T) {
	cam := testCamera()
	ray, weight := cam.SampleRay(core.NewVec2(0.5, 0.5), core.NewVec2(0, 0))

	dir := ray.Direction.Normalize()
	want := core.NewVec3(0, 0, -1)
	if dir.Subtract(want).Length() > 1e-9 {
		t.Errorf("center ray direction = %v, want %v", dir, want)
	}
	if weight != core.NewVec3(1, 1, 1) {
		t.Errorf("ray weight = %v, want (1,1,1)", weight)
	}
}

func TestSampleRayClipRange(t *testing.T) {
	cam := testCamera()
	ray, _ := cam.SampleRay(core.NewVec2(0.5, 0.5), core.NewVec2(0, 0))

	// Along the view axis, the ray must start at the near plane and end
	// at the far plane.
	near := ray.At(ray.TMin).Subtract(cam.Origin()).Dot(cam.Forward())
	far := ray.At(ray.TMax).Subtract(cam.Origin()).Dot(cam.Forward())
	if math.Abs(near-0.1) > 1e-9 {
		t.Errorf("near intersection at depth %v, want 0.1", near)
	}
	if math.Abs(far-100) > 1e-6 {
		t.Errorf("far intersection at depth %v, want 100", far)
	}

	// Corner rays are longer, so the same must hold off axis too.
	corner, _ := cam.SampleRay(core.NewVec2(0, 0), core.NewVec2(0, 0))
	nearCorner := corner.At(corner.TMin).Subtract(cam.Origin()).Dot(cam.Forward())
	if math.Abs(nearCorner-0.1) > 1e-9 {
		t.Errorf("corner near depth = %v, want 0.1", nearCorner)
	}
}

func TestContainsPoint(t *testing.T) {
	cam := testCamera()
	cases := []struct {
		name string
		p    core.Vec3
		want bool
	}{
		{"on axis", core.NewVec3(0, 0, 0), true},
		{"behind camera", core.NewVec3(0, 0, 6), false},
		{"before near plane", core.NewVec3(0, 0, 4.95), false},
		{"beyond far plane", core.NewVec3(0, 0, -200), false},
		{"inside 90 degree cone", core.NewVec3(3, 0, 0), true},
		{"outside 90 degree cone", core.NewVec3(8, 0, 0), false},
	}
	for _, tc := range cases {
		if got := cam.ContainsPoint(tc.p); got != tc.want {
			t.Errorf("%s: ContainsPoint(%v) = %v, want %v", tc.name, tc.p, got, tc.want)
		}
	}
}

func TestPerspectivePlugin(t *testing.T) {
	props := plugin.NewProperties("perspective").
		Set("origin", core.NewVec3(1, 2, 3)).
		Set("fov", 60.0)
	obj, err := plugin.Create("perspective", props)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cam, ok := obj.(*Perspective)
	if !ok {
		t.Fatalf("Create returned %T, want *Perspective", obj)
	}
	if cam.Origin() != core.NewVec3(1, 2, 3) {
		t.Errorf("origin = %v", cam.Origin())
	}
	if cam.FOV() != 60 {
		t.Errorf("fov = %v, want 60", cam.FOV())
	}
}

func TestPerspectiveFromPropsValidation(t *testing.T) {
	if _, err := NewPerspectiveFromProps(plugin.NewProperties("perspective").Set("fov", 240.0)); err == nil {
		t.Error("fov out of range should fail")
	}
	bad := plugin.NewProperties("perspective").Set("near_clip", 5.0).Set("far_clip", 1.0)
	if _, err := NewPerspectiveFromProps(bad); err == nil {
		t.Error("inverted clip range should fail")
	}
}
