// Package sensor provides ray-generating cameras.
package sensor

import (
	"fmt"
	"math"

	"github.com/lumen-render/lumen/pkg/core"
	"github.com/lumen-render/lumen/pkg/plugin"
)

func init() {
	plugin.Register("perspective", func(props plugin.Properties) (core.Object, error) {
		return NewPerspectiveFromProps(props)
	})
}

// Perspective is a pinhole camera with a symmetric viewing frustum
type Perspective struct {
	origin          core.Vec3
	forward         core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	fov             float64 // vertical field of view in degrees
	aspect          float64
	nearClip        float64
	farClip         float64
}

// NewPerspective creates a camera at origin looking at target.
// fov is the vertical field of view in degrees.
func NewPerspective(origin, target, up core.Vec3, fov, aspect, nearClip, farClip float64) *Perspective {
	theta := fov * math.Pi / 180
	halfHeight := math.Tan(theta / 2)
	halfWidth := aspect * halfHeight

	w := origin.Subtract(target).Normalize() // camera looks along -w
	u := up.Cross(w).Normalize()
	v := w.Cross(u)

	horizontal := u.Multiply(2 * halfWidth)
	vertical := v.Multiply(2 * halfHeight)
	lowerLeftCorner := origin.
		Subtract(u.Multiply(halfWidth)).
		Subtract(v.Multiply(halfHeight)).
		Subtract(w)

	return &Perspective{
		origin:          origin,
		forward:         w.Negate(),
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		fov:             fov,
		aspect:          aspect,
		nearClip:        nearClip,
		farClip:         farClip,
	}
}

// NewPerspectiveFromProps builds a camera from a configuration bundle
func NewPerspectiveFromProps(props plugin.Properties) (*Perspective, error) {
	fov := props.Float("fov", 45)
	if fov <= 0 || fov >= 180 {
		return nil, fmt.Errorf("sensor: fov %v out of range (0, 180)", fov)
	}
	nearClip := props.Float("near_clip", 1e-2)
	farClip := props.Float("far_clip", 1e4)
	if nearClip <= 0 || farClip <= nearClip {
		return nil, fmt.Errorf("sensor: invalid clip range [%v, %v]", nearClip, farClip)
	}
	origin := props.Vec3("origin", core.NewVec3(0, 0, 0))
	target := props.Vec3("target", core.NewVec3(0, 0, -1))
	up := props.Vec3("up", core.NewVec3(0, 1, 0))
	aspect := props.Float("aspect", 1)
	return NewPerspective(origin, target, up, fov, aspect, nearClip, farClip), nil
}

// SampleRay generates the ray through film coordinates (s, t) in [0,1]^2.
// The aperture sample is unused by a pinhole aperture. The returned weight
// is the importance carried by the ray.
func (c *Perspective) SampleRay(filmUV, aperture core.Vec2) (core.Ray, core.Vec3) {
	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(filmUV.X)).
		Add(c.vertical.Multiply(filmUV.Y)).
		Subtract(c.origin)

	// Clip distances are measured along the view axis, so rescale for
	// the unnormalized direction.
	invZ := 1 / direction.Dot(c.forward)
	ray := core.NewBoundedRay(c.origin, direction, c.nearClip*invZ, c.farClip*invZ)
	return ray, core.NewVec3(1, 1, 1)
}

// ContainsPoint reports whether a world point lies inside the viewing
// frustum, clip planes included.
func (c *Perspective) ContainsPoint(p core.Vec3) bool {
	local := p.Subtract(c.origin)
	z := local.Dot(c.forward)
	if z < c.nearClip || z > c.farClip {
		return false
	}
	halfHeight := math.Tan(c.fov * math.Pi / 360)
	halfWidth := c.aspect * halfHeight
	x := local.Dot(c.horizontal.Normalize())
	y := local.Dot(c.vertical.Normalize())
	return math.Abs(x) <= halfWidth*z && math.Abs(y) <= halfHeight*z
}

// Origin returns the camera position
func (c *Perspective) Origin() core.Vec3 { return c.origin }

// Forward returns the unit view direction
func (c *Perspective) Forward() core.Vec3 { return c.forward }

// FOV returns the vertical field of view in degrees
func (c *Perspective) FOV() float64 { return c.fov }

// ClipRange returns the near and far clip distances
func (c *Perspective) ClipRange() (near, far float64) { return c.nearClip, c.farClip }

func (c *Perspective) String() string {
	return fmt.Sprintf("Perspective(origin=%v, fov=%.1f, clip=[%g, %g])",
		c.origin, c.fov, c.nearClip, c.farClip)
}
