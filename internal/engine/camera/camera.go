// Package camera provides the cameras used for viewing and for shadow passes.
package camera

import (
	gomath "math"

	"github.com/Faultbox/midgard-shadow/pkg/math"
)

// Projection selects the projection type.
type Projection int

const (
	Perspective Projection = iota
	Orthographic
)

// MaskAll matches every culling layer.
const MaskAll = 0xFFFFFFFF

// Camera is a positioned, oriented projection. It looks down local -Z with
// +Y up.
type Camera struct {
	Name string

	Position math.Vec3
	Rotation math.Quat

	Projection  Projection
	FOV         float32 // vertical field of view, degrees
	AspectRatio float32
	NearClip    float32
	FarClip     float32
	OrthoHeight float32 // half height of the orthographic volume

	// CullingMask is matched against mesh instance and light masks.
	CullingMask uint32

	frustum math.Frustum
}

// New creates a perspective camera with default settings.
func New(name string) *Camera {
	return &Camera{
		Name:        name,
		Rotation:    math.QuatIdentity(),
		Projection:  Perspective,
		FOV:         45,
		AspectRatio: 1,
		NearClip:    0.1,
		FarClip:     1000,
		OrthoHeight: 10,
		CullingMask: MaskAll,
	}
}

// WorldMatrix returns the camera-to-world transform.
func (c *Camera) WorldMatrix() math.Mat4 {
	return math.FromTR(c.Position, c.Rotation)
}

// ViewMatrix returns the world-to-camera transform.
func (c *Camera) ViewMatrix() math.Mat4 {
	return c.WorldMatrix().Inverse()
}

// ProjectionMatrix returns the projection for the current settings.
func (c *Camera) ProjectionMatrix() math.Mat4 {
	if c.Projection == Orthographic {
		h := c.OrthoHeight
		w := h * c.AspectRatio
		return math.Ortho(-w, w, -h, h, c.NearClip, c.FarClip)
	}
	return math.Perspective(math.DegToRad(c.FOV), c.AspectRatio, c.NearClip, c.FarClip)
}

// ViewProjection returns projection * view.
func (c *Camera) ViewProjection() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// UpdateFrustum recomputes the culling frustum. Call after moving the camera
// or changing projection parameters.
func (c *Camera) UpdateFrustum() {
	c.frustum = math.FrustumFromMatrix(c.ViewProjection())
}

// Frustum returns the frustum computed by the last UpdateFrustum.
func (c *Camera) Frustum() *math.Frustum {
	return &c.frustum
}

// Forward returns the world-space view direction.
func (c *Camera) Forward() math.Vec3 {
	return c.Rotation.Rotate(math.Vec3Forward)
}

// Right returns the world-space right axis.
func (c *Camera) Right() math.Vec3 {
	return c.Rotation.Rotate(math.Vec3Right)
}

// Up returns the world-space up axis.
func (c *Camera) Up() math.Vec3 {
	return c.Rotation.Rotate(math.Vec3Up)
}

// LookAt orients the camera towards target.
func (c *Camera) LookAt(target, up math.Vec3) {
	c.Rotation = math.QuatLookRotation(target.Sub(c.Position), up)
}

// TranslateLocal moves the camera along its own axes.
func (c *Camera) TranslateLocal(v math.Vec3) {
	c.Position = c.Position.Add(c.Rotation.Rotate(v))
}

// FrustumCorners returns the eight corners of the view volume slice between
// the near and far distances, in camera space. The first four lie on the
// near plane.
func (c *Camera) FrustumCorners(near, far float32) [8]math.Vec3 {
	var nearY, farY float32
	if c.Projection == Orthographic {
		nearY, farY = c.OrthoHeight, c.OrthoHeight
	} else {
		t := float32(gomath.Tan(float64(math.DegToRad(c.FOV) / 2)))
		nearY, farY = t*near, t*far
	}
	nearX, farX := nearY*c.AspectRatio, farY*c.AspectRatio

	return [8]math.Vec3{
		{X: nearX, Y: -nearY, Z: -near},
		{X: nearX, Y: nearY, Z: -near},
		{X: -nearX, Y: nearY, Z: -near},
		{X: -nearX, Y: -nearY, Z: -near},
		{X: farX, Y: -farY, Z: -far},
		{X: farX, Y: farY, Z: -far},
		{X: -farX, Y: farY, Z: -far},
		{X: -farX, Y: -farY, Z: -far},
	}
}
