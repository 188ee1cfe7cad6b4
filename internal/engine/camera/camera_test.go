package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/midgard-shadow/pkg/math"
)

func TestFrustumCornersPerspective(t *testing.T) {
	cam := New("view")
	cam.FOV = 90
	cam.AspectRatio = 2

	corners := cam.FrustumCorners(1, 10)

	// tan(45°) = 1, so half height equals distance.
	assert.InDelta(t, 1, corners[1].Y, 1e-5)
	assert.InDelta(t, 2, corners[1].X, 1e-5)
	assert.InDelta(t, -1, corners[1].Z, 1e-5)
	assert.InDelta(t, 10, corners[5].Y, 1e-4)
	assert.InDelta(t, 20, corners[5].X, 1e-4)
	assert.InDelta(t, -10, corners[5].Z, 1e-5)
}

func TestFrustumCornersOrthographic(t *testing.T) {
	cam := New("shadow")
	cam.Projection = Orthographic
	cam.OrthoHeight = 5

	corners := cam.FrustumCorners(0, 100)
	assert.Equal(t, corners[1].Y, corners[5].Y)
	assert.InDelta(t, 5, corners[5].X, 1e-5)
}

func TestLookAtAxes(t *testing.T) {
	cam := New("view")
	cam.Position = math.Vec3{X: 0, Y: 0, Z: 10}
	cam.LookAt(math.Vec3{}, math.Vec3Up)

	assert.True(t, cam.Forward().ApproxEqual(math.Vec3{Z: -1}, 1e-5), "forward %v", cam.Forward())
	assert.True(t, cam.Up().ApproxEqual(math.Vec3Up, 1e-5), "up %v", cam.Up())
	assert.True(t, cam.Right().ApproxEqual(math.Vec3Right, 1e-5), "right %v", cam.Right())

	p := cam.ViewMatrix().TransformPoint(math.Vec3{})
	assert.True(t, p.ApproxEqual(math.Vec3{Z: -10}, 1e-4), "origin in view space %v", p)
}

func TestUpdateFrustumCullsBehind(t *testing.T) {
	cam := New("view")
	cam.UpdateFrustum()

	ahead := math.AABB{Min: math.Vec3{X: -1, Y: -1, Z: -6}, Max: math.Vec3{X: 1, Y: 1, Z: -4}}
	behind := math.AABB{Min: math.Vec3{X: -1, Y: -1, Z: 4}, Max: math.Vec3{X: 1, Y: 1, Z: 6}}

	assert.True(t, cam.Frustum().IntersectsAABB(ahead))
	assert.False(t, cam.Frustum().IntersectsAABB(behind))
}

func TestOrbitApplyLooksAtCenter(t *testing.T) {
	orbit := NewOrbitCamera()
	orbit.Center = math.Vec3{X: 3, Y: 1, Z: -2}
	orbit.RotationY = 0.8

	cam := New("view")
	orbit.Apply(cam)

	dir := orbit.Center.Sub(cam.Position).Normalize()
	assert.True(t, cam.Forward().ApproxEqual(dir, 1e-4))
}

func TestOrbitZoomClamp(t *testing.T) {
	orbit := NewOrbitCamera()
	orbit.HandleZoom(100)
	assert.Equal(t, orbit.MinDistance, orbit.Distance)
}
