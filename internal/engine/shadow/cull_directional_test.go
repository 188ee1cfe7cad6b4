package shadow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-shadow/internal/engine/camera"
	"github.com/Faultbox/midgard-shadow/internal/engine/mesh"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

func TestSplitDistances(t *testing.T) {
	d := SplitDistances(1, 100, 4, 0.5)

	prev := float32(1)
	for i := 0; i < 4; i++ {
		assert.Greater(t, d[i], prev, "cascade %d", i)
		assert.GreaterOrEqual(t, d[i], float32(1))
		assert.LessOrEqual(t, d[i], float32(100))
		prev = d[i]
	}
	assert.Equal(t, float32(100), d[3])
}

func TestSplitDistancesDistributionExtremes(t *testing.T) {
	linear := SplitDistances(1, 101, 2, 0)
	assert.InDelta(t, 51, linear[0], 1e-4)

	logarithmic := SplitDistances(1, 100, 2, 1)
	assert.InDelta(t, 10, logarithmic[0], 1e-4)
}

func TestCascadeViewports(t *testing.T) {
	assert.Equal(t, math.Vec4{0, 0, 1, 1}, CascadeViewport(1, 0))
	assert.Equal(t, math.Vec4{0, 0.5, 0.5, 0.5}, CascadeViewport(2, 1))
	assert.Equal(t, math.Vec4{0.5, 0, 0.5, 0.5}, CascadeViewport(3, 2))
	assert.Equal(t, math.Vec4{0.5, 0.5, 0.5, 0.5}, CascadeViewport(4, 3))
}

func viewerCamera() *camera.Camera {
	cam := camera.New("viewer")
	cam.Position = math.Vec3{Y: 10, Z: 20}
	cam.NearClip = 0.1
	cam.FarClip = 100
	cam.LookAt(math.Vec3{}, math.Vec3Up)
	cam.UpdateFrustum()
	return cam
}

func sunLight() *Light {
	l := NewDirectional("sun")
	l.VisibleThisFrame = true
	l.ShadowDistance = 40
	return l
}

func TestDirectionalCascadeTightensDepth(t *testing.T) {
	r := newRig()
	cam := viewerCamera()
	l := sunLight()

	casters := []*mesh.Instance{
		box("tower", math.Vec3{Y: 3}, 1),
		box("ground", math.Vec3{Y: -0.5}, 0.5),
	}
	r.culler.Cull(l, casters, cam)

	rd := l.RenderData(cam, 0)
	sc := rd.Camera
	require.Len(t, rd.VisibleCasters, 2)

	assert.Equal(t, camera.Orthographic, sc.Projection)
	assert.True(t, sc.Forward().ApproxEqual(math.Vec3{Y: -1}, 1e-5), "forward %v", sc.Forward())

	// Casters span y in [-1, 4]; the light looks straight down.
	assert.InDelta(t, 5+2*depthFitMargin, sc.FarClip, 1e-3)
	assert.InDelta(t, 4+depthFitMargin, sc.Position.Y, 1e-3)
	assert.InDelta(t, 5, rd.DepthRange[1]-rd.DepthRange[0], 1e-3)

	for _, inst := range casters {
		for _, p := range inst.Bounds.Corners() {
			d := p.Sub(sc.Position).Dot(sc.Forward())
			assert.Greater(t, d, sc.NearClip)
			assert.Less(t, d, sc.FarClip)
		}
	}
}

func TestDirectionalCascadeWithoutCasters(t *testing.T) {
	r := newRig()
	cam := viewerCamera()
	l := sunLight()

	r.culler.Cull(l, nil, cam)

	rd := l.RenderData(cam, 0)
	assert.Empty(t, rd.VisibleCasters)
	sc := rd.Camera
	assert.InDelta(t, 2*sc.OrthoHeight+2*depthFitMargin, sc.FarClip, 1e-3)
}

func TestDirectionalCascadeKeepsCastersOnTheEdge(t *testing.T) {
	r := newRig()
	cam := viewerCamera()
	l := sunLight()

	r.culler.Cull(l, nil, cam)
	sc := l.RenderData(cam, 0).Camera
	h := sc.OrthoHeight
	right, forward := sc.Right(), sc.Forward()
	center := sc.Position.Add(forward.Scale(h))

	// Each box reaches 5mm inside one side of the cascade.
	const half, inset = 0.001, 0.005
	edge := h - inset + half
	casters := []*mesh.Instance{
		box("right", center.Add(right.Scale(edge)), half),
		box("left", center.Sub(right.Scale(edge)), half),
		box("far", center.Add(forward.Scale(40)), half),
	}
	r.culler.Cull(l, casters, cam)

	rd := l.RenderData(cam, 0)
	require.InDelta(t, h, rd.Camera.OrthoHeight, 1e-6)
	assert.Len(t, rd.VisibleCasters, 3)
}

func TestDirectionalCascadesPerCamera(t *testing.T) {
	r := newRig()
	l := sunLight()
	l.NumCascades = 4

	a := viewerCamera()
	b := viewerCamera()
	b.Position = math.Vec3{X: 30, Y: 10}
	b.LookAt(math.Vec3{X: 30, Z: -10}, math.Vec3Up)

	r.culler.Cull(l, nil, a)
	r.culler.Cull(l, nil, b)

	assert.NotSame(t, l.RenderData(a, 0), l.RenderData(b, 0))
	assert.NotEqual(t, l.RenderData(a, 0).Camera.Position, l.RenderData(b, 0).Camera.Position)
	for i := 0; i < 4; i++ {
		assert.Equal(t, CascadeViewport(4, i), l.RenderData(a, i).Viewport)
	}

	// Near cascades are smaller than far ones.
	assert.Less(t, l.RenderData(a, 0).Camera.OrthoHeight, l.RenderData(a, 3).Camera.OrthoHeight)
}

func TestDirectionalShadowDistanceLimitsCascades(t *testing.T) {
	r := newRig()
	cam := viewerCamera()
	l := sunLight()
	l.NumCascades = 2
	l.ShadowDistance = 500

	r.culler.Cull(l, nil, cam)
	assert.Equal(t, cam.FarClip, l.CascadeDistances[1], "camera far clip wins")

	l.ShadowDistance = 30
	r.culler.Cull(l, nil, cam)
	assert.Equal(t, float32(30), l.CascadeDistances[1])
}

func TestDirectionalSnapIsStableUnderSubTexelMotion(t *testing.T) {
	r := newRig()
	l := sunLight()
	l.ShadowResolution = 2048

	cam := viewerCamera()
	// Keep the cascade center away from a snap boundary.
	cam.Position.X = 0.3
	cam.LookAt(math.Vec3{X: 0.3}, math.Vec3Up)
	r.culler.Cull(l, nil, cam)
	before := l.RenderData(cam, 0).Camera.Position

	// Move far less than one snap step along the light's right axis.
	cam.Position = cam.Position.Add(math.Vec3{X: 1e-4})
	r.culler.Cull(l, nil, cam)
	after := l.RenderData(cam, 0).Camera.Position

	assert.InDelta(t, before.X, after.X, 1e-6)
}
