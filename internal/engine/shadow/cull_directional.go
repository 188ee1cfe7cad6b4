package shadow

import (
	gomath "math"

	"github.com/Faultbox/midgard-shadow/internal/engine/camera"
	"github.com/Faultbox/midgard-shadow/internal/engine/mesh"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

const (
	cascadeNear = 0.01
	// depthFitMargin pads the tightened depth range on each side.
	depthFitMargin = 0.1
)

// cascadeViewports are the shadow buffer regions per cascade count.
var cascadeViewports = [MaxCascades][]math.Vec4{
	{{0, 0, 1, 1}},
	{{0, 0, 0.5, 0.5}, {0, 0.5, 0.5, 0.5}},
	{{0, 0, 0.5, 0.5}, {0, 0.5, 0.5, 0.5}, {0.5, 0, 0.5, 0.5}},
	{{0, 0, 0.5, 0.5}, {0, 0.5, 0.5, 0.5}, {0.5, 0, 0.5, 0.5}, {0.5, 0.5, 0.5, 0.5}},
}

// CascadeViewport returns the buffer region of a cascade.
func CascadeViewport(cascades, index int) math.Vec4 {
	return cascadeViewports[cascades-1][index]
}

// SplitDistances returns the far distance of each cascade, blending linear
// and logarithmic spacing between near and far by distribution. Entries past
// the cascade count hold far.
func SplitDistances(near, far float32, cascades int, distribution float32) [MaxCascades]float32 {
	var d [MaxCascades]float32
	for i := range d {
		d[i] = far
	}
	if near <= 0 {
		near = 1e-3
	}
	for i := 1; i < cascades; i++ {
		frac := float32(i) / float32(cascades)
		linear := near + (far-near)*frac
		logDist := near * float32(gomath.Pow(float64(far/near), float64(frac)))
		d[i-1] = math.Lerp(linear, logDist, distribution)
	}
	return d
}

func cullDirectional(c *Culler, l *Light, casters []*mesh.Instance, cam *camera.Camera) {
	near := cam.NearClip
	far := min(cam.FarClip, l.ShadowDistance)
	cascades := l.cascadeCount()
	l.CascadeDistances = SplitDistances(near, far, cascades, l.CascadeDistribution)

	world := cam.WorldMatrix()
	rotation := l.Rotation.Mul(lightToCamera)
	extent, haveCasters := casterBounds(casters, l.Mask)

	for i := 0; i < cascades; i++ {
		rd := l.RenderData(cam, i)
		sc := rd.Camera
		sc.Projection = camera.Orthographic
		sc.AspectRatio = 1
		sc.Rotation = rotation
		rd.Viewport = cascadeViewports[cascades-1][i]
		rd.Scissor = rd.Viewport

		sliceNear := near
		if i > 0 {
			sliceNear = l.CascadeDistances[i-1]
		}
		center, radius := c.fitSlice(cam, world, sliceNear, l.CascadeDistances[i])

		// Snap to whole texels so the cascade does not shimmer as the
		// viewer moves.
		right, up, forward := sc.Right(), sc.Up(), sc.Forward()
		sizeRatio := 0.25 * float32(l.ShadowResolution) / radius
		x := float32(gomath.Ceil(float64(center.Dot(right)*sizeRatio))) / sizeRatio
		y := float32(gomath.Ceil(float64(center.Dot(up)*sizeRatio))) / sizeRatio
		snapped := right.Scale(x).Add(up.Scale(y)).Add(forward.Scale(center.Dot(forward)))

		// The provisional volume reaches back and forward to every caster
		// the light could see.
		back, ahead := radius, radius
		if haveCasters {
			for _, p := range extent.Corners() {
				d := p.Sub(snapped).Dot(forward)
				back = max(back, -d)
				ahead = max(ahead, d)
			}
		}
		back += depthFitMargin
		sc.Position = snapped.Sub(forward.Scale(back))
		sc.NearClip = cascadeNear
		sc.FarClip = back + ahead + depthFitMargin
		sc.OrthoHeight = radius
		sc.UpdateFrustum()

		rd.VisibleCasters = CullShadowCasters(casters, l.Mask, sc, rd.VisibleCasters[:0])
		if len(rd.VisibleCasters) == 0 {
			rd.DepthRange = [2]float32{}
			continue
		}

		// Tighten near and far around the casters actually visible.
		bounds := rd.VisibleCasters[0].Bounds
		for _, inst := range rd.VisibleCasters[1:] {
			bounds = bounds.Union(inst.Bounds)
		}
		minD, maxD := float32(gomath.MaxFloat32), float32(-gomath.MaxFloat32)
		for _, p := range bounds.Corners() {
			d := p.Sub(snapped).Dot(forward)
			minD = min(minD, d)
			maxD = max(maxD, d)
		}
		rd.DepthRange = [2]float32{minD, maxD}

		sc.Position = snapped.Add(forward.Scale(minD - depthFitMargin))
		sc.FarClip = maxD - minD + 2*depthFitMargin
		sc.UpdateFrustum()
	}
}

// casterBounds returns the union of the bounds of the shadow casters that
// match mask.
func casterBounds(casters []*mesh.Instance, mask uint32) (math.AABB, bool) {
	var bounds math.AABB
	found := false
	for _, inst := range casters {
		if !inst.CastShadow || inst.Mask&mask == 0 {
			continue
		}
		if !found {
			bounds, found = inst.Bounds, true
			continue
		}
		bounds = bounds.Union(inst.Bounds)
	}
	return bounds, found
}

// fitSlice returns the world-space bounding sphere of the view frustum slice
// between near and far.
func (c *Culler) fitSlice(cam *camera.Camera, world math.Mat4, near, far float32) (math.Vec3, float32) {
	c.corners = cam.FrustumCorners(near, far)

	var center math.Vec3
	for i := range c.corners {
		c.corners[i] = world.TransformPoint(c.corners[i])
		center = center.Add(c.corners[i])
	}
	center = center.Scale(1.0 / 8)

	var radius float32
	for _, p := range c.corners {
		radius = max(radius, p.Distance(center))
	}
	return center, radius
}
