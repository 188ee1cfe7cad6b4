package shadow

import (
	gomath "math"

	"github.com/Faultbox/midgard-shadow/internal/engine/camera"
	"github.com/Faultbox/midgard-shadow/internal/engine/mesh"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

// lightToCamera turns a light's -Y forward into a camera's -Z forward.
var lightToCamera = math.QuatFromAxisAngle(math.Vec3Right, -gomath.Pi/2)

// cubeFaceRotations orient the six omni shadow cameras in GL cubemap face
// order: +X, -X, +Y, -Y, +Z, -Z.
var cubeFaceRotations = [6]math.Quat{
	math.QuatLookRotation(math.Vec3{X: 1}, math.Vec3{Y: -1}),
	math.QuatLookRotation(math.Vec3{X: -1}, math.Vec3{Y: -1}),
	math.QuatLookRotation(math.Vec3{Y: 1}, math.Vec3{Z: 1}),
	math.QuatLookRotation(math.Vec3{Y: -1}, math.Vec3{Z: -1}),
	math.QuatLookRotation(math.Vec3{Z: 1}, math.Vec3{Y: -1}),
	math.QuatLookRotation(math.Vec3{Z: -1}, math.Vec3{Y: -1}),
}

func cullLocal(c *Culler, l *Light, casters []*mesh.Instance, _ *camera.Camera) {
	for face := 0; face < l.NumFaces(); face++ {
		rd := l.RenderData(nil, face)
		sc := rd.Camera

		sc.Projection = camera.Perspective
		sc.AspectRatio = 1
		sc.NearClip = l.AttenuationEnd / 1000
		sc.FarClip = l.AttenuationEnd
		sc.Position = l.Position

		if l.Kind == KindSpot {
			sc.Rotation = l.Rotation.Mul(lightToCamera)
			sc.FOV = l.OuterConeAngle * 2
		} else {
			sc.Rotation = cubeFaceRotations[face]
			sc.FOV = c.omniFOV(l, rd)
		}

		if !l.AtlasViewportAllocated {
			rd.Viewport = math.Vec4{0, 0, 1, 1}
			rd.Scissor = rd.Viewport
		}

		sc.UpdateFrustum()
		rd.VisibleCasters = CullShadowCasters(casters, l.Mask, sc, rd.VisibleCasters[:0])
	}
}

// omniFOV returns 90 degrees, widened inside the atlas by the filter edge so
// samples near a face border stay within the face's tile.
func (c *Culler) omniFOV(l *Light, rd *RenderData) float32 {
	if !l.AtlasViewportAllocated || c.atlas == nil {
		return 90
	}
	tileSize := float32(c.atlas.Resolution) * rd.Viewport[2]
	texelSize := 2 / tileSize
	filterSize := texelSize * float32(c.atlas.EdgePixels)
	return math.RadToDeg(float32(gomath.Atan(float64(1+filterSize)))) * 2
}
