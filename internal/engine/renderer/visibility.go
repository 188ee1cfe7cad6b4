package renderer

import (
	"github.com/Faultbox/midgard-shadow/internal/engine/camera"
	"github.com/Faultbox/midgard-shadow/internal/engine/mesh"
	"github.com/Faultbox/midgard-shadow/internal/engine/shadow"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

// updateVisibility refreshes camera frustums and marks the lights and
// instances at least one camera sees.
func (r *Renderer) updateVisibility(cameras []*camera.Camera, lights []*shadow.Light, instances []*mesh.Instance) {
	for _, cam := range cameras {
		cam.UpdateFrustum()
	}

	for _, l := range lights {
		l.VisibleThisFrame = false
		if !l.Enabled {
			continue
		}
		for _, cam := range cameras {
			if lightVisible(l, cam) {
				l.VisibleThisFrame = true
				break
			}
		}
	}

	for _, inst := range instances {
		inst.VisibleThisFrame = false
		for _, cam := range cameras {
			if inst.Mask&cam.CullingMask != 0 && inst.IsVisible(cam.Frustum()) {
				inst.VisibleThisFrame = true
				break
			}
		}
	}
}

// lightVisible reports whether cam sees the light. Directional lights are
// visible to every camera sharing their mask; local lights test their range
// sphere against the frustum.
func lightVisible(l *shadow.Light, cam *camera.Camera) bool {
	if !l.Enabled || l.Mask&cam.CullingMask == 0 {
		return false
	}
	if l.Kind == shadow.KindDirectional {
		return true
	}
	return cam.Frustum().IntersectsSphere(math.BoundingSphere{
		Center: l.Position,
		Radius: l.AttenuationEnd,
	})
}
