package shadow

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shadow/internal/engine/camera"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/mesh"
	"github.com/Faultbox/midgard-shadow/internal/logger"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

// cullStrategy sets up the shadow cameras of one light kind and culls casters
// for each face.
type cullStrategy func(c *Culler, l *Light, casters []*mesh.Instance, cam *camera.Camera)

var cullStrategies = [numLightKinds]cullStrategy{
	KindDirectional: cullDirectional,
	KindOmni:        cullLocal,
	KindSpot:        cullLocal,
}

// Culler places shadow cameras and collects the casters each face renders.
// A Culler is not safe for concurrent use; create one per render context.
type Culler struct {
	dev gpu.Device
	// atlas is nil when local lights use their own buffers.
	atlas *Atlas
	log   *zap.Logger

	corners [8]math.Vec3
}

// NewCuller creates a culler. atlas may be nil.
func NewCuller(dev gpu.Device, atlas *Atlas) *Culler {
	return &Culler{
		dev:   dev,
		atlas: atlas,
		log:   logger.Named("shadow.cull"),
	}
}

// Cull prepares every face of the light for rendering. Directional lights
// fit their cascades to cam; local lights ignore it.
func (c *Culler) Cull(l *Light, casters []*mesh.Instance, cam *camera.Camera) {
	if l.Kind < 0 || l.Kind >= numLightKinds {
		assertf(false, "shadow: light %q has unknown kind %d", l.Name, int(l.Kind))
		return
	}
	if l.Kind == KindDirectional && cam == nil {
		assertf(false, "shadow: directional light %q culled without a camera", l.Name)
		return
	}

	ensureShadowMap(c.dev, l)
	cullStrategies[l.Kind](c, l, casters, cam)
	l.transition(StateCulled)
}

// ensureShadowMap gives a light outside the atlas a buffer matching its
// current settings, replacing a stale one.
func ensureShadowMap(dev gpu.Device, l *Light) {
	if l.AtlasViewportAllocated {
		return
	}
	key := KeyFor(l)
	if l.ShadowMap != nil && l.ShadowMap.Matches(key) {
		return
	}
	if old := l.ShadowMap; old != nil && !old.SharedAcrossFaces {
		old.Destroy()
	}
	l.ShadowMap = NewBuffer(dev, l.Kind, key.Filter, key.Resolution)
}

// CullShadowCasters appends to out the shadow-casting instances matching
// mask that intersect the camera frustum, or all of them when an instance
// has culling disabled. The result is ordered for depth submission: skinned
// instances first, then by transparency hash. The order is stable.
func CullShadowCasters(instances []*mesh.Instance, mask uint32, cam *camera.Camera, out []*mesh.Instance) []*mesh.Instance {
	frustum := cam.Frustum()
	start := len(out)
	for _, inst := range instances {
		if !inst.CastShadow || inst.Mask&mask == 0 {
			continue
		}
		if inst.IsVisible(frustum) {
			out = append(out, inst)
		}
	}
	slices.SortStableFunc(out[start:], func(a, b *mesh.Instance) int {
		ka, kb := a.DepthSortKey(), b.DepthSortKey()
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
	return out
}
