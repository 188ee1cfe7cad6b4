package shadow

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shadow/internal/engine/camera"
	"github.com/Faultbox/midgard-shadow/internal/engine/mesh"
	"github.com/Faultbox/midgard-shadow/internal/logger"
)

// Baker renders light shadows one at a time for offline use such as
// lightmap baking, reusing pooled buffers between lights.
type Baker struct {
	pool     *Pool
	culler   *Culler
	renderer *Renderer
	log      *zap.Logger
}

// NewBaker creates a baker. The culler should have no atlas.
func NewBaker(pool *Pool, culler *Culler, renderer *Renderer) *Baker {
	return &Baker{
		pool:     pool,
		culler:   culler,
		renderer: renderer,
		log:      logger.Named("shadow.bake"),
	}
}

// Bake renders the shadow of each shadow-casting light and calls fn while the
// light holds its buffer. The buffer goes back to the pool afterwards and the
// light's previous ShadowMap, atlas placement and render data are restored.
// Directional lights fit their cascades to cam and are skipped when cam is nil. Bake returns the number of lights baked.
func (b *Baker) Bake(lights []*Light, casters []*mesh.Instance, cam *camera.Camera, fn func(*Light)) int {
	baked := 0
	for _, l := range lights {
		if !l.Enabled || !l.CastShadows {
			continue
		}
		if l.Kind == KindDirectional && cam == nil {
			b.log.Warn("directional light skipped without camera", zap.String("light", l.Name))
			continue
		}
		b.bakeLight(l, casters, cam, fn)
		baked++
	}
	return baked
}

func (b *Baker) bakeLight(l *Light, casters []*mesh.Instance, cam *camera.Camera, fn func(*Light)) {
	mode, visible := l.UpdateMode, l.VisibleThisFrame
	prev, allocated := l.ShadowMap, l.AtlasViewportAllocated
	distances := l.CascadeDistances
	fitted := l.HasCascades(cam)
	var saved []faceState
	if fitted {
		saved = saveFaces(l, cam)
	}

	l.UpdateMode = UpdateThisFrame
	l.VisibleThisFrame = true
	l.AtlasViewportAllocated = false

	buf := b.pool.Get(l)
	l.ShadowMap = buf
	defer func() {
		b.pool.Add(l, buf)
		l.ShadowMap, l.AtlasViewportAllocated = prev, allocated
		l.UpdateMode, l.VisibleThisFrame = mode, visible
		l.CascadeDistances = distances
		if fitted {
			restoreFaces(l, cam, saved)
		} else {
			l.ForgetCamera(cam)
		}
		l.FinishFrame()
	}()

	b.culler.Cull(l, casters, cam)
	b.renderer.Render(l, cam)
	if fn != nil {
		fn(l)
	}
}

// faceState is a copy of one face's render data and shadow camera.
type faceState struct {
	data   RenderData
	camera camera.Camera
}

func saveFaces(l *Light, cam *camera.Camera) []faceState {
	saved := make([]faceState, l.NumFaces())
	for face := range saved {
		rd := l.RenderData(cam, face)
		saved[face] = faceState{data: *rd, camera: *rd.Camera}
		saved[face].data.VisibleCasters = slices.Clone(rd.VisibleCasters)
	}
	return saved
}

func restoreFaces(l *Light, cam *camera.Camera, saved []faceState) {
	for face, s := range saved {
		rd := l.RenderData(cam, face)
		*rd = s.data
		*rd.Camera = s.camera
	}
}

// Release destroys the pooled buffers. Call between bake batches.
func (b *Baker) Release() {
	b.pool.Clear()
}
