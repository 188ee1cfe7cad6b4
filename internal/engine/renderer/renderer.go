// Package renderer drives the shadow subsystem for a frame: it decides which
// lights and meshes each camera sees, renders the shadows they need and
// collects the uniforms the colour pass samples them with.
package renderer

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shadow/internal/engine/camera"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/mesh"
	"github.com/Faultbox/midgard-shadow/internal/engine/shadow"
	"github.com/Faultbox/midgard-shadow/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	// Atlas packs visible spot and omni shadows into one shared texture.
	Atlas           bool
	AtlasResolution int
	AtlasEdgePixels int
	AtlasFilter     shadow.FilterType
}

// DefaultConfig returns the renderer defaults: atlas off.
func DefaultConfig() Config {
	return Config{
		AtlasResolution: 4096,
		AtlasEdgePixels: 3,
		AtlasFilter:     shadow.FilterPCF3F32,
	}
}

// CameraShadows lists the shadows one camera samples.
type CameraShadows struct {
	Camera   *camera.Camera
	Lights   []*shadow.Light
	Uniforms []shadow.Uniforms
}

// Frame summarizes one RenderFrame call.
type Frame struct {
	Cameras []CameraShadows
	Stats   shadow.Stats
	// States holds the last state each light reached this frame.
	States map[*shadow.Light]shadow.State
}

// Renderer owns the shadow pool, atlas, culler and shadow renderer.
// A Renderer is not safe for concurrent use.
type Renderer struct {
	dev     gpu.Device
	config  Config
	pool    *shadow.Pool
	atlas   *shadow.Atlas
	culler  *shadow.Culler
	shadows *shadow.Renderer
	depth   *DepthShaderLibrary
	log     *zap.Logger

	// owned tracks per-light buffers so they are released once no light
	// references them.
	owned map[*shadow.Buffer]struct{}
	// sunMaps holds a directional light's buffer for each camera it renders
	// cascades for.
	sunMaps map[*shadow.Light]map[*camera.Camera]*shadow.Buffer
	// cameras are the cameras passed to the previous RenderFrame.
	cameras map[*camera.Camera]struct{}

	spots, omnis, suns []*shadow.Light
}

// New creates a renderer on the device.
func New(dev gpu.Device, cfg Config) *Renderer {
	r := &Renderer{
		dev:     dev,
		config:  cfg,
		pool:    shadow.NewPool(dev),
		depth:   NewDepthShaderLibrary(dev),
		owned:   make(map[*shadow.Buffer]struct{}),
		sunMaps: make(map[*shadow.Light]map[*camera.Camera]*shadow.Buffer),
		log:     logger.Named("renderer"),
	}
	if cfg.Atlas {
		r.atlas = shadow.NewAtlas(dev, cfg.AtlasResolution, cfg.AtlasEdgePixels, cfg.AtlasFilter)
	}
	r.culler = shadow.NewCuller(dev, r.atlas)
	r.shadows = shadow.NewRenderer(dev, r.pool, r.depth)

	r.log.Info("renderer created",
		zap.Bool("atlas", cfg.Atlas),
		zap.Int("atlas_resolution", cfg.AtlasResolution),
	)
	return r
}

// Atlas returns the shared atlas, or nil when atlas mode is off.
func (r *Renderer) Atlas() *shadow.Atlas { return r.atlas }

// Pool returns the scratch buffer pool.
func (r *Renderer) Pool() *shadow.Pool { return r.pool }

// DepthShaders returns the depth shader variants compiled so far.
func (r *Renderer) DepthShaders() *DepthShaderLibrary { return r.depth }

// NewBaker returns a baker sharing the renderer's pool and shaders. Bakes
// never use the atlas.
func (r *Renderer) NewBaker() *shadow.Baker {
	return shadow.NewBaker(r.pool, shadow.NewCuller(r.dev, nil), r.shadows)
}

// RenderFrame renders the shadows the cameras need and returns the uniforms
// each camera samples them with.
func (r *Renderer) RenderFrame(cameras []*camera.Camera, lights []*shadow.Light, instances []*mesh.Instance) Frame {
	r.shadows.ResetStats()

	r.updateVisibility(cameras, lights, instances)
	r.partition(lights)
	r.forgetCameras(cameras)

	if r.atlas != nil {
		r.atlas.Update(r.spots, r.omnis)
	}

	for _, list := range [][]*shadow.Light{r.spots, r.omnis} {
		for _, l := range list {
			if !shadow.NeedsRendering(l) {
				continue
			}
			r.culler.Cull(l, instances, nil)
			r.shadows.Render(l, nil)
		}
	}
	for _, l := range r.suns {
		r.renderDirectional(l, cameras, instances)
	}

	r.releaseBuffers(lights)

	frame := Frame{
		Cameras: make([]CameraShadows, 0, len(cameras)),
		States:  make(map[*shadow.Light]shadow.State, len(lights)),
	}
	for _, cam := range cameras {
		frame.Cameras = append(frame.Cameras, r.dispatch(cam, lights))
	}
	for _, l := range r.suns {
		l.ShadowMap = r.primaryMap(l, cameras)
	}
	for _, l := range lights {
		frame.States[l] = l.FinishFrame()
	}
	frame.Stats = r.shadows.Stats()

	r.log.Debug("frame rendered",
		zap.Int("lights", frame.Stats.Lights),
		zap.Int("faces", frame.Stats.Faces),
		zap.Int("casters", frame.Stats.Casters),
		zap.Int("blur_passes", frame.Stats.BlurPasses),
	)
	return frame
}

func (r *Renderer) partition(lights []*shadow.Light) {
	r.spots, r.omnis, r.suns = r.spots[:0], r.omnis[:0], r.suns[:0]
	for _, l := range lights {
		switch l.Kind {
		case shadow.KindSpot:
			r.spots = append(r.spots, l)
		case shadow.KindOmni:
			r.omnis = append(r.omnis, l)
		case shadow.KindDirectional:
			r.suns = append(r.suns, l)
		}
	}
}

// renderDirectional fits and renders cascades for every camera that sees the
// light, each into that camera's own buffer. A ThisFrame light renders for all
// of them before switching to Never.
func (r *Renderer) renderDirectional(l *shadow.Light, cameras []*camera.Camera, instances []*mesh.Instance) {
	if !shadow.NeedsRendering(l) {
		return
	}
	maps := r.sunMaps[l]
	if maps == nil {
		maps = make(map[*camera.Camera]*shadow.Buffer)
		r.sunMaps[l] = maps
	}
	mode := l.UpdateMode
	for _, cam := range cameras {
		if !lightVisible(l, cam) {
			continue
		}
		l.UpdateMode = mode
		l.ShadowMap = maps[cam]
		r.culler.Cull(l, instances, cam)
		maps[cam] = l.ShadowMap
		r.shadows.Render(l, cam)
	}
}

// primaryMap returns the buffer of the first camera the light has one for.
func (r *Renderer) primaryMap(l *shadow.Light, cameras []*camera.Camera) *shadow.Buffer {
	maps := r.sunMaps[l]
	for _, cam := range cameras {
		if buf := maps[cam]; buf != nil {
			return buf
		}
	}
	return nil
}

// forgetCameras drops the cascades and buffers kept for cameras missing from
// this frame.
func (r *Renderer) forgetCameras(cameras []*camera.Camera) {
	current := make(map[*camera.Camera]struct{}, len(cameras))
	for _, cam := range cameras {
		current[cam] = struct{}{}
	}
	for cam := range r.cameras {
		if _, ok := current[cam]; ok {
			continue
		}
		for _, l := range r.suns {
			l.ForgetCamera(cam)
		}
		for _, maps := range r.sunMaps {
			delete(maps, cam)
		}
		r.log.Debug("camera forgotten", zap.String("camera", cam.Name))
	}
	r.cameras = current
}

// releaseBuffers destroys the buffers of lights that stopped casting and any
// per-light buffer no light references any more.
func (r *Renderer) releaseBuffers(lights []*shadow.Light) {
	for l := range r.sunMaps {
		if !slices.Contains(r.suns, l) {
			delete(r.sunMaps, l)
		}
	}

	live := make(map[*shadow.Buffer]struct{}, len(lights))
	for _, l := range lights {
		if l.Kind == shadow.KindDirectional {
			r.keepSunMaps(l, live)
			continue
		}
		buf := l.ShadowMap
		if buf == nil || buf.SharedAcrossFaces {
			continue
		}
		if !l.Enabled || !l.CastShadows {
			r.log.Debug("shadow buffer released", zap.String("light", l.Name), zap.Stringer("buffer", buf.ID))
			buf.Destroy()
			l.ShadowMap = nil
			continue
		}
		live[buf] = struct{}{}
		r.owned[buf] = struct{}{}
	}
	for buf := range r.owned {
		if _, ok := live[buf]; !ok {
			buf.Destroy()
			delete(r.owned, buf)
		}
	}
}

func (r *Renderer) keepSunMaps(l *shadow.Light, live map[*shadow.Buffer]struct{}) {
	maps := r.sunMaps[l]
	if !l.Enabled || !l.CastShadows {
		for _, buf := range maps {
			r.log.Debug("shadow buffer released", zap.String("light", l.Name), zap.Stringer("buffer", buf.ID))
			buf.Destroy()
		}
		delete(r.sunMaps, l)
		l.ShadowMap = nil
		return
	}
	for _, buf := range maps {
		live[buf] = struct{}{}
		r.owned[buf] = struct{}{}
	}
}

func (r *Renderer) dispatch(cam *camera.Camera, lights []*shadow.Light) CameraShadows {
	cs := CameraShadows{Camera: cam}
	for _, l := range lights {
		if !lightVisible(l, cam) {
			continue
		}
		// Cascades exist only for cameras the light rendered for.
		if !l.HasCascades(cam) {
			continue
		}
		if l.Kind == shadow.KindDirectional {
			buf := r.sunMaps[l][cam]
			if buf == nil {
				continue
			}
			l.ShadowMap = buf
		}
		u, ok := shadow.Dispatch(l, cam)
		if !ok {
			continue
		}
		cs.Lights = append(cs.Lights, l)
		cs.Uniforms = append(cs.Uniforms, u)
	}
	return cs
}

// Close destroys every GPU resource the renderer owns and detaches the lights
// from their buffers.
func (r *Renderer) Close(lights []*shadow.Light) {
	r.log.Info("closing renderer")
	for _, l := range lights {
		if l.ShadowMap != nil {
			if !l.ShadowMap.SharedAcrossFaces {
				l.ShadowMap.Destroy()
			}
			l.ShadowMap = nil
		}
		l.AtlasViewportAllocated = false
		l.AtlasSlotIndex = -1
	}
	for buf := range r.owned {
		buf.Destroy()
		delete(r.owned, buf)
	}
	for l, maps := range r.sunMaps {
		for cam, buf := range maps {
			buf.Destroy()
			l.ForgetCamera(cam)
		}
		delete(r.sunMaps, l)
	}
	if r.atlas != nil {
		r.atlas.Destroy()
	}
	r.pool.Destroy()
	r.depth.Destroy()
}
