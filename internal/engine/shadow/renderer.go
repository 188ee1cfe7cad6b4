package shadow

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shadow/internal/engine/camera"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/mesh"
	"github.com/Faultbox/midgard-shadow/internal/logger"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

// DepthShaders looks up the depth-only shader variant for a caster. A nil
// shader skips the caster.
type DepthShaders interface {
	DepthShader(defs mesh.ShaderDefs, filter FilterType, kind LightKind) gpu.Shader
}

// Stats counts shadow work done since the last ResetStats.
type Stats struct {
	Lights     int
	Faces      int
	Casters    int
	BlurPasses int
}

// Renderer draws shadow casters into shadow buffers and blurs VSM buffers.
// A Renderer is not safe for concurrent use.
type Renderer struct {
	dev     gpu.Device
	pool    *Pool
	shaders DepthShaders
	blur    blurCache
	stats   Stats
	log     *zap.Logger

	uniforms []gpu.Uniform
}

// NewRenderer creates a shadow renderer. Blur scratch buffers are borrowed
// from pool.
func NewRenderer(dev gpu.Device, pool *Pool, shaders DepthShaders) *Renderer {
	return &Renderer{
		dev:     dev,
		pool:    pool,
		shaders: shaders,
		blur:    newBlurCache(),
		log:     logger.Named("shadow.render"),
	}
}

// Stats returns the counters accumulated since the last ResetStats.
func (r *Renderer) Stats() Stats { return r.stats }

// ResetStats zeroes the counters.
func (r *Renderer) ResetStats() { r.stats = Stats{} }

// NeedsRendering reports whether Render would draw the light.
func NeedsRendering(l *Light) bool {
	return l.Enabled && l.CastShadows && l.UpdateMode != UpdateNever && l.VisibleThisFrame
}

// DepthBias returns the polygon offset used for the light. Omni lights compare
// distances and use none; other lights scale their shadow bias so the
// offset does not depend on the buffer resolution.
func DepthBias(l *Light) float32 {
	if l.Kind == KindOmni {
		return 0
	}
	return -1000 * l.ShadowBias
}

// Render draws every face of the light. cam selects the cascades of a
// directional light and is ignored for local lights. The light must have
// been culled this frame.
func (r *Renderer) Render(l *Light, cam *camera.Camera) {
	if !NeedsRendering(l) {
		return
	}
	if l.UpdateMode == UpdateThisFrame {
		l.UpdateMode = UpdateNever
	}
	ensureShadowMap(r.dev, l)

	r.setupRenderState(l)
	for face := 0; face < l.NumFaces(); face++ {
		r.renderFace(l, l.RenderData(cam, face), face)
	}
	r.stats.Lights++
	l.AtlasSlotUpdated = false
	l.transition(StateRendered)

	r.renderVsm(l)
}

func (r *Renderer) setupRenderState(l *Light) {
	bias := DepthBias(l)
	r.dev.SetDepthBias(bias, bias)

	write := !l.ShadowMap.HardwareCompare
	r.dev.SetColorWrite(write, write, write, write)
	r.dev.SetDepthState(true, true)
	r.dev.SetCullMode(gpu.CullBack)
}

func (r *Renderer) renderFace(l *Light, rd *RenderData, face int) {
	buf := l.ShadowMap
	res := buf.Resolution

	r.dev.SetRenderTarget(buf.Target(face))
	r.dev.SetViewport(gpu.RectFromNormalized(rd.Viewport, res))
	r.dev.SetScissor(gpu.RectFromNormalized(rd.Scissor, res))
	r.dev.Clear(gpu.ClearOptions{
		Color:      [4]float32{1, 1, 1, 1},
		Depth:      1,
		ClearColor: !buf.HardwareCompare,
		ClearDepth: true,
	})

	sc := rd.Camera
	viewProj := sc.ProjectionMatrix().Mul(sc.ViewMatrix())
	vp := rd.Viewport
	rd.ShadowMatrix = math.Viewport(vp[0], vp[1], vp[2], vp[3]).Mul(viewProj)

	filter := buf.Filter
	for _, inst := range rd.VisibleCasters {
		defs := inst.DepthDefs()
		shader := r.shaders.DepthShader(defs, filter, l.Kind)
		if shader == nil {
			continue
		}
		r.uniforms = append(r.uniforms[:0],
			gpu.Uniform{Name: "uModel", Value: inst.World},
			gpu.Uniform{Name: "uViewProjection", Value: viewProj},
			gpu.Uniform{Name: "uLightPos", Value: l.Position},
			gpu.Uniform{Name: "uLightRange", Value: l.AttenuationEnd},
		)
		if defs&mesh.DefAlphaTest != 0 {
			r.uniforms = append(r.uniforms,
				gpu.Uniform{Name: "uAlphaMask", Value: inst.AlphaMask},
				gpu.Uniform{Name: "uAlphaCutoff", Value: inst.AlphaCutoff},
			)
		}
		r.dev.Draw(gpu.DrawCommand{
			Mesh:     inst.Mesh,
			Shader:   shader,
			Uniforms: r.uniforms,
		})
	}

	r.stats.Faces++
	r.stats.Casters += len(rd.VisibleCasters)
}

func (r *Renderer) renderVsm(l *Light) {
	if !l.ShadowMap.Filter.IsVSM() || l.BlurKernelSize() <= 1 {
		return
	}
	// Atlas tiles would bleed into their neighbours.
	if l.AtlasViewportAllocated {
		return
	}
	r.applyVsmBlur(l)
}

// applyVsmBlur runs a separable blur: horizontally from the shadow buffer
// into a pooled scratch buffer, then vertically back.
func (r *Renderer) applyVsmBlur(l *Light) {
	size := l.BlurKernelSize()
	shader := r.blur.shader(r.dev, l.VsmBlurMode, size, r.log)
	if shader == nil {
		return
	}

	scratch := r.pool.Get(l)
	defer r.pool.Add(l, scratch)

	src := l.ShadowMap
	res := src.Resolution
	texel := 1 / float32(res)

	r.dev.SetDepthBias(0, 0)
	r.dev.SetColorWrite(true, true, true, true)
	r.dev.SetDepthState(false, false)
	r.dev.SetCullMode(gpu.CullNone)

	full := gpu.Rect{W: res, H: res}
	// Skip the outermost texels; they hold the clear value the sampler clamps to.
	inner := gpu.Rect{X: 1, Y: 1, W: res - 2, H: res - 2}

	weights := r.blur.weights(size)
	pass := func(target gpu.RenderTarget, source gpu.Texture, offset math.Vec4) {
		r.dev.SetRenderTarget(target)
		r.dev.SetViewport(full)
		r.dev.SetScissor(inner)
		r.uniforms = append(r.uniforms[:0],
			gpu.Uniform{Name: "uSource", Value: source},
			gpu.Uniform{Name: "uPixelOffset", Value: offset},
		)
		if l.VsmBlurMode == BlurGaussian {
			r.uniforms = append(r.uniforms, gpu.Uniform{Name: "uWeights", Value: weights})
		}
		r.dev.DrawFullscreen(shader, r.uniforms)
		r.stats.BlurPasses++
	}

	pass(scratch.Target(0), src.Texture, math.Vec4{texel, 0, 0, 0})
	pass(src.Target(0), scratch.Texture, math.Vec4{0, texel, 0, 0})

	l.transition(StateBlurred)
}
