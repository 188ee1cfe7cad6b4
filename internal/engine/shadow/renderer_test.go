package shadow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu/gputest"
	"github.com/Faultbox/midgard-shadow/internal/engine/mesh"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

func crateBelow() []*mesh.Instance {
	return []*mesh.Instance{box("crate", math.Vec3{Y: -3}, 1)}
}

func TestRenderGuard(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(l *Light)
	}{
		{"update never", func(l *Light) { l.UpdateMode = UpdateNever }},
		{"not visible", func(l *Light) { l.VisibleThisFrame = false }},
		{"disabled", func(l *Light) { l.Enabled = false }},
		{"no shadows", func(l *Light) { l.CastShadows = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig()
			l := visibleSpot("spot", math.Vec3{})
			r.culler.Cull(l, crateBelow(), nil)
			tt.mutate(l)

			r.renderer.Render(l, nil)

			assert.Empty(t, r.dev.Draws)
			assert.Equal(t, StateCulled, l.State())
		})
	}
}

func TestRenderThisFrameResetsToNever(t *testing.T) {
	r := newRig()
	l := visibleSpot("spot", math.Vec3{})
	l.UpdateMode = UpdateThisFrame

	r.culler.Cull(l, crateBelow(), nil)
	r.renderer.Render(l, nil)

	assert.Len(t, r.dev.Draws, 1)
	assert.Equal(t, UpdateNever, l.UpdateMode)
	assert.Equal(t, StateRendered, l.FinishFrame())
	assert.Equal(t, StateIdle, l.State())
}

func TestRenderLazilyAllocatesBuffer(t *testing.T) {
	r := newRig()
	l := visibleSpot("spot", math.Vec3{})
	r.culler.Cull(l, crateBelow(), nil)
	l.ShadowMap = nil

	r.renderer.Render(l, nil)

	require.NotNil(t, l.ShadowMap)
	assert.Len(t, r.dev.Draws, 1)
}

func TestDepthBias(t *testing.T) {
	for _, res := range []int{256, 1024, 4096} {
		r := newRig()
		spot := visibleSpot("spot", math.Vec3{})
		spot.ShadowBias = 0.05
		spot.ShadowResolution = res
		omni := visibleOmni("omni", math.Vec3{Y: -6})
		omni.ShadowBias = 0.05
		omni.ShadowResolution = res

		casters := crateBelow()
		r.culler.Cull(spot, casters, nil)
		r.renderer.Render(spot, nil)
		r.culler.Cull(omni, casters, nil)
		r.renderer.Render(omni, nil)

		require.GreaterOrEqual(t, len(r.dev.Draws), 2)
		for _, d := range r.dev.Draws {
			tex := d.Target.Texture().Desc()
			if tex.Kind == gpu.TextureCube {
				assert.Zero(t, d.BiasSlope, "res %d", res)
				assert.Zero(t, d.BiasConst, "res %d", res)
			} else {
				assert.InDelta(t, -50, d.BiasSlope, 1e-4, "res %d", res)
				assert.InDelta(t, -50, d.BiasConst, 1e-4, "res %d", res)
			}
		}
	}
	assert.Zero(t, DepthBias(NewOmni("o")))
}

func TestColorWrite(t *testing.T) {
	r := newRig()
	pcf := visibleSpot("pcf", math.Vec3{})
	vsm := visibleSpot("vsm", math.Vec3{})
	vsm.Filter = FilterVSM16F
	vsm.VsmBlurSize = 1

	r.culler.Cull(pcf, crateBelow(), nil)
	r.renderer.Render(pcf, nil)
	r.culler.Cull(vsm, crateBelow(), nil)
	r.renderer.Render(vsm, nil)

	require.Len(t, r.dev.Draws, 2)
	assert.False(t, r.dev.Draws[0].ColorWrite, "hardware compare writes depth only")
	assert.True(t, r.dev.Draws[1].ColorWrite)
}

func TestOmniRendersSixFaces(t *testing.T) {
	r := newRig()
	l := visibleOmni("omni", math.Vec3{})
	l.Filter = FilterVSM32F // coerced to PCF for cubemaps
	l.AttenuationEnd = 20
	casters := []*mesh.Instance{
		box("east", math.Vec3{X: 5}, 1), box("west", math.Vec3{X: -5}, 1),
		box("up", math.Vec3{Y: 5}, 1), box("down", math.Vec3{Y: -5}, 1),
		box("south", math.Vec3{Z: 5}, 1), box("north", math.Vec3{Z: -5}, 1),
	}

	r.culler.Cull(l, casters, nil)
	r.renderer.Render(l, nil)

	require.Len(t, r.dev.Draws, 6)
	targets := map[*gputest.Target]bool{}
	for face, d := range r.dev.Draws {
		assert.Equal(t, face, d.Target.Face())
		targets[d.Target] = true
	}
	assert.Len(t, targets, 6)
	assert.Empty(t, r.dev.FullscreenDraws(), "cubemaps are never blurred")
	assert.Equal(t, 6, r.renderer.Stats().Faces)
}

func TestShadowMatrixMapsIntoViewport(t *testing.T) {
	r := newRig()
	cam := viewerCamera()
	l := sunLight()
	l.NumCascades = 4
	ground := []*mesh.Instance{box("ground", math.Vec3{Y: -50}, 50)}

	r.culler.Cull(l, ground, cam)
	r.renderer.Render(l, cam)
	require.Len(t, r.dev.Draws, 4)

	for i := 0; i < 4; i++ {
		rd := l.RenderData(cam, i)
		sc := rd.Camera
		vp := rd.Viewport

		// A point on the cascade camera's axis lands in the middle of its
		// viewport.
		p := sc.Position.Add(sc.Forward().Scale(sc.NearClip + 1))
		s := rd.ShadowMatrix.MulVec4(math.Vec4{p.X, p.Y, p.Z, 1})
		assert.InDelta(t, vp[0]+vp[2]/2, s[0]/s[3], 1e-3, "cascade %d", i)
		assert.InDelta(t, vp[1]+vp[3]/2, s[1]/s[3], 1e-3, "cascade %d", i)
	}

	// Cascade draws use pixel viewports matching the normalized ones.
	res := l.ShadowMap.Resolution
	for _, d := range r.dev.Draws {
		assert.Equal(t, res/2, d.Viewport.W)
	}
}

func vsmSpot() *Light {
	l := visibleSpot("vsm", math.Vec3{})
	l.Filter = FilterVSM16F
	l.VsmBlurSize = 11
	l.VsmBlurMode = BlurGaussian
	l.ShadowResolution = 512
	return l
}

func TestVsmBlurSkippedForSmallKernel(t *testing.T) {
	for _, size := range []int{0, 1} {
		r := newRig()
		l := vsmSpot()
		l.VsmBlurSize = size

		r.culler.Cull(l, crateBelow(), nil)
		r.renderer.Render(l, nil)

		assert.Empty(t, r.dev.FullscreenDraws(), "size %d", size)
		assert.Empty(t, r.dev.Shaders)
		assert.Equal(t, 0, r.pool.Len()+r.pool.Borrowed(), "no scratch borrowed")
		assert.Equal(t, StateRendered, l.State())
	}
}

func TestVsmBlurPasses(t *testing.T) {
	r := newRig()
	l := vsmSpot()

	r.culler.Cull(l, crateBelow(), nil)
	r.renderer.Render(l, nil)

	blur := r.dev.FullscreenDraws()
	require.Len(t, blur, 2)
	assert.Equal(t, StateBlurred, l.State())

	horizontal, vertical := blur[0], blur[1]
	assert.NotSame(t, l.ShadowMap.Target(0), horizontal.Target, "first pass renders into scratch")
	assert.Same(t, l.ShadowMap.Texture, horizontal.Uniform("uSource"))
	assert.Same(t, l.ShadowMap.Target(0), vertical.Target, "second pass renders back")

	texel := float32(1) / 512
	assert.Equal(t, math.Vec4{texel, 0, 0, 0}, horizontal.Uniform("uPixelOffset"))
	assert.Equal(t, math.Vec4{0, texel, 0, 0}, vertical.Uniform("uPixelOffset"))
	assert.Len(t, horizontal.Uniform("uWeights"), 11)
	assert.Equal(t, gpu.Rect{X: 1, Y: 1, W: 510, H: 510}, horizontal.Scissor)

	assert.Equal(t, 0, r.pool.Borrowed(), "scratch returned")
	assert.Equal(t, 1, r.pool.Len())
	assert.Equal(t, 2, r.renderer.Stats().BlurPasses)

	// The next frame reuses the scratch buffer and the compiled shader.
	textures, shaders := len(r.dev.Textures), len(r.dev.Shaders)
	l.FinishFrame()
	r.culler.Cull(l, crateBelow(), nil)
	r.renderer.Render(l, nil)
	assert.Len(t, r.dev.Textures, textures)
	assert.Len(t, r.dev.Shaders, shaders)
}

func TestVsmBoxBlurHasNoWeights(t *testing.T) {
	r := newRig()
	l := vsmSpot()
	l.VsmBlurMode = BlurBox

	r.culler.Cull(l, crateBelow(), nil)
	r.renderer.Render(l, nil)

	blur := r.dev.FullscreenDraws()
	require.Len(t, blur, 2)
	assert.Nil(t, blur[0].Uniform("uWeights"))
	assert.NotContains(t, r.dev.Shaders[0].Frag, "#define GAUSS")
}

func TestVsmBlurKernelSize(t *testing.T) {
	tests := []struct {
		size int
		want string
	}{
		{4, "#define SAMPLES 5\n"},
		{7, "#define SAMPLES 7\n"},
		{40, "#define SAMPLES 25\n"},
	}
	for _, tt := range tests {
		r := newRig()
		l := vsmSpot()
		l.VsmBlurSize = tt.size

		r.culler.Cull(l, crateBelow(), nil)
		r.renderer.Render(l, nil)

		require.Len(t, r.dev.Shaders, 1)
		assert.Contains(t, r.dev.Shaders[0].Frag, tt.want)
	}
}

func TestVsmBlurShaderFailureSkipsBlur(t *testing.T) {
	dev := gputest.New()
	dev.FailShaders = true
	r := newRigWith(dev, false)
	l := vsmSpot()

	r.culler.Cull(l, crateBelow(), nil)
	r.renderer.Render(l, nil)

	assert.Empty(t, dev.FullscreenDraws())
	assert.Equal(t, 0, r.pool.Len()+r.pool.Borrowed())
	assert.Equal(t, StateRendered, l.State())
}

func TestVsmBlurSkippedInAtlas(t *testing.T) {
	dev := gputest.New()
	r := newRigWith(dev, true)
	r.atlas.Filter = FilterVSM16F
	l := vsmSpot()

	r.frame([]*Light{l}, nil, crateBelow())

	assert.NotEmpty(t, dev.Draws)
	assert.Empty(t, dev.FullscreenDraws())
}

func TestGaussWeights(t *testing.T) {
	w := GaussWeights(9)
	require.Len(t, w, 9)

	var sum float32
	for i := range w {
		sum += w[i]
		assert.InDelta(t, w[i], w[len(w)-1-i], 1e-7, "symmetric")
	}
	assert.InDelta(t, 1, sum, 1e-5)
	for i := 0; i < 4; i++ {
		assert.Less(t, w[i], w[i+1])
	}
}
