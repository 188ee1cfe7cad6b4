package shadow

import (
	"github.com/Faultbox/midgard-shadow/internal/engine/camera"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

// vsmConstantBias is the depth bias VSM lights sample with; their
// configured VsmBias feeds the normal offset instead.
const vsmConstantBias = -0.00001 * 20

// Uniforms is what the colour pass needs to sample one light's shadow.
type Uniforms struct {
	Kind    LightKind
	Texture gpu.Texture
	// Params is (resolution, normal bias, bias, 1/range); the last
	// component is zero for directional lights.
	Params math.Vec4
	// Matrices holds one shadow matrix per face or cascade.
	Matrices []math.Mat4

	CascadeCount     int
	CascadeDistances [MaxCascades]float32
	// CascadePalette packs the cascade matrices as 16 floats each.
	CascadePalette []float32

	// Atlas is set when the light samples from the shared atlas.
	Atlas bool
}

// Dispatch collects the shadow uniforms of a culled and rendered light. cam
// selects the cascades of a directional light. ok is false when the light
// has no shadow to sample.
func Dispatch(l *Light, cam *camera.Camera) (u Uniforms, ok bool) {
	if !l.Enabled || !l.CastShadows || l.ShadowMap == nil {
		return Uniforms{}, false
	}

	buf := l.ShadowMap
	faces := l.NumFaces()
	first := l.RenderData(cam, 0)
	bias, normalBias := biasValues(l, first)

	u = Uniforms{
		Kind:     l.Kind,
		Texture:  buf.Texture,
		Params:   math.Vec4{float32(buf.Resolution), normalBias, bias, 0},
		Matrices: make([]math.Mat4, faces),
		Atlas:    l.AtlasViewportAllocated,
	}
	if l.Kind != KindDirectional && l.AttenuationEnd > 0 {
		u.Params[3] = 1 / l.AttenuationEnd
	}
	for face := range u.Matrices {
		u.Matrices[face] = l.RenderData(cam, face).ShadowMatrix
	}

	if l.Kind == KindDirectional {
		u.CascadeCount = faces
		u.CascadeDistances = l.CascadeDistances
		u.CascadePalette = make([]float32, 0, faces*16)
		for _, m := range u.Matrices {
			u.CascadePalette = append(u.CascadePalette, m[:]...)
		}
	}
	return u, true
}

// biasValues returns the bias and normal-offset bias the colour pass uses.
func biasValues(l *Light, rd *RenderData) (bias, normalBias float32) {
	vsm := l.ShadowMap != nil && l.ShadowMap.Filter.IsVSM()

	switch l.Kind {
	case KindOmni:
		return l.ShadowBias, l.NormalOffsetBias
	case KindSpot:
		if vsm {
			return vsmConstantBias, l.VsmBias / (l.AttenuationEnd / 7)
		}
		return l.ShadowBias * 20, l.NormalOffsetBias
	default:
		far := rd.Camera.FarClip
		if vsm {
			return vsmConstantBias, l.VsmBias / (far / 7)
		}
		return l.ShadowBias / far * 100, l.NormalOffsetBias
	}
}

// List returns the uniforms named with the given prefix, e.g. "uSpot0".
func (u Uniforms) List(prefix string) []gpu.Uniform {
	list := []gpu.Uniform{
		{Name: prefix + "ShadowMap", Value: u.Texture},
		{Name: prefix + "ShadowParams", Value: u.Params},
	}
	switch {
	case u.Kind == KindDirectional:
		list = append(list,
			gpu.Uniform{Name: prefix + "ShadowMatrixPalette", Value: u.CascadePalette},
			gpu.Uniform{Name: prefix + "ShadowCascadeDistances", Value: u.CascadeDistances[:]},
			gpu.Uniform{Name: prefix + "ShadowCascadeCount", Value: int32(u.CascadeCount)},
		)
	case u.Kind == KindOmni && u.Atlas:
		palette := make([]float32, 0, len(u.Matrices)*16)
		for _, m := range u.Matrices {
			palette = append(palette, m[:]...)
		}
		list = append(list, gpu.Uniform{Name: prefix + "ShadowMatrixPalette", Value: palette})
	case len(u.Matrices) > 0:
		list = append(list, gpu.Uniform{Name: prefix + "ShadowMatrix", Value: u.Matrices[0]})
	}
	return list
}
