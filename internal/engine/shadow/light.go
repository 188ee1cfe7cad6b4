package shadow

import (
	"github.com/Faultbox/midgard-shadow/internal/engine/camera"
	"github.com/Faultbox/midgard-shadow/internal/engine/mesh"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

// MaxCascades is the largest supported directional cascade count.
const MaxCascades = 4

// MaxVsmBlurSize is the largest VSM blur kernel.
const MaxVsmBlurSize = 25

// RenderData is the shadow setup of one light face or cascade.
type RenderData struct {
	Camera *camera.Camera

	// Viewport and Scissor are normalized (x, y, w, h) rectangles within the
	// shadow buffer.
	Viewport math.Vec4
	Scissor  math.Vec4

	// ShadowMatrix maps world space into shadow texture space (xy in the
	// viewport rectangle, z depth in [0,1]).
	ShadowMatrix math.Mat4

	// DepthRange holds the tightened caster depth span along the light
	// direction, measured from the snapped cascade center.
	DepthRange [2]float32

	VisibleCasters []*mesh.Instance
}

func newRenderData(name string) *RenderData {
	cam := camera.New(name)
	return &RenderData{
		Camera:       cam,
		Viewport:     math.Vec4{0, 0, 1, 1},
		Scissor:      math.Vec4{0, 0, 1, 1},
		ShadowMatrix: math.Identity(),
	}
}

// Light is a shadow-casting light source. It shines along its local -Y axis.
type Light struct {
	Name string
	Kind LightKind

	Enabled          bool
	CastShadows      bool
	VisibleThisFrame bool

	Position math.Vec3
	Rotation math.Quat
	Mask     uint32

	ShadowResolution int
	Filter           FilterType
	ShadowBias       float32
	NormalOffsetBias float32
	VsmBias          float32
	// VsmBlurSize is the blur kernel width in texels. Even values round up
	// and values above MaxVsmBlurSize clamp.
	VsmBlurSize int
	VsmBlurMode BlurMode
	UpdateMode  UpdateMode

	// Local lights.
	AttenuationEnd float32
	OuterConeAngle float32 // degrees

	// Directional lights.
	NumCascades         int
	CascadeDistribution float32
	ShadowDistance      float32

	// Written by the shadow subsystem.
	ShadowMap              *Buffer
	AtlasViewportAllocated bool
	AtlasSlotIndex         int
	AtlasSlotUpdated       bool
	CascadeDistances       [MaxCascades]float32

	atlasVersion int
	faces        []*RenderData
	cascades     map[*camera.Camera][]*RenderData
	state        State
}

func newLight(name string, kind LightKind) *Light {
	return &Light{
		Name:                name,
		Kind:                kind,
		Enabled:             true,
		CastShadows:         true,
		Rotation:            math.QuatIdentity(),
		Mask:                camera.MaskAll,
		ShadowResolution:    1024,
		Filter:              FilterPCF3F32,
		ShadowBias:          0.05,
		NormalOffsetBias:    0.05,
		VsmBias:             0.01,
		VsmBlurSize:         11,
		VsmBlurMode:         BlurGaussian,
		UpdateMode:          UpdateRealtime,
		AttenuationEnd:      10,
		OuterConeAngle:      45,
		NumCascades:         1,
		CascadeDistribution: 0.5,
		ShadowDistance:      40,
		AtlasSlotIndex:      -1,
	}
}

// NewDirectional creates a directional light pointing straight down.
func NewDirectional(name string) *Light { return newLight(name, KindDirectional) }

// NewSpot creates a spot light pointing straight down.
func NewSpot(name string) *Light { return newLight(name, KindSpot) }

// NewOmni creates an omni light.
func NewOmni(name string) *Light { return newLight(name, KindOmni) }

// Direction returns the world-space direction the light shines in.
func (l *Light) Direction() math.Vec3 {
	return l.Rotation.Rotate(math.Vec3{Y: -1})
}

// NumFaces returns the number of shadow faces: 1 for spot lights, 6 for omni
// lights and the cascade count for directional lights.
func (l *Light) NumFaces() int {
	switch l.Kind {
	case KindOmni:
		return 6
	case KindDirectional:
		return l.cascadeCount()
	}
	return 1
}

func (l *Light) cascadeCount() int {
	return min(max(l.NumCascades, 1), MaxCascades)
}

// EffectiveFilter returns the filter the light's buffer is keyed by. Omni
// lights render into cubemaps, which support only the PCF filters.
func (l *Light) EffectiveFilter() FilterType {
	if l.Kind == KindOmni {
		info := l.Filter.Info()
		if info.VSM || info.PCSS {
			return FilterPCF3F32
		}
	}
	return l.Filter
}

// BlurKernelSize returns VsmBlurSize forced odd and clamped to MaxVsmBlurSize.
func (l *Light) BlurKernelSize() int {
	size := l.VsmBlurSize
	if size > MaxVsmBlurSize {
		size = MaxVsmBlurSize
	}
	if size > 1 && size%2 == 0 {
		size++
	}
	return size
}

// RenderData returns the shadow setup for a face. Local lights share faces
// across cameras and ignore cam; directional lights keep one set of
// cascades per viewing camera.
func (l *Light) RenderData(cam *camera.Camera, face int) *RenderData {
	if l.Kind != KindDirectional {
		for len(l.faces) <= face {
			l.faces = append(l.faces, newRenderData(l.Name+"-shadow"))
		}
		return l.faces[face]
	}

	if l.cascades == nil {
		l.cascades = make(map[*camera.Camera][]*RenderData)
	}
	list := l.cascades[cam]
	for len(list) <= face {
		list = append(list, newRenderData(l.Name+"-cascade"))
	}
	l.cascades[cam] = list
	return list[face]
}

// HasCascades reports whether cascades were fitted for cam. Local lights
// always report true.
func (l *Light) HasCascades(cam *camera.Camera) bool {
	if l.Kind != KindDirectional {
		return true
	}
	_, ok := l.cascades[cam]
	return ok
}

// ForgetCamera drops the cascades kept for a camera that is no longer used.
func (l *Light) ForgetCamera(cam *camera.Camera) {
	delete(l.cascades, cam)
}

// State returns the light's position in the current frame's pipeline.
func (l *Light) State() State { return l.state }

func (l *Light) transition(to State) {
	switch to {
	case StateRendered:
		assertf(l.state != StateIdle, "shadow: light %q rendered without culling", l.Name)
	case StateBlurred:
		assertf(l.state == StateRendered, "shadow: light %q blurred in state %s", l.Name, l.state)
	}
	l.state = to
}

// FinishFrame returns the light to Idle and reports the last state it
// reached this frame.
func (l *Light) FinishFrame() State {
	last := l.state
	l.state = StateIdle
	return last
}
