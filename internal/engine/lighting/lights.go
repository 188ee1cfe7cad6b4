package lighting

import (
	"fmt"

	"github.com/Faultbox/midgard-shadow/internal/engine/shadow"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

// Fallbacks for out-of-range descriptions.
const (
	DefaultRange     = 10.0
	DefaultConeAngle = 45.0
	maxConeAngle     = 89.0
)

// Defaults are the shadow settings a light takes when its description leaves
// them unset.
type Defaults struct {
	Resolution  int
	Filter      shadow.FilterType
	Bias        float32
	NormalBias  float32
	VsmBias     float32
	VsmBlurSize int
	VsmBlurMode shadow.BlurMode
	UpdateMode  shadow.UpdateMode

	ShadowDistance float32
	Cascades       int
	Distribution   float32
}

// DefaultDefaults mirrors the shadow package's own light defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		Resolution:     1024,
		Filter:         shadow.FilterPCF3F32,
		Bias:           0.05,
		NormalBias:     0.05,
		VsmBias:        0.01,
		VsmBlurSize:    11,
		VsmBlurMode:    shadow.BlurGaussian,
		UpdateMode:     shadow.UpdateRealtime,
		ShadowDistance: 40,
		Cascades:       1,
		Distribution:   0.5,
	}
}

// Desc describes one light in a scene file.
type Desc struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // directional, spot or omni

	Position  [3]float32 `yaml:"position"`
	Direction [3]float32 `yaml:"direction,omitempty"` // spot lights
	Longitude float32    `yaml:"longitude,omitempty"` // directional lights
	Latitude  float32    `yaml:"latitude,omitempty"`

	Range     float32 `yaml:"range,omitempty"`
	ConeAngle float32 `yaml:"cone_angle,omitempty"` // outer half angle, degrees

	CastShadows *bool  `yaml:"cast_shadows,omitempty"`
	Mask        uint32 `yaml:"mask,omitempty"`
	Resolution  int    `yaml:"resolution,omitempty"`
	Filter      string `yaml:"filter,omitempty"`
	UpdateMode  string `yaml:"update_mode,omitempty"`
	BlurSize    int    `yaml:"blur_size,omitempty"`
	Cascades    int    `yaml:"cascades,omitempty"`
}

// Build creates the shadow light the description names.
func (d Desc) Build(def Defaults) (*shadow.Light, error) {
	var l *shadow.Light
	switch d.Kind {
	case "directional":
		l = shadow.NewDirectional(d.Name)
		l.Rotation = SunRotation(d.Longitude, d.Latitude)
	case "spot":
		l = shadow.NewSpot(d.Name)
		if dir := vec(d.Direction); dir.Length() > 0 {
			l.Rotation = ShineRotation(dir)
		}
	case "omni":
		l = shadow.NewOmni(d.Name)
	default:
		return nil, fmt.Errorf("light %q: unknown kind %q", d.Name, d.Kind)
	}
	l.Position = vec(d.Position)

	applyDefaults(l, def)

	l.AttenuationEnd = d.Range
	if l.AttenuationEnd <= 0 {
		l.AttenuationEnd = DefaultRange
	}
	l.OuterConeAngle = d.ConeAngle
	if l.OuterConeAngle <= 0 {
		l.OuterConeAngle = DefaultConeAngle
	}
	if l.OuterConeAngle > maxConeAngle {
		l.OuterConeAngle = maxConeAngle
	}

	if d.CastShadows != nil {
		l.CastShadows = *d.CastShadows
	}
	if d.Mask != 0 {
		l.Mask = d.Mask
	}
	if d.Resolution > 0 {
		l.ShadowResolution = d.Resolution
	}
	if d.BlurSize > 0 {
		l.VsmBlurSize = d.BlurSize
	}
	if d.Cascades > 0 {
		l.NumCascades = d.Cascades
	}
	if d.Filter != "" {
		f, err := shadow.ParseFilterType(d.Filter)
		if err != nil {
			return nil, fmt.Errorf("light %q: %w", d.Name, err)
		}
		l.Filter = f
	}
	if d.UpdateMode != "" {
		m, err := shadow.ParseUpdateMode(d.UpdateMode)
		if err != nil {
			return nil, fmt.Errorf("light %q: %w", d.Name, err)
		}
		l.UpdateMode = m
	}
	return l, nil
}

func applyDefaults(l *shadow.Light, def Defaults) {
	if def.Resolution > 0 {
		l.ShadowResolution = def.Resolution
	}
	l.Filter = def.Filter
	l.ShadowBias = def.Bias
	l.NormalOffsetBias = def.NormalBias
	l.VsmBias = def.VsmBias
	l.VsmBlurSize = def.VsmBlurSize
	l.VsmBlurMode = def.VsmBlurMode
	l.UpdateMode = def.UpdateMode
	if def.ShadowDistance > 0 {
		l.ShadowDistance = def.ShadowDistance
	}
	if def.Cascades > 0 {
		l.NumCascades = def.Cascades
	}
	l.CascadeDistribution = def.Distribution
}

func vec(v [3]float32) math.Vec3 {
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
