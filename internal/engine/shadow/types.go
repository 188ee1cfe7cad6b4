// Package shadow implements shadow-caster culling, shadow camera fitting,
// shadow buffer allocation (owned, pooled and atlas-packed) and the shadow
// depth pass with variance shadow map blurring.
package shadow

import (
	"fmt"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
)

// LightKind is the light variant.
type LightKind int

const (
	KindDirectional LightKind = iota
	KindOmni
	KindSpot
	numLightKinds
)

func (k LightKind) String() string {
	switch k {
	case KindDirectional:
		return "directional"
	case KindOmni:
		return "omni"
	case KindSpot:
		return "spot"
	}
	return fmt.Sprintf("LightKind(%d)", int(k))
}

// FilterType selects the shadow filtering algorithm and storage precision.
type FilterType int

const (
	FilterPCF3F32 FilterType = iota
	FilterVSM8
	FilterVSM16F
	FilterVSM32F
	FilterPCF5F32
	FilterPCF1F32
	FilterPCSSF32
	FilterPCF1F16
	FilterPCF3F16
	FilterPCF5F16
	numFilterTypes
)

// FilterInfo is the static metadata of a filter type.
type FilterInfo struct {
	Name   string
	Format gpu.Format
	// Taps is the PCF kernel width (1, 3 or 5); 0 for non-PCF filters.
	Taps int
	VSM  bool
	PCSS bool
}

var filterInfos = [numFilterTypes]FilterInfo{
	FilterPCF3F32: {Name: "pcf3_32f", Format: gpu.FormatDepth32F, Taps: 3},
	FilterVSM8:    {Name: "vsm8", Format: gpu.FormatRGBA8, VSM: true},
	FilterVSM16F:  {Name: "vsm16f", Format: gpu.FormatRGBA16F, VSM: true},
	FilterVSM32F:  {Name: "vsm32f", Format: gpu.FormatRGBA32F, VSM: true},
	FilterPCF5F32: {Name: "pcf5_32f", Format: gpu.FormatDepth32F, Taps: 5},
	FilterPCF1F32: {Name: "pcf1_32f", Format: gpu.FormatDepth32F, Taps: 1},
	FilterPCSSF32: {Name: "pcss_32f", Format: gpu.FormatDepth32F, PCSS: true},
	FilterPCF1F16: {Name: "pcf1_16f", Format: gpu.FormatDepth16, Taps: 1},
	FilterPCF3F16: {Name: "pcf3_16f", Format: gpu.FormatDepth16, Taps: 3},
	FilterPCF5F16: {Name: "pcf5_16f", Format: gpu.FormatDepth16, Taps: 5},
}

// Info returns the filter metadata. Unknown values trip a debug assertion
// and fall back to PCF3.
func (f FilterType) Info() FilterInfo {
	if f < 0 || f >= numFilterTypes {
		assertf(false, "shadow: no metadata for filter type %d", int(f))
		return filterInfos[FilterPCF3F32]
	}
	return filterInfos[f]
}

// IsVSM reports whether the filter stores variance moments.
func (f FilterType) IsVSM() bool { return f.Info().VSM }

// IsPCF reports whether the filter samples depth with comparison taps.
func (f FilterType) IsPCF() bool { return f.Info().Taps > 0 }

func (f FilterType) String() string { return f.Info().Name }

// ParseFilterType parses a filter name such as "pcf3_32f" or "vsm16f".
func ParseFilterType(name string) (FilterType, error) {
	for i, info := range filterInfos {
		if info.Name == name {
			return FilterType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shadow filter %q", name)
}

// UpdateMode controls when a light's shadow is re-rendered.
type UpdateMode int

const (
	// UpdateNever keeps the existing shadow content.
	UpdateNever UpdateMode = iota
	// UpdateThisFrame renders once and then reverts to UpdateNever.
	UpdateThisFrame
	// UpdateRealtime renders every frame.
	UpdateRealtime
)

var updateModeNames = map[string]UpdateMode{
	"never":      UpdateNever,
	"this_frame": UpdateThisFrame,
	"realtime":   UpdateRealtime,
}

// ParseUpdateMode parses "never", "this_frame" or "realtime".
func ParseUpdateMode(name string) (UpdateMode, error) {
	m, ok := updateModeNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown shadow update mode %q", name)
	}
	return m, nil
}

// BlurMode selects the VSM blur kernel.
type BlurMode int

const (
	BlurBox BlurMode = iota
	BlurGaussian
)

// ParseBlurMode parses "box" or "gaussian".
func ParseBlurMode(name string) (BlurMode, error) {
	switch name {
	case "box":
		return BlurBox, nil
	case "gaussian":
		return BlurGaussian, nil
	}
	return 0, fmt.Errorf("unknown vsm blur mode %q", name)
}

// State is a light's position in the per-frame shadow pipeline.
type State int

const (
	StateIdle State = iota
	StateCulled
	StateRendered
	StateBlurred
)

func (s State) String() string {
	return [...]string{"idle", "culled", "rendered", "blurred"}[s]
}
