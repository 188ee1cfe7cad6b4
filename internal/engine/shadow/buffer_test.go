package shadow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu/gputest"
)

func TestBufferShapes(t *testing.T) {
	dev := gputest.New()

	spot := NewBuffer(dev, KindSpot, FilterPCF3F32, 1024)
	assert.False(t, spot.Cubemap)
	assert.Equal(t, 1, spot.TargetCount())
	assert.Equal(t, gpu.Texture2D, spot.Texture.Desc().Kind)

	omni := NewBuffer(dev, KindOmni, FilterPCF3F32, 512)
	assert.True(t, omni.Cubemap)
	assert.Equal(t, 6, omni.TargetCount())
	assert.Equal(t, gpu.TextureCube, omni.Texture.Desc().Kind)
	assert.NotSame(t, omni.Target(0), omni.Target(5))
	assert.Equal(t, 5, omni.Target(5).Face())

	atlas := NewAtlasBuffer(dev, 4096, FilterPCF3F32)
	assert.True(t, atlas.SharedAcrossFaces)
	assert.Equal(t, 1, atlas.TargetCount())
	for face := 0; face < 6; face++ {
		assert.Same(t, atlas.Target(0), atlas.Target(face))
	}
}

func TestBufferFormatFallback(t *testing.T) {
	tests := []struct {
		name        string
		caps        gpu.Caps
		kind        LightKind
		filter      FilterType
		wantFilter  FilterType
		wantFormat  gpu.Format
		wantCompare bool
	}{
		{
			name:       "vsm32 native",
			caps:       gpu.Caps{FloatRenderable: true, HalfFloatRenderable: true},
			filter:     FilterVSM32F,
			wantFilter: FilterVSM32F,
			wantFormat: gpu.FormatRGBA32F,
		},
		{
			name:       "vsm32 without float",
			caps:       gpu.Caps{HalfFloatRenderable: true},
			filter:     FilterVSM32F,
			wantFilter: FilterVSM16F,
			wantFormat: gpu.FormatRGBA16F,
		},
		{
			name:       "vsm32 without any float",
			filter:     FilterVSM32F,
			wantFilter: FilterVSM8,
			wantFormat: gpu.FormatRGBA8,
		},
		{
			name:        "pcf3 compare",
			caps:        gpu.Caps{DepthCompare: true},
			filter:      FilterPCF3F32,
			wantFilter:  FilterPCF3F32,
			wantFormat:  gpu.FormatDepth32F,
			wantCompare: true,
		},
		{
			name:       "pcf1 encoded",
			filter:     FilterPCF1F16,
			wantFilter: FilterPCF1F16,
			wantFormat: gpu.FormatRGBA8,
		},
		{
			name:       "pcf5 raw depth",
			filter:     FilterPCF5F32,
			wantFilter: FilterPCF5F32,
			wantFormat: gpu.FormatDepth32F,
		},
		{
			name:       "pcss raw depth",
			caps:       gpu.Caps{DepthCompare: true},
			filter:     FilterPCSSF32,
			wantFilter: FilterPCSSF32,
			wantFormat: gpu.FormatDepth32F,
		},
		{
			name:       "omni encoded distance",
			kind:       KindOmni,
			filter:     FilterPCF5F32,
			wantFilter: FilterPCF5F32,
			wantFormat: gpu.FormatRGBA8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &gputest.Device{DeviceCaps: tt.caps}
			b := NewBuffer(dev, tt.kind, tt.filter, 256)

			assert.Equal(t, tt.filter, b.Requested)
			assert.Equal(t, tt.wantFilter, b.Filter)
			assert.Equal(t, tt.wantFormat, b.Texture.Desc().Format)
			assert.Equal(t, tt.wantCompare, b.HardwareCompare)
		})
	}
}

func TestBufferDestroyOnce(t *testing.T) {
	dev := gputest.New()
	b := NewBuffer(dev, KindOmni, FilterPCF3F32, 256)

	b.Destroy()
	b.Destroy()

	assert.Equal(t, 1, dev.Textures[0].Destroyed)
	for _, target := range dev.Targets {
		assert.Equal(t, 1, target.Destroyed)
	}
	assert.False(t, b.Matches(b.Key()))
}
