package shadow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-shadow/internal/engine/camera"
)

func TestNumFaces(t *testing.T) {
	sun := NewDirectional("sun")
	sun.NumCascades = 3
	assert.Equal(t, 3, sun.NumFaces())

	sun.NumCascades = 9
	assert.Equal(t, MaxCascades, sun.NumFaces())
	sun.NumCascades = 0
	assert.Equal(t, 1, sun.NumFaces())

	assert.Equal(t, 1, NewSpot("s").NumFaces())
	assert.Equal(t, 6, NewOmni("o").NumFaces())
}

func TestBlurKernelSize(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 0},
		{1, 1},
		{2, 3},
		{11, 11},
		{24, 25},
		{25, 25},
		{100, 25},
	}
	for _, tt := range tests {
		l := NewSpot("s")
		l.VsmBlurSize = tt.in
		assert.Equal(t, tt.want, l.BlurKernelSize(), "size %d", tt.in)
	}
}

func TestEffectiveFilter(t *testing.T) {
	omni := NewOmni("o")
	spot := NewSpot("s")
	for _, f := range []FilterType{FilterVSM8, FilterVSM32F, FilterPCSSF32} {
		omni.Filter = f
		spot.Filter = f
		assert.Equal(t, FilterPCF3F32, omni.EffectiveFilter(), f.String())
		assert.Equal(t, f, spot.EffectiveFilter(), f.String())
	}
	omni.Filter = FilterPCF1F16
	assert.Equal(t, FilterPCF1F16, omni.EffectiveFilter())
}

func TestRenderDataPerCamera(t *testing.T) {
	a, b := camera.New("a"), camera.New("b")

	spot := NewSpot("s")
	assert.Same(t, spot.RenderData(a, 0), spot.RenderData(b, 0), "local faces ignore the camera")

	sun := NewDirectional("sun")
	sun.NumCascades = 2
	require.NotSame(t, sun.RenderData(a, 1), sun.RenderData(b, 1))
	assert.Same(t, sun.RenderData(a, 1), sun.RenderData(a, 1))

	sun.ForgetCamera(a)
	assert.Len(t, sun.cascades, 1)
}

func TestDirection(t *testing.T) {
	assert.Equal(t, float32(-1), NewSpot("s").Direction().Y)
}

func TestParseNames(t *testing.T) {
	for i := FilterType(0); i < numFilterTypes; i++ {
		got, err := ParseFilterType(i.String())
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
	_, err := ParseFilterType("pcf7")
	assert.Error(t, err)

	mode, err := ParseUpdateMode("this_frame")
	require.NoError(t, err)
	assert.Equal(t, UpdateThisFrame, mode)
	_, err = ParseUpdateMode("sometimes")
	assert.Error(t, err)

	blur, err := ParseBlurMode("box")
	require.NoError(t, err)
	assert.Equal(t, BlurBox, blur)
	_, err = ParseBlurMode("bokeh")
	assert.Error(t, err)
}

func TestUnknownFilterFallsBack(t *testing.T) {
	if debugAssertions {
		assert.Panics(t, func() { FilterType(99).Info() })
		return
	}
	assert.Equal(t, "pcf3_32f", FilterType(99).Info().Name)
}
