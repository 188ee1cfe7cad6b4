package plan

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/lighting"
	"github.com/Faultbox/midgard-shadow/internal/engine/renderer"
	"github.com/Faultbox/midgard-shadow/internal/engine/scene"
	"github.com/Faultbox/midgard-shadow/internal/engine/shadow"
)

var allCaps = gpu.Caps{FloatRenderable: true, HalfFloatRenderable: true, DepthCompare: true}

func demo(defaults lighting.Defaults) Builder {
	return func(meshes scene.MeshFactory) (*scene.Scene, error) {
		return scene.Demo().Build(defaults, meshes)
	}
}

func TestSimulateDemo(t *testing.T) {
	p, err := Simulate(demo(lighting.DefaultDefaults()), Options{Frames: 2, Caps: allCaps, Renderer: renderer.DefaultConfig()})
	require.NoError(t, err)
	require.Len(t, p.Frames, 2)

	f := p.Frames[0]
	assert.Equal(t, 10, f.Faces, "3 cascades, 1 spot face, 6 cube faces")
	assert.Equal(t, 3, f.Textures)
	require.Len(t, f.Lights, 3)

	sun, lamp, torch := f.Lights[0], f.Lights[1], f.Lights[2]
	assert.Equal(t, "directional", sun.Kind)
	assert.Equal(t, 3, sun.Faces)
	assert.Len(t, sun.Cascades, 3)
	assert.Less(t, sun.Cascades[0], sun.Cascades[1])
	assert.Equal(t, 1, sun.Cameras)

	assert.Equal(t, "rendered", lamp.State)
	assert.Equal(t, "pcf3_32f", lamp.Filter)
	assert.Equal(t, 1024, lamp.Resolution)
	assert.Equal(t, -1, lamp.AtlasSlot)

	assert.Equal(t, 6, torch.Faces)
	assert.Equal(t, "rendered", torch.State)
}

func TestSimulateAtlas(t *testing.T) {
	cfg := renderer.DefaultConfig()
	cfg.Atlas = true

	p, err := Simulate(demo(lighting.DefaultDefaults()), Options{Frames: 1, Caps: allCaps, Renderer: cfg})
	require.NoError(t, err)

	f := p.Frames[0]
	assert.True(t, p.Atlas)
	assert.Equal(t, 2, f.Textures, "sun buffer and the atlas")
	assert.GreaterOrEqual(t, f.Lights[1].AtlasSlot, 0)
	assert.GreaterOrEqual(t, f.Lights[2].AtlasSlot, 0)
	assert.NotEqual(t, f.Lights[1].AtlasSlot, f.Lights[2].AtlasSlot)
	assert.Equal(t, -1, f.Lights[0].AtlasSlot)
}

func TestSimulateFallsBackWithoutFloatTargets(t *testing.T) {
	def := lighting.DefaultDefaults()
	def.Filter = shadow.FilterVSM32F
	caps := allCaps
	caps.FloatRenderable = false

	p, err := Simulate(demo(def), Options{Frames: 1, Caps: caps, Renderer: renderer.DefaultConfig()})
	require.NoError(t, err)

	f := p.Frames[0]
	lamp, torch := f.Lights[1], f.Lights[2]
	assert.Equal(t, "vsm16f", lamp.Filter)
	assert.Equal(t, "rgba16f", lamp.Format)
	assert.Equal(t, "blurred", lamp.State)
	assert.Equal(t, "pcf3_32f", torch.Filter, "cubemaps only store PCF")
	assert.Positive(t, f.BlurPasses)
}

func TestSimulateRejectsZeroFrames(t *testing.T) {
	_, err := Simulate(demo(lighting.DefaultDefaults()), Options{Caps: allCaps, Renderer: renderer.DefaultConfig()})
	assert.Error(t, err)
}

func TestWriteYAML(t *testing.T) {
	p, err := Simulate(demo(lighting.DefaultDefaults()), Options{Frames: 1, Caps: allCaps, Renderer: renderer.DefaultConfig()})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.WriteYAML(&buf))

	var decoded Plan
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, p.Frames, decoded.Frames)
}

func TestWriteText(t *testing.T) {
	p, err := Simulate(demo(lighting.DefaultDefaults()), Options{Frames: 1, Caps: allCaps, Renderer: renderer.DefaultConfig()})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, "Frame 0: 10 faces")
	assert.Contains(t, out, "LIGHT")
	assert.Contains(t, out, "torch")
}
