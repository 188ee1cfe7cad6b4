package scene

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu/gputest"
	"github.com/Faultbox/midgard-shadow/internal/engine/lighting"
	"github.com/Faultbox/midgard-shadow/internal/engine/shadow"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

func testMeshes(uploads *int) MeshFactory {
	return func(_ []float32, indices []uint32) gpu.Mesh {
		*uploads++
		return &gputest.Mesh{Indices: len(indices)}
	}
}

const sampleScene = `
cameras:
  - name: main
    position: [0, 10, 20]
    target: [0, 0, 0]
    far: 150
lights:
  - name: lamp
    kind: spot
    position: [0, 6, 0]
    range: 15
    filter: vsm16f
  - name: torch
    kind: omni
    position: [3, 2, 0]
boxes:
  - name: ground
    center: [0, -0.5, 0]
    size: [40, 1, 40]
  - name: ghost
    center: [0, 1, 0]
    size: [1, 2, 1]
    cast_shadow: false
`

func TestParseAndBuild(t *testing.T) {
	f, err := Parse([]byte(sampleScene))
	require.NoError(t, err)

	uploads := 0
	s, err := f.Build(lighting.DefaultDefaults(), testMeshes(&uploads))
	require.NoError(t, err)

	require.Len(t, s.Cameras, 1)
	assert.Equal(t, float32(150), s.Cameras[0].FarClip)

	require.Len(t, s.Lights, 2)
	assert.Equal(t, shadow.KindSpot, s.Lights[0].Kind)
	assert.Equal(t, shadow.FilterVSM16F, s.Lights[0].Filter)
	assert.Equal(t, float32(15), s.Lights[0].AttenuationEnd)
	assert.Equal(t, shadow.KindOmni, s.Lights[1].Kind)

	require.Len(t, s.Instances, 2)
	assert.Equal(t, 1, uploads, "boxes share one mesh")
	assert.Same(t, s.Instances[0].Mesh, s.Instances[1].Mesh)
	assert.False(t, s.Instances[1].CastShadow)

	ground := s.Instances[0].Bounds
	assert.True(t, ground.Min.ApproxEqual(math.Vec3{X: -20, Y: -1, Z: -20}, 1e-4))
	assert.True(t, ground.Max.ApproxEqual(math.Vec3{X: 20, Y: 0, Z: 20}, 1e-4))
	assert.True(t, s.Bounds.Max.ApproxEqual(math.Vec3{X: 20, Y: 2, Z: 20}, 1e-4))
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		file File
	}{
		{"no cameras", File{}},
		{"bad light", File{
			Cameras: []CameraDesc{{Name: "c"}},
			Lights:  []lighting.Desc{{Name: "l", Kind: "laser"}},
		}},
		{"flat box", File{
			Cameras: []CameraDesc{{Name: "c"}},
			Boxes:   []BoxDesc{{Name: "b", Size: [3]float32{1, 0, 1}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploads := 0
			_, err := tt.file.Build(lighting.DefaultDefaults(), testMeshes(&uploads))
			assert.Error(t, err)
		})
	}
}

func TestSaveLoadDemo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, Demo().Save(path))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Demo(), f)

	uploads := 0
	s, err := f.Build(lighting.DefaultDefaults(), testMeshes(&uploads))
	require.NoError(t, err)
	assert.Len(t, s.Lights, 3)
	assert.Len(t, s.Instances, 10)
	assert.Equal(t, 3, s.Lights[0].NumCascades)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBoxGeometry(t *testing.T) {
	positions, indices := BoxGeometry()
	require.Len(t, positions, 24)
	require.Len(t, indices, 36)

	// Every triangle faces away from the cube center.
	vertex := func(i uint32) math.Vec3 {
		return math.Vec3{X: positions[i*3], Y: positions[i*3+1], Z: positions[i*3+2]}
	}
	for tri := 0; tri < len(indices); tri += 3 {
		a, b, c := vertex(indices[tri]), vertex(indices[tri+1]), vertex(indices[tri+2])
		normal := b.Sub(a).Cross(c.Sub(a))
		centroid := a.Add(b).Add(c).Scale(1.0 / 3)
		assert.Greater(t, normal.Dot(centroid), float32(0), "triangle %d", tri/3)
	}
}
