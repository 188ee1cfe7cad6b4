// Package scene loads scene descriptions and builds the cameras, lights and
// mesh instances the shadow renderer works on.
package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-shadow/internal/engine/camera"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/lighting"
	"github.com/Faultbox/midgard-shadow/internal/engine/mesh"
	"github.com/Faultbox/midgard-shadow/internal/engine/shadow"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

// CameraDesc describes a viewing camera.
type CameraDesc struct {
	Name     string     `yaml:"name"`
	Position [3]float32 `yaml:"position"`
	Target   [3]float32 `yaml:"target"`
	FOV      float32    `yaml:"fov,omitempty"`
	Near     float32    `yaml:"near,omitempty"`
	Far      float32    `yaml:"far,omitempty"`
	Mask     uint32     `yaml:"mask,omitempty"`
}

// BoxDesc describes an axis-aligned box caster.
type BoxDesc struct {
	Name       string     `yaml:"name"`
	Center     [3]float32 `yaml:"center"`
	Size       [3]float32 `yaml:"size"`
	CastShadow *bool      `yaml:"cast_shadow,omitempty"`
	Mask       uint32     `yaml:"mask,omitempty"`
}

// File is a scene description as stored on disk.
type File struct {
	Cameras []CameraDesc    `yaml:"cameras"`
	Lights  []lighting.Desc `yaml:"lights"`
	Boxes   []BoxDesc       `yaml:"boxes"`
}

// Scene is a built scene.
type Scene struct {
	Cameras   []*camera.Camera
	Lights    []*shadow.Light
	Instances []*mesh.Instance
	// Bounds encloses every instance.
	Bounds math.AABB
}

// MeshFactory uploads indexed position-only geometry.
type MeshFactory func(positions []float32, indices []uint32) gpu.Mesh

// Load reads a scene file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing scene %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a YAML scene description.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Save writes the scene description as YAML.
func (f *File) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Build creates the scene. All boxes share one mesh from meshes.
func (f *File) Build(defaults lighting.Defaults, meshes MeshFactory) (*Scene, error) {
	if len(f.Cameras) == 0 {
		return nil, fmt.Errorf("scene has no cameras")
	}

	s := &Scene{}
	for _, cd := range f.Cameras {
		s.Cameras = append(s.Cameras, cd.build())
	}

	for _, ld := range f.Lights {
		l, err := ld.Build(defaults)
		if err != nil {
			return nil, err
		}
		s.Lights = append(s.Lights, l)
	}

	if len(f.Boxes) > 0 {
		positions, indices := BoxGeometry()
		cube := meshes(positions, indices)
		for i, bd := range f.Boxes {
			inst, err := bd.build(cube)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				s.Bounds = inst.Bounds
			} else {
				s.Bounds = s.Bounds.Union(inst.Bounds)
			}
			s.Instances = append(s.Instances, inst)
		}
	}
	return s, nil
}

func (cd CameraDesc) build() *camera.Camera {
	cam := camera.New(cd.Name)
	cam.Position = vec(cd.Position)
	if cd.FOV > 0 {
		cam.FOV = cd.FOV
	}
	if cd.Near > 0 {
		cam.NearClip = cd.Near
	}
	if cd.Far > 0 {
		cam.FarClip = cd.Far
	}
	if cd.Mask != 0 {
		cam.CullingMask = cd.Mask
	}
	cam.LookAt(vec(cd.Target), math.Vec3Up)
	return cam
}

func (bd BoxDesc) build(cube gpu.Mesh) (*mesh.Instance, error) {
	size := vec(bd.Size)
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, fmt.Errorf("box %q: size must be positive, got %v", bd.Name, bd.Size)
	}
	c := vec(bd.Center)
	world := math.Translate(c.X, c.Y, c.Z).Mul(math.Scale(size.X/2, size.Y/2, size.Z/2))
	inst := mesh.New(bd.Name, cube, world, math.NewAABB(math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1}))
	if bd.CastShadow != nil {
		inst.CastShadow = *bd.CastShadow
	}
	if bd.Mask != 0 {
		inst.Mask = bd.Mask
	}
	return inst, nil
}

// BoxGeometry returns a unit cube spanning [-1, 1] on each axis with
// outward-facing counter-clockwise triangles.
func BoxGeometry() ([]float32, []uint32) {
	positions := []float32{
		-1, -1, -1, // 0
		1, -1, -1, // 1
		1, 1, -1, // 2
		-1, 1, -1, // 3
		-1, -1, 1, // 4
		1, -1, 1, // 5
		1, 1, 1, // 6
		-1, 1, 1, // 7
	}
	indices := []uint32{
		4, 5, 6, 4, 6, 7, // +Z
		1, 0, 3, 1, 3, 2, // -Z
		5, 1, 2, 5, 2, 6, // +X
		0, 4, 7, 0, 7, 3, // -X
		7, 6, 2, 7, 2, 3, // +Y
		0, 1, 5, 0, 5, 4, // -Y
	}
	return positions, indices
}

func vec(v [3]float32) math.Vec3 {
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
