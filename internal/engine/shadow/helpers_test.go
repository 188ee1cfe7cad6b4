package shadow

import (
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu/gputest"
	"github.com/Faultbox/midgard-shadow/internal/engine/mesh"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

type fixedShaders struct {
	shader gpu.Shader
}

func (f fixedShaders) DepthShader(mesh.ShaderDefs, FilterType, LightKind) gpu.Shader {
	return f.shader
}

type rig struct {
	dev      *gputest.Device
	pool     *Pool
	atlas    *Atlas
	culler   *Culler
	renderer *Renderer
}

func newRig() *rig {
	return newRigWith(gputest.New(), false)
}

func newAtlasRig() *rig {
	return newRigWith(gputest.New(), true)
}

func newRigWith(dev *gputest.Device, withAtlas bool) *rig {
	r := &rig{dev: dev, pool: NewPool(dev)}
	if withAtlas {
		r.atlas = NewAtlas(dev, 4096, 3, FilterPCF3F32)
	}
	r.culler = NewCuller(dev, r.atlas)
	r.renderer = NewRenderer(dev, r.pool, fixedShaders{shader: &gputest.Shader{}})
	return r
}

// frame runs one atlas update, cull and render pass over local lights.
func (r *rig) frame(spots, omnis []*Light, casters []*mesh.Instance) {
	if r.atlas != nil {
		r.atlas.Update(spots, omnis)
	}
	for _, list := range [][]*Light{spots, omnis} {
		for _, l := range list {
			if !l.VisibleThisFrame || !l.CastShadows {
				continue
			}
			r.culler.Cull(l, casters, nil)
			r.renderer.Render(l, nil)
			l.FinishFrame()
		}
	}
}

func box(name string, center math.Vec3, half float32) *mesh.Instance {
	local := math.NewAABB(math.Vec3{}, math.Vec3{X: half, Y: half, Z: half})
	return mesh.New(name, &gputest.Mesh{Indices: 36}, math.Translate(center.X, center.Y, center.Z), local)
}

func visibleSpot(name string, pos math.Vec3) *Light {
	l := NewSpot(name)
	l.Position = pos
	l.VisibleThisFrame = true
	return l
}

func visibleOmni(name string, pos math.Vec3) *Light {
	l := NewOmni(name)
	l.Position = pos
	l.VisibleThisFrame = true
	return l
}
