// Package mesh describes renderable mesh instances as seen by culling and
// shadow passes.
package mesh

import (
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

// ShaderDefs is a bitset of shader features the instance's depth variant needs.
type ShaderDefs uint32

const (
	DefSkin ShaderDefs = 1 << iota
	DefMorph
	DefAlphaTest
	DefInstancing
)

// Instance is a mesh placed in the world.
type Instance struct {
	Name  string
	Mesh  gpu.Mesh
	World math.Mat4
	// Bounds is the world-space bounding box.
	Bounds math.AABB

	CastShadow bool
	// Cull enables per-instance frustum culling. Instances with Cull unset
	// are always considered visible.
	Cull bool
	Mask uint32
	Defs ShaderDefs

	// AlphaMask is sampled at vertex attribute 1 by alpha-tested casters;
	// texels with alpha below AlphaCutoff cast no shadow.
	AlphaMask   gpu.Texture
	AlphaCutoff float32

	// TransparencyHash groups instances sharing alpha-test state so depth
	// submission switches shader state less often.
	TransparencyHash uint32

	// VisibleThisFrame is written by the host visibility pass.
	VisibleThisFrame bool
}

// New creates a shadow-casting, culled instance with local bounds transformed
// by world.
func New(name string, m gpu.Mesh, world math.Mat4, localBounds math.AABB) *Instance {
	return &Instance{
		Name:       name,
		Mesh:       m,
		World:      world,
		Bounds:     localBounds.Transform(world),
		CastShadow: true,
		Cull:       true,
		Mask:       0xFFFFFFFF,
	}
}

// DepthDefs returns the defs the depth pass should honour. Alpha testing is
// dropped when the instance has no mask to test against.
func (i *Instance) DepthDefs() ShaderDefs {
	if i.AlphaMask == nil {
		return i.Defs &^ DefAlphaTest
	}
	return i.Defs
}

// Skinned reports whether the instance uses skinning.
func (i *Instance) Skinned() bool {
	return i.Defs&DefSkin != 0
}

// IsVisible reports whether the instance passes frustum culling. Instances
// with culling disabled are always visible.
func (i *Instance) IsVisible(f *math.Frustum) bool {
	if !i.Cull {
		return true
	}
	return f.IntersectsAABB(i.Bounds)
}

// DepthSortKey orders instances for depth-only passes: skinned instances
// first, then by transparency hash.
func (i *Instance) DepthSortKey() uint64 {
	var key uint64
	if !i.Skinned() {
		key = 1 << 32
	}
	return key | uint64(i.TransparencyHash)
}
