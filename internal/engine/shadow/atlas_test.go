package shadow

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu/gputest"
	"github.com/Faultbox/midgard-shadow/internal/engine/mesh"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

func TestSubdivideTilesUnitSquare(t *testing.T) {
	for n := 1; n <= 40; n++ {
		a := NewAtlas(gputest.New(), 2048, 3, FilterPCF3F32)
		a.Subdivide(n)

		grid := int(gomath.Ceil(gomath.Sqrt(float64(n))))
		require.Len(t, a.Slots(), grid*grid, "n=%d", n)

		size := 1 / float32(grid)
		var area float32
		seen := map[[2]int]bool{}
		for _, s := range a.Slots() {
			assert.InDelta(t, size, s[2], 1e-6)
			assert.InDelta(t, size, s[3], 1e-6)
			assert.GreaterOrEqual(t, s[0], float32(0))
			assert.GreaterOrEqual(t, s[1], float32(0))
			assert.LessOrEqual(t, s[0]+s[2], float32(1)+1e-5)
			assert.LessOrEqual(t, s[1]+s[3], float32(1)+1e-5)

			cell := [2]int{int(gomath.Round(float64(s[0] / size))), int(gomath.Round(float64(s[1] / size)))}
			assert.False(t, seen[cell], "n=%d: overlapping slot at %v", n, cell)
			seen[cell] = true
			area += s[2] * s[3]
		}
		assert.InDelta(t, 1, area, 1e-4, "n=%d", n)
	}
}

func TestSubdivideFive(t *testing.T) {
	a := NewAtlas(gputest.New(), 2048, 3, FilterPCF3F32)
	a.Subdivide(5)

	assert.Equal(t, 3, a.GridSize())
	assert.Len(t, a.Slots(), 9)
	assert.InDelta(t, 1.0/3, a.Slots()[0][2], 1e-6)
}

func TestSubdivideRebuildsOnlyOnGridChange(t *testing.T) {
	a := NewAtlas(gputest.New(), 2048, 3, FilterPCF3F32)
	a.Subdivide(5)
	v := a.Version()

	a.Subdivide(7)
	assert.Equal(t, v, a.Version(), "5 and 7 lights share a 3x3 grid")

	a.Subdivide(10)
	assert.Equal(t, v+1, a.Version())
	assert.Equal(t, 4, a.GridSize())
}

func TestAtlasUpdateAssignsSlots(t *testing.T) {
	r := newAtlasRig()
	a := r.atlas

	s1 := visibleSpot("s1", math.Vec3{})
	s2 := visibleSpot("s2", math.Vec3{X: 5})
	hidden := NewSpot("hidden")
	o := visibleOmni("o", math.Vec3{Y: 3})

	a.Update([]*Light{s1, hidden, s2}, []*Light{o})

	require.NotNil(t, a.Buffer())
	assert.True(t, a.Buffer().SharedAcrossFaces)
	assert.Equal(t, 2, a.GridSize())

	assert.Same(t, a.Buffer(), s1.ShadowMap)
	assert.Same(t, a.Buffer(), s2.ShadowMap)
	assert.Same(t, a.Buffer(), o.ShadowMap)
	assert.Nil(t, hidden.ShadowMap)
	assert.False(t, hidden.AtlasViewportAllocated)

	assert.Equal(t, 0, s1.AtlasSlotIndex)
	assert.Equal(t, 1, s2.AtlasSlotIndex)
	assert.Equal(t, 2, o.AtlasSlotIndex)
	assert.Equal(t, a.Slots()[1], s2.RenderData(nil, 0).Viewport)

	// Omni faces are distinct cells inside the light's slot.
	slot := a.Slots()[2]
	seen := map[math.Vec4]bool{}
	for face := 0; face < 6; face++ {
		vp := o.RenderData(nil, face).Viewport
		assert.False(t, seen[vp], "face %d reuses a cell", face)
		seen[vp] = true
		assert.InDelta(t, slot[2]/3, vp[2], 1e-6)
		assert.GreaterOrEqual(t, vp[0], slot[0])
		assert.LessOrEqual(t, vp[0]+vp[2], slot[0]+slot[2]+1e-6)
		assert.GreaterOrEqual(t, vp[1], slot[1])
		assert.LessOrEqual(t, vp[1]+vp[3], slot[1]+slot[3]+1e-6)
	}
}

func TestAtlasNoVisibleLightsAllocatesNothing(t *testing.T) {
	dev := gputest.New()
	a := NewAtlas(dev, 2048, 3, FilterPCF3F32)

	a.Update([]*Light{NewSpot("off")}, nil)

	assert.Nil(t, a.Buffer())
	assert.Empty(t, dev.Textures)
}

func TestAtlasSlotChangeForcesRender(t *testing.T) {
	r := newAtlasRig()
	casters := []*mesh.Instance{box("crate", math.Vec3{Y: -3}, 1)}

	a := visibleSpot("a", math.Vec3{X: -4})
	b := visibleSpot("b", math.Vec3{})
	c := visibleSpot("c", math.Vec3{X: 4})
	spots := []*Light{a, b, c}

	r.frame(spots, nil, casters)
	require.Equal(t, 1, b.AtlasSlotIndex)
	b.UpdateMode = UpdateNever

	// Same grid, but b moves from slot 1 to slot 0.
	a.VisibleThisFrame = false
	r.dev.Reset()
	r.frame(spots, nil, casters)

	assert.Equal(t, 0, b.AtlasSlotIndex)
	assert.Equal(t, 2, r.atlas.GridSize())
	slot0 := gpu.RectFromNormalized(r.atlas.Slots()[0], r.atlas.Resolution)
	var drawnIntoSlot0 bool
	for _, d := range r.dev.Draws {
		drawnIntoSlot0 = drawnIntoSlot0 || d.Viewport == slot0
	}
	assert.True(t, drawnIntoSlot0, "moved slot must be re-rendered")
	assert.Equal(t, UpdateNever, b.UpdateMode, "promotion lasts one frame")
	assert.False(t, b.AtlasSlotUpdated)

	// Nothing moves; b stays cached.
	c.UpdateMode = UpdateNever
	r.dev.Reset()
	r.frame(spots, nil, casters)
	assert.Empty(t, r.dev.Draws)
}

func TestAtlasOmniFieldOfViewWidened(t *testing.T) {
	r := newAtlasRig()
	o := visibleOmni("o", math.Vec3{})

	r.atlas.Update(nil, []*Light{o})
	r.culler.Cull(o, nil, nil)

	// 4096 texel atlas, one slot, faces a third of it wide, 3 edge texels.
	tile := float64(4096) / 3
	want := 2 * float64(math.RadToDeg(float32(gomath.Atan(1+2/tile*3))))
	for face := 0; face < 6; face++ {
		fov := o.RenderData(nil, face).Camera.FOV
		assert.InDelta(t, want, fov, 1e-3)
		assert.Greater(t, fov, float32(90))
	}
}

func TestAtlasDestroy(t *testing.T) {
	dev := gputest.New()
	a := NewAtlas(dev, 1024, 3, FilterPCF3F32)
	a.Update([]*Light{visibleSpot("s", math.Vec3{})}, nil)
	require.Equal(t, 1, dev.LiveTextures())

	a.Destroy()
	assert.Equal(t, 0, dev.LiveTextures())
	assert.Nil(t, a.Buffer())
}
