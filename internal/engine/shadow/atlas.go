package shadow

import (
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/logger"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

// omniAtlasGrid is the sub-grid an omni light splits its atlas slot into.
// Six of the nine cells hold cube faces.
const omniAtlasGrid = 3

// Atlas packs the shadows of visible local lights into one shared buffer
// divided into a square grid of slots. Slots are reassigned every frame.
type Atlas struct {
	Resolution int
	// EdgePixels widens omni face FOVs so filtering stays inside the tile.
	EdgePixels int
	Filter     FilterType

	dev      gpu.Device
	buffer   *Buffer
	gridSize int
	slots    []math.Vec4
	version  int
	lights   []*Light
	log      *zap.Logger
}

// NewAtlas creates an atlas. The buffer is allocated on first use.
func NewAtlas(dev gpu.Device, resolution, edgePixels int, filter FilterType) *Atlas {
	return &Atlas{
		Resolution: resolution,
		EdgePixels: edgePixels,
		Filter:     filter,
		dev:        dev,
		log:        logger.Named("shadow.atlas"),
	}
}

// Buffer returns the shared buffer, or nil before the first Update with
// visible lights.
func (a *Atlas) Buffer() *Buffer { return a.buffer }

// Slots returns the current slot rectangles.
func (a *Atlas) Slots() []math.Vec4 { return a.slots }

// GridSize returns the current slots per row.
func (a *Atlas) GridSize() int { return a.gridSize }

// Version changes whenever slot rectangles or the shared buffer change.
func (a *Atlas) Version() int { return a.version }

// Subdivide lays out ceil(sqrt(n))² equal slots. The layout is kept when
// the grid size does not change.
func (a *Atlas) Subdivide(n int) {
	gridSize := int(gomath.Ceil(gomath.Sqrt(float64(max(n, 1)))))
	if gridSize == a.gridSize {
		return
	}

	a.gridSize = gridSize
	a.version++
	a.slots = a.slots[:0]

	size := 1 / float32(gridSize)
	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			a.slots = append(a.slots, math.Vec4{float32(i) * size, float32(j) * size, size, size})
		}
	}

	a.log.Debug("atlas subdivided", zap.Int("grid", gridSize), zap.Int("lights", n))
}

// Update assigns slots to the visible shadow-casting spot and omni lights,
// spots first, each list in order. Lights whose slot moved get
// AtlasSlotUpdated, and are promoted to a single update if their UpdateMode
// is UpdateNever.
func (a *Atlas) Update(spots, omnis []*Light) {
	a.lights = a.lights[:0]
	a.collect(spots)
	a.collect(omnis)
	if len(a.lights) == 0 {
		return
	}

	a.ensureBuffer()
	a.Subdivide(len(a.lights))

	for i, l := range a.lights {
		slot := a.slots[i]

		l.ShadowMap = a.buffer
		l.AtlasViewportAllocated = true
		l.AtlasSlotUpdated = l.AtlasSlotIndex != i || l.atlasVersion != a.version
		l.AtlasSlotIndex = i
		l.atlasVersion = a.version

		for face := 0; face < l.NumFaces(); face++ {
			rd := l.RenderData(nil, face)
			rd.Viewport = faceSlot(slot, l.Kind, face)
			rd.Scissor = rd.Viewport
		}

		if l.AtlasSlotUpdated && l.UpdateMode == UpdateNever {
			l.UpdateMode = UpdateThisFrame
		}
	}
}

func (a *Atlas) collect(lights []*Light) {
	for _, l := range lights {
		if l.Enabled && l.CastShadows && l.VisibleThisFrame {
			a.lights = append(a.lights, l)
			continue
		}
		if l.AtlasViewportAllocated {
			l.AtlasViewportAllocated = false
			l.AtlasSlotIndex = -1
			if l.ShadowMap == a.buffer {
				l.ShadowMap = nil
			}
		}
	}
}

func (a *Atlas) ensureBuffer() {
	if a.buffer != nil && a.buffer.Resolution == a.Resolution && a.buffer.Requested == a.Filter {
		return
	}
	if a.buffer != nil {
		a.buffer.Destroy()
	}
	a.buffer = NewAtlasBuffer(a.dev, a.Resolution, a.Filter)
	a.version++
	a.log.Info("atlas buffer allocated",
		zap.Int("resolution", a.Resolution),
		zap.Stringer("filter", a.buffer.Filter))
}

// faceSlot returns the viewport of one face inside a light's slot.
func faceSlot(slot math.Vec4, kind LightKind, face int) math.Vec4 {
	if kind != KindOmni {
		return slot
	}
	size := slot[2] / omniAtlasGrid
	col := face % omniAtlasGrid
	row := face / omniAtlasGrid
	return math.Vec4{slot[0] + float32(col)*size, slot[1] + float32(row)*size, size, size}
}

// Destroy releases the shared buffer.
func (a *Atlas) Destroy() {
	if a.buffer != nil {
		a.buffer.Destroy()
		a.buffer = nil
	}
	a.gridSize = 0
	a.slots = nil
}
