package shadow

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/logger"
)

// Buffer is a shadow texture and the render targets that draw into it.
type Buffer struct {
	ID      uuid.UUID
	Texture gpu.Texture

	// Cubemap buffers have one target per face.
	Cubemap bool
	// SharedAcrossFaces buffers have a single target addressed by every face
	// index. Atlas buffers are shared.
	SharedAcrossFaces bool

	// Requested is the filter the buffer was created for; Filter is the
	// filter actually stored after capability fallback.
	Requested  FilterType
	Filter     FilterType
	Resolution int
	// HardwareCompare is set when the texture is a depth texture sampled with
	// comparison. Such buffers have no colour output.
	HardwareCompare bool

	targets   []gpu.RenderTarget
	destroyed bool
}

// NewBuffer creates the shadow buffer for a light of the given kind: a
// cubemap for omni lights, a 2D map otherwise.
func NewBuffer(dev gpu.Device, kind LightKind, filter FilterType, resolution int) *Buffer {
	assertf(resolution > 0, "shadow: buffer resolution %d", resolution)
	cubemap := kind == KindOmni
	return newBuffer(dev, cubemap, false, filter, resolution)
}

// NewAtlasBuffer creates a 2D buffer whose single target is shared by all
// faces of the lights packed into it.
func NewAtlasBuffer(dev gpu.Device, resolution int, filter FilterType) *Buffer {
	assertf(resolution > 0, "shadow: atlas resolution %d", resolution)
	return newBuffer(dev, false, true, filter, resolution)
}

func newBuffer(dev gpu.Device, cubemap, shared bool, requested FilterType, resolution int) *Buffer {
	caps := dev.Caps()
	filter := resolveFilter(caps, requested)
	format, compare := BufferFormat(caps, cubemap, filter)

	b := &Buffer{
		ID:                uuid.New(),
		Cubemap:           cubemap,
		SharedAcrossFaces: shared,
		Requested:         requested,
		Filter:            filter,
		Resolution:        resolution,
		HardwareCompare:   compare,
	}

	kind := gpu.Texture2D
	if cubemap {
		kind = gpu.TextureCube
	}
	b.Texture = dev.CreateTexture(gpu.TextureDesc{
		Name:    fmt.Sprintf("shadow-%s", b.ID.String()[:8]),
		Kind:    kind,
		Size:    resolution,
		Format:  format,
		Compare: compare,
		Linear:  compare || filter.IsVSM(),
	})

	if cubemap {
		b.targets = make([]gpu.RenderTarget, gpu.CubeFaces)
		for face := range b.targets {
			b.targets[face] = dev.CreateRenderTarget(b.Texture, face)
		}
	} else {
		b.targets = []gpu.RenderTarget{dev.CreateRenderTarget(b.Texture, 0)}
	}

	logger.Named("shadow").Debug("shadow buffer created",
		zap.String("id", b.ID.String()),
		zap.Bool("cubemap", cubemap),
		zap.Bool("shared", shared),
		zap.Stringer("filter", filter),
		zap.Stringer("format", format),
		zap.Int("resolution", resolution))
	return b
}

// resolveFilter downgrades VSM precision to what the device can render into.
func resolveFilter(caps gpu.Caps, f FilterType) FilterType {
	resolved := f
	if resolved == FilterVSM32F && !caps.FloatRenderable {
		resolved = FilterVSM16F
	}
	if resolved == FilterVSM16F && !caps.HalfFloatRenderable {
		resolved = FilterVSM8
	}
	if resolved != f {
		logger.Named("shadow").Debug("shadow filter downgraded",
			zap.Stringer("requested", f), zap.Stringer("resolved", resolved))
	}
	return resolved
}

// BufferFormat picks the texture format for a resolved filter. Without
// hardware comparison, PCF1 and PCF3 (and omni cubemaps) encode depth into
// RGBA8; PCF5 and PCSS always store raw depth.
func BufferFormat(caps gpu.Caps, cubemap bool, f FilterType) (gpu.Format, bool) {
	info := f.Info()
	switch {
	case info.VSM:
		return info.Format, false
	case info.PCSS:
		return info.Format, false
	case cubemap, info.Taps <= 3:
		if caps.DepthCompare {
			return info.Format, true
		}
		return gpu.FormatRGBA8, false
	default:
		return info.Format, caps.DepthCompare
	}
}

// Target returns the render target for a face. Shared buffers return the
// same target for every face.
func (b *Buffer) Target(face int) gpu.RenderTarget {
	if b.SharedAcrossFaces || !b.Cubemap {
		return b.targets[0]
	}
	assertf(face >= 0 && face < len(b.targets), "shadow: face %d out of range", face)
	return b.targets[face]
}

// TargetCount returns the number of distinct render targets.
func (b *Buffer) TargetCount() int { return len(b.targets) }

// Key returns the pool key the buffer was created for.
func (b *Buffer) Key() PoolKey {
	return PoolKey{Cubemap: b.Cubemap, Filter: b.Requested, Resolution: b.Resolution}
}

// Matches reports whether the buffer can serve a light with the given key.
func (b *Buffer) Matches(key PoolKey) bool {
	return !b.SharedAcrossFaces && !b.destroyed && b.Key() == key
}

// Destroyed reports whether Destroy was called.
func (b *Buffer) Destroyed() bool { return b.destroyed }

// Destroy releases the render targets and the texture. Calling it twice is a
// no-op.
func (b *Buffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	for _, t := range b.targets {
		t.Destroy()
	}
	b.targets = nil
	b.Texture.Destroy()
}
