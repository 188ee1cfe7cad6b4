package glgpu

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shadow/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
)

type texture struct {
	id   uint32
	desc gpu.TextureDesc
}

func (t *texture) Desc() gpu.TextureDesc { return t.desc }

// ID returns the GL texture name.
func (t *texture) ID() uint32 { return t.id }

func (t *texture) Destroy() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

func (t *texture) glTarget() uint32 {
	if t.desc.Kind == gpu.TextureCube {
		return gl.TEXTURE_CUBE_MAP
	}
	return gl.TEXTURE_2D
}

// glFormat returns internal format, pixel format and component type.
func glFormat(f gpu.Format) (int32, uint32, uint32) {
	switch f {
	case gpu.FormatRGBA16F:
		return gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT
	case gpu.FormatRGBA32F:
		return gl.RGBA32F, gl.RGBA, gl.FLOAT
	case gpu.FormatDepth16:
		return gl.DEPTH_COMPONENT16, gl.DEPTH_COMPONENT, gl.UNSIGNED_SHORT
	case gpu.FormatDepth24:
		return gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.UNSIGNED_INT
	case gpu.FormatDepth32F:
		return gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT
	default:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	}
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) gpu.Texture {
	t := &texture{desc: desc}
	target := t.glTarget()
	internal, format, typ := glFormat(desc.Format)
	size := int32(desc.Size)

	gl.GenTextures(1, &t.id)
	gl.BindTexture(target, t.id)

	if desc.Kind == gpu.TextureCube {
		for face := uint32(0); face < gpu.CubeFaces; face++ {
			gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face, 0, internal, size, size, 0, format, typ, nil)
		}
		gl.TexParameteri(target, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	} else {
		gl.TexImage2D(target, 0, internal, size, size, 0, format, typ, nil)
	}

	filter := int32(gl.NEAREST)
	if desc.Linear {
		filter = gl.LINEAR
	}
	gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	if desc.Compare && desc.Format.IsDepth() {
		gl.TexParameteri(target, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		gl.TexParameteri(target, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)
	}

	gl.BindTexture(target, 0)

	d.log.Debug("texture created",
		zap.String("name", desc.Name),
		zap.Stringer("format", desc.Format),
		zap.Int("size", desc.Size),
	)
	return t
}

type target struct {
	tex  *texture
	face int
	fb   *framebuffer.Framebuffer
}

func (t *target) Texture() gpu.Texture { return t.tex }
func (t *target) Face() int            { return t.face }

func (t *target) bind() {
	if t.fb == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return
	}
	t.fb.Bind()
}

func (t *target) Destroy() {
	if t.fb != nil {
		t.fb.Destroy()
		t.fb = nil
	}
}

// CreateRenderTarget wraps a framebuffer around one face of the texture. An
// incomplete framebuffer is logged and the target falls back to the default
// framebuffer.
func (d *Device) CreateRenderTarget(tex gpu.Texture, face int) gpu.RenderTarget {
	t := tex.(*texture)
	rt := &target{tex: t, face: face}

	attachTarget := uint32(gl.TEXTURE_2D)
	if t.desc.Kind == gpu.TextureCube {
		attachTarget = gl.TEXTURE_CUBE_MAP_POSITIVE_X + uint32(face)
	}

	fb, err := framebuffer.New(framebuffer.Attachment{
		Texture: t.id,
		Target:  attachTarget,
		Size:    int32(t.desc.Size),
		Depth:   t.desc.Format.IsDepth(),
	})
	if err != nil {
		d.log.Error("render target unavailable",
			zap.String("texture", t.desc.Name),
			zap.Int("face", face),
			zap.Error(err),
		)
		return rt
	}
	rt.fb = fb
	return rt
}
