// Package framebuffer provides OpenGL framebuffer objects that render into
// existing textures.
package framebuffer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Attachment describes the texture image a framebuffer renders into.
type Attachment struct {
	Texture uint32
	// Target is gl.TEXTURE_2D or one of gl.TEXTURE_CUBE_MAP_POSITIVE_X + face.
	Target uint32
	Size   int32
	// Depth attaches the texture as the depth buffer with no colour output.
	// Otherwise it is the colour buffer and a depth renderbuffer is added.
	Depth bool
}

// Framebuffer manages an offscreen render target.
type Framebuffer struct {
	fbo      uint32
	depthRBO uint32
	att      Attachment
}

// New creates a framebuffer rendering into the attachment.
func New(att Attachment) (*Framebuffer, error) {
	if att.Size < 1 {
		att.Size = 1
	}

	fb := &Framebuffer{att: att}
	if err := fb.create(); err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}

	return fb, nil
}

func (fb *Framebuffer) create() error {
	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)

	if fb.att.Depth {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, fb.att.Target, fb.att.Texture, 0)
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
	} else {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, fb.att.Target, fb.att.Texture, 0)

		gl.GenRenderbuffers(1, &fb.depthRBO)
		gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depthRBO)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, fb.att.Size, fb.att.Size)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, fb.depthRBO)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	if status != gl.FRAMEBUFFER_COMPLETE {
		fb.Destroy()
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

// Bind makes this framebuffer the current render target.
func (fb *Framebuffer) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
}

// Unbind restores the default framebuffer.
func (fb *Framebuffer) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// FBO returns the underlying framebuffer object ID.
func (fb *Framebuffer) FBO() uint32 {
	return fb.fbo
}

// Size returns the framebuffer edge length.
func (fb *Framebuffer) Size() int32 {
	return fb.att.Size
}

// Destroy releases the framebuffer and its depth renderbuffer. The attached
// texture belongs to the caller.
func (fb *Framebuffer) Destroy() {
	if fb.fbo != 0 {
		gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
	if fb.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &fb.depthRBO)
		fb.depthRBO = 0
	}
}
