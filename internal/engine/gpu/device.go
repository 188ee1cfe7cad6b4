// Package gpu defines the narrow GPU device contract the shadow renderer is
// written against. Implementations live in subpackages.
package gpu

import "github.com/Faultbox/midgard-shadow/pkg/math"

// Format is a texture pixel format.
type Format int

// Texture formats used by shadow buffers.
const (
	FormatRGBA8 Format = iota
	FormatRGBA16F
	FormatRGBA32F
	FormatDepth16
	FormatDepth24
	FormatDepth32F
)

// IsDepth reports whether the format is a depth format.
func (f Format) IsDepth() bool {
	return f == FormatDepth16 || f == FormatDepth24 || f == FormatDepth32F
}

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "rgba8"
	case FormatRGBA16F:
		return "rgba16f"
	case FormatRGBA32F:
		return "rgba32f"
	case FormatDepth16:
		return "depth16"
	case FormatDepth24:
		return "depth24"
	case FormatDepth32F:
		return "depth32f"
	}
	return "unknown"
}

// TextureKind distinguishes 2D textures from cubemaps.
type TextureKind int

const (
	Texture2D TextureKind = iota
	TextureCube
)

// CubeFaces is the number of faces in a cubemap.
const CubeFaces = 6

// TextureDesc describes a texture to create.
type TextureDesc struct {
	Name   string
	Kind   TextureKind
	Size   int // width = height
	Format Format
	// Compare enables hardware depth comparison sampling (PCF).
	Compare bool
	// Linear selects linear filtering, nearest otherwise.
	Linear bool
}

// Caps reports device capabilities relevant to shadow formats.
type Caps struct {
	FloatRenderable     bool // RGBA32F color targets
	HalfFloatRenderable bool // RGBA16F color targets
	DepthCompare        bool // depth textures with hardware comparison
}

// Texture is a GPU texture.
type Texture interface {
	Desc() TextureDesc
	Destroy()
}

// RenderTarget is a framebuffer view onto a texture (one cubemap face or a
// whole 2D texture).
type RenderTarget interface {
	Texture() Texture
	Face() int
	Destroy()
}

// Shader is a compiled GPU program.
type Shader interface {
	Name() string
}

// Mesh is renderable geometry owned by the host.
type Mesh interface {
	IndexCount() int
}

// Rect is a pixel rectangle with origin at the bottom-left.
type Rect struct {
	X, Y, W, H int
}

// RectFromNormalized scales a normalized (x, y, w, h) rectangle to pixels.
func RectFromNormalized(r math.Vec4, size int) Rect {
	s := float32(size)
	return Rect{
		X: int(r[0] * s),
		Y: int(r[1] * s),
		W: int(r[2] * s),
		H: int(r[3] * s),
	}
}

// ClearOptions selects which buffers to clear and to what.
type ClearOptions struct {
	Color      [4]float32
	Depth      float32
	ClearColor bool
	ClearDepth bool
}

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// Uniform is a named shader parameter. Value is one of float32, int32,
// math.Vec3, math.Vec4, math.Mat4, []float32, or Texture.
type Uniform struct {
	Name  string
	Value any
}

// DrawCommand submits one mesh with a shader.
type DrawCommand struct {
	Mesh     Mesh
	Shader   Shader
	Uniforms []Uniform
}

// Device is the GPU service consumed by the shadow subsystem.
type Device interface {
	Caps() Caps

	CreateTexture(desc TextureDesc) Texture
	// CreateRenderTarget creates a target rendering into the given cubemap
	// face (0 for 2D textures).
	CreateRenderTarget(tex Texture, face int) RenderTarget

	SetRenderTarget(rt RenderTarget)
	SetViewport(r Rect)
	// SetScissor enables the scissor test with the rectangle.
	SetScissor(r Rect)
	Clear(opts ClearOptions)

	// SetDepthBias enables polygon offset; zero values disable it.
	SetDepthBias(slope, constant float32)
	SetColorWrite(r, g, b, a bool)
	SetDepthState(test, write bool)
	SetCullMode(mode CullMode)

	CompileShader(name, vertexSrc, fragmentSrc string) (Shader, error)
	Draw(cmd DrawCommand)
	// DrawFullscreen draws a screen-covering triangle with the shader.
	DrawFullscreen(shader Shader, uniforms []Uniform)
}
