// Package gputest provides an in-memory gpu.Device that records every call.
// Tests assert against the recording; the headless planner uses it to run the
// shadow pipeline without a GL context.
package gputest

import (
	"fmt"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
)

// Texture is a recorded texture.
type Texture struct {
	ID        int
	desc      gpu.TextureDesc
	Destroyed int
}

func (t *Texture) Desc() gpu.TextureDesc { return t.desc }
func (t *Texture) Destroy()              { t.Destroyed++ }

// Target is a recorded render target.
type Target struct {
	ID        int
	tex       *Texture
	face      int
	Destroyed int
}

func (t *Target) Texture() gpu.Texture { return t.tex }
func (t *Target) Face() int            { return t.face }
func (t *Target) Destroy()             { t.Destroyed++ }

// Shader is a recorded shader program.
type Shader struct {
	name         string
	Vertex, Frag string
}

func (s *Shader) Name() string { return s.name }

// Mesh is a stand-in mesh with a fixed index count.
type Mesh struct {
	Indices int
}

func (m *Mesh) IndexCount() int { return m.Indices }

// Draw is one recorded draw call with the state active at submission.
type Draw struct {
	Target     *Target
	Viewport   gpu.Rect
	Scissor    gpu.Rect
	Shader     gpu.Shader
	Mesh       gpu.Mesh
	Uniforms   []gpu.Uniform
	Fullscreen bool
	BiasSlope  float32
	BiasConst  float32
	ColorWrite bool
}

// Uniform returns the named uniform value, or nil.
func (d Draw) Uniform(name string) any {
	for _, u := range d.Uniforms {
		if u.Name == name {
			return u.Value
		}
	}
	return nil
}

// Device records calls. The zero value reports no capabilities; use New for
// a fully capable device.
type Device struct {
	DeviceCaps gpu.Caps

	Textures []*Texture
	Targets  []*Target
	Shaders  []*Shader
	Draws    []Draw
	Clears   int
	// FailShaders makes CompileShader return an error.
	FailShaders bool

	target     *Target
	viewport   gpu.Rect
	scissor    gpu.Rect
	biasSlope  float32
	biasConst  float32
	colorWrite bool
	nextID     int
}

// New returns a device with every capability enabled.
func New() *Device {
	return &Device{
		DeviceCaps: gpu.Caps{FloatRenderable: true, HalfFloatRenderable: true, DepthCompare: true},
		colorWrite: true,
	}
}

func (d *Device) Caps() gpu.Caps { return d.DeviceCaps }

func (d *Device) CreateTexture(desc gpu.TextureDesc) gpu.Texture {
	d.nextID++
	t := &Texture{ID: d.nextID, desc: desc}
	d.Textures = append(d.Textures, t)
	return t
}

func (d *Device) CreateRenderTarget(tex gpu.Texture, face int) gpu.RenderTarget {
	d.nextID++
	t := &Target{ID: d.nextID, tex: tex.(*Texture), face: face}
	d.Targets = append(d.Targets, t)
	return t
}

func (d *Device) SetRenderTarget(rt gpu.RenderTarget) {
	if rt == nil {
		d.target = nil
		return
	}
	d.target = rt.(*Target)
}

func (d *Device) SetViewport(r gpu.Rect) { d.viewport = r }
func (d *Device) SetScissor(r gpu.Rect)  { d.scissor = r }
func (d *Device) Clear(gpu.ClearOptions) { d.Clears++ }

func (d *Device) SetDepthBias(slope, constant float32) {
	d.biasSlope, d.biasConst = slope, constant
}

func (d *Device) SetColorWrite(r, g, b, a bool) { d.colorWrite = r || g || b || a }
func (d *Device) SetDepthState(bool, bool)      {}
func (d *Device) SetCullMode(gpu.CullMode)      {}

func (d *Device) CompileShader(name, vertexSrc, fragmentSrc string) (gpu.Shader, error) {
	if d.FailShaders {
		return nil, fmt.Errorf("compile %s: rejected by test device", name)
	}
	s := &Shader{name: name, Vertex: vertexSrc, Frag: fragmentSrc}
	d.Shaders = append(d.Shaders, s)
	return s, nil
}

func (d *Device) Draw(cmd gpu.DrawCommand) {
	d.Draws = append(d.Draws, d.record(cmd.Shader, cmd.Mesh, cmd.Uniforms, false))
}

func (d *Device) DrawFullscreen(shader gpu.Shader, uniforms []gpu.Uniform) {
	d.Draws = append(d.Draws, d.record(shader, nil, uniforms, true))
}

func (d *Device) record(s gpu.Shader, m gpu.Mesh, u []gpu.Uniform, fullscreen bool) Draw {
	return Draw{
		Target:     d.target,
		Viewport:   d.viewport,
		Scissor:    d.scissor,
		Shader:     s,
		Mesh:       m,
		Uniforms:   append([]gpu.Uniform(nil), u...),
		Fullscreen: fullscreen,
		BiasSlope:  d.biasSlope,
		BiasConst:  d.biasConst,
		ColorWrite: d.colorWrite,
	}
}

// Reset drops recorded draws and clears, keeping resources.
func (d *Device) Reset() {
	d.Draws = d.Draws[:0]
	d.Clears = 0
}

// FullscreenDraws returns the recorded fullscreen draws.
func (d *Device) FullscreenDraws() []Draw {
	var out []Draw
	for _, dr := range d.Draws {
		if dr.Fullscreen {
			out = append(out, dr)
		}
	}
	return out
}

// LiveTextures counts textures not yet destroyed.
func (d *Device) LiveTextures() int {
	n := 0
	for _, t := range d.Textures {
		if t.Destroyed == 0 {
			n++
		}
	}
	return n
}
