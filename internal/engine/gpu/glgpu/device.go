// Package glgpu implements gpu.Device on OpenGL 4.1 core.
package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/shader"
	"github.com/Faultbox/midgard-shadow/internal/logger"
	"github.com/Faultbox/midgard-shadow/pkg/math"
)

// Device is an OpenGL gpu.Device. It must be used on the thread that owns
// the GL context.
type Device struct {
	caps     gpu.Caps
	emptyVAO uint32
	log      *zap.Logger

	program  *shader.Program
	nextUnit int32

	preview previewPrograms
}

// New initializes OpenGL and creates the device.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d := &Device{log: logger.Named("gl")}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	d.log.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	// Core 4.1 renders to float and half-float colour targets and samples
	// depth textures with comparison.
	d.caps = gpu.Caps{FloatRenderable: true, HalfFloatRenderable: true, DepthCompare: true}

	gl.GenVertexArrays(1, &d.emptyVAO)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)

	return d, nil
}

// Close releases device-owned objects.
func (d *Device) Close() {
	d.destroyPreview()
	if d.emptyVAO != 0 {
		gl.DeleteVertexArrays(1, &d.emptyVAO)
		d.emptyVAO = 0
	}
}

func (d *Device) Caps() gpu.Caps { return d.caps }

func (d *Device) SetRenderTarget(rt gpu.RenderTarget) {
	if rt == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return
	}
	rt.(*target).bind()
}

func (d *Device) SetViewport(r gpu.Rect) {
	gl.Viewport(int32(r.X), int32(r.Y), int32(r.W), int32(r.H))
}

func (d *Device) SetScissor(r gpu.Rect) {
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(int32(r.X), int32(r.Y), int32(r.W), int32(r.H))
}

func (d *Device) Clear(opts gpu.ClearOptions) {
	var mask uint32
	if opts.ClearColor {
		gl.ClearColor(opts.Color[0], opts.Color[1], opts.Color[2], opts.Color[3])
		mask |= gl.COLOR_BUFFER_BIT
	}
	if opts.ClearDepth {
		gl.ClearDepthf(opts.Depth)
		gl.DepthMask(true)
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
}

func (d *Device) SetDepthBias(slope, constant float32) {
	if slope == 0 && constant == 0 {
		gl.Disable(gl.POLYGON_OFFSET_FILL)
		return
	}
	gl.Enable(gl.POLYGON_OFFSET_FILL)
	gl.PolygonOffset(slope, constant)
}

func (d *Device) SetColorWrite(r, g, b, a bool) {
	gl.ColorMask(r, g, b, a)
}

func (d *Device) SetDepthState(test, write bool) {
	if test {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(write)
}

func (d *Device) SetCullMode(mode gpu.CullMode) {
	switch mode {
	case gpu.CullBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	case gpu.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Disable(gl.CULL_FACE)
	}
}

func (d *Device) CompileShader(name, vertexSrc, fragmentSrc string) (gpu.Shader, error) {
	p, err := shader.Compile(name, vertexSrc, fragmentSrc)
	if err != nil {
		return nil, err
	}
	d.log.Debug("shader program created", zap.String("name", name), zap.Uint32("program", p.ID))
	return &program{p: p}, nil
}

func (d *Device) Draw(cmd gpu.DrawCommand) {
	m, ok := cmd.Mesh.(*Mesh)
	if !ok || m.indexCount == 0 {
		return
	}
	d.use(cmd.Shader, cmd.Uniforms)
	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func (d *Device) DrawFullscreen(s gpu.Shader, uniforms []gpu.Uniform) {
	d.use(s, uniforms)
	gl.BindVertexArray(d.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

// use binds the program and uploads uniforms. Textures take consecutive
// units starting at 0.
func (d *Device) use(s gpu.Shader, uniforms []gpu.Uniform) {
	p := s.(*program).p
	if d.program != p {
		p.Use()
		d.program = p
	}
	d.nextUnit = 0

	for _, u := range uniforms {
		loc := p.Location(u.Name)
		if loc < 0 {
			continue
		}
		d.setUniform(loc, u)
	}
}

func (d *Device) setUniform(loc int32, u gpu.Uniform) {
	switch v := u.Value.(type) {
	case float32:
		gl.Uniform1f(loc, v)
	case int32:
		gl.Uniform1i(loc, v)
	case math.Vec3:
		gl.Uniform3f(loc, v.X, v.Y, v.Z)
	case math.Vec4:
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	case math.Mat4:
		gl.UniformMatrix4fv(loc, 1, false, &v[0])
	case []float32:
		if len(v) == 0 {
			return
		}
		if isMatrixPalette(u.Name) {
			gl.UniformMatrix4fv(loc, int32(len(v)/16), false, &v[0])
		} else {
			gl.Uniform1fv(loc, int32(len(v)), &v[0])
		}
	case gpu.Texture:
		if v == nil {
			return
		}
		t := v.(*texture)
		gl.ActiveTexture(gl.TEXTURE0 + uint32(d.nextUnit))
		gl.BindTexture(t.glTarget(), t.id)
		gl.Uniform1i(loc, d.nextUnit)
		d.nextUnit++
	default:
		d.log.Warn("unsupported uniform type", zap.String("name", u.Name), zap.String("type", fmt.Sprintf("%T", v)))
	}
}

func isMatrixPalette(name string) bool {
	const suffix = "Palette"
	return len(name) >= len(suffix) && name[len(name)-len(suffix):] == suffix
}

type program struct {
	p *shader.Program
}

func (p *program) Name() string { return p.p.Name }

// Destroy deletes the GL program.
func (p *program) Destroy() { p.p.Destroy() }
