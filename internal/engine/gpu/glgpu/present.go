package glgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/shader"
	"github.com/Faultbox/midgard-shadow/internal/engine/shadow/shaders"
)

const preview2DFragment = `
in vec2 vUv;
uniform sampler2D uMap;
uniform vec4 uRange;
out vec4 fragColor;

void main() {
    float v = texture(uMap, vUv).r;
    fragColor = vec4(vec3((v - uRange.x) * uRange.y), 1.0);
}
`

// Faces are laid out in a 3x2 grid: +X -X +Y on the bottom row.
const previewCubeFragment = `
in vec2 vUv;
uniform samplerCube uMap;
uniform vec4 uRange;
out vec4 fragColor;

void main() {
    vec2 grid = vUv * vec2(3.0, 2.0);
    int face = int(floor(grid.x)) + 3 * int(floor(grid.y));
    vec2 st = fract(grid) * 2.0 - 1.0;
    vec3 dir;
    if (face == 0)      dir = vec3( 1.0, -st.y, -st.x);
    else if (face == 1) dir = vec3(-1.0, -st.y,  st.x);
    else if (face == 2) dir = vec3( st.x,  1.0,  st.y);
    else if (face == 3) dir = vec3( st.x, -1.0, -st.y);
    else if (face == 4) dir = vec3( st.x, -st.y,  1.0);
    else                dir = vec3(-st.x, -st.y, -1.0);
    float v = texture(uMap, dir).r;
    fragColor = vec4(vec3((v - uRange.x) * uRange.y), 1.0);
}
`

type previewPrograms struct {
	flat, cube *shader.Program
	failed     bool
}

func (d *Device) previewProgram(cube bool) *shader.Program {
	if d.preview.failed {
		return nil
	}
	if d.preview.flat == nil {
		vert := shaders.Version + shaders.FullscreenVertexShader
		flat, err := shader.Compile("preview-2d", vert, shaders.Version+preview2DFragment)
		if err == nil {
			var cubeProg *shader.Program
			cubeProg, err = shader.Compile("preview-cube", vert, shaders.Version+previewCubeFragment)
			if err != nil {
				flat.Destroy()
			} else {
				d.preview.flat, d.preview.cube = flat, cubeProg
			}
		}
		if err != nil {
			d.log.Error("preview shaders unavailable", zap.Error(err))
			d.preview.failed = true
			return nil
		}
	}
	if cube {
		return d.preview.cube
	}
	return d.preview.flat
}

// Present draws a greyscale view of the texture's first channel into the
// rectangle of the default framebuffer. Cubemaps show all six faces. Values
// are remapped as (v - lo) / (hi - lo).
func (d *Device) Present(tex gpu.Texture, r gpu.Rect, lo, hi float32) {
	t, ok := tex.(*texture)
	if !ok || t.id == 0 {
		return
	}
	p := d.previewProgram(t.desc.Kind == gpu.TextureCube)
	if p == nil {
		return
	}

	scale := float32(1)
	if hi > lo {
		scale = 1 / (hi - lo)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Disable(gl.SCISSOR_TEST)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.ColorMask(true, true, true, true)
	gl.Viewport(int32(r.X), int32(r.Y), int32(r.W), int32(r.H))

	bind := t.glTarget()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(bind, t.id)
	// Compare sampling would return 0 or 1; read raw depth instead.
	if t.desc.Compare && t.desc.Format.IsDepth() {
		gl.TexParameteri(bind, gl.TEXTURE_COMPARE_MODE, gl.NONE)
		defer gl.TexParameteri(bind, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	}

	p.Use()
	d.program = p
	gl.Uniform1i(p.Location("uMap"), 0)
	gl.Uniform4f(p.Location("uRange"), lo, scale, 0, 0)

	gl.BindVertexArray(d.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	gl.Enable(gl.DEPTH_TEST)
}

// ReadChannel returns the first channel of one texture face as floats, row
// by row from the bottom.
func (d *Device) ReadChannel(tex gpu.Texture, face int) ([]float32, error) {
	t, ok := tex.(*texture)
	if !ok || t.id == 0 {
		return nil, fmt.Errorf("texture not readable")
	}
	size := t.desc.Size
	pixels := make([]float32, size*size)

	format := uint32(gl.RED)
	if t.desc.Format.IsDepth() {
		format = gl.DEPTH_COMPONENT
	}
	bind := t.glTarget()
	image := bind
	if t.desc.Kind == gpu.TextureCube {
		if face < 0 || face >= gpu.CubeFaces {
			return nil, fmt.Errorf("cube face %d out of range", face)
		}
		image = gl.TEXTURE_CUBE_MAP_POSITIVE_X + uint32(face)
	}

	gl.BindTexture(bind, t.id)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
	gl.GetTexImage(image, 0, format, gl.FLOAT, unsafe.Pointer(&pixels[0]))
	gl.BindTexture(bind, 0)

	if e := gl.GetError(); e != gl.NO_ERROR {
		return nil, fmt.Errorf("reading %s: GL error 0x%x", t.desc.Name, e)
	}
	return pixels, nil
}

func (d *Device) destroyPreview() {
	if d.preview.flat != nil {
		d.preview.flat.Destroy()
		d.preview.cube.Destroy()
		d.preview.flat, d.preview.cube = nil, nil
	}
}
