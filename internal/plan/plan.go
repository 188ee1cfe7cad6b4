// Package plan simulates shadow frames on a recording device and reports
// what each light was given: buffers, atlas slots, cascades and states.
package plan

import (
	"fmt"
	"io"
	"text/tabwriter"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu/gputest"
	"github.com/Faultbox/midgard-shadow/internal/engine/renderer"
	"github.com/Faultbox/midgard-shadow/internal/engine/scene"
	"github.com/Faultbox/midgard-shadow/internal/engine/shadow"
	"github.com/Faultbox/midgard-shadow/internal/logger"
)

// Light is one light's shadow setup after a frame.
type Light struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	State  string `yaml:"state"`
	Filter string `yaml:"filter,omitempty"` // stored after fallback
	Format string `yaml:"format,omitempty"`

	Resolution int       `yaml:"resolution,omitempty"`
	AtlasSlot  int       `yaml:"atlas_slot"`
	Faces      int       `yaml:"faces,omitempty"`
	Cascades   []float32 `yaml:"cascades,omitempty"`
	// Cameras counts the cameras that received uniforms for the light.
	Cameras int `yaml:"cameras"`
}

// Frame is the outcome of one simulated frame.
type Frame struct {
	Index      int     `yaml:"frame"`
	Lights     []Light `yaml:"lights"`
	Faces      int     `yaml:"faces"`
	Casters    int     `yaml:"casters"`
	BlurPasses int     `yaml:"blur_passes"`
	Textures   int     `yaml:"textures"`
}

// Plan is the full simulation result.
type Plan struct {
	Caps   gpu.Caps `yaml:"caps"`
	Atlas  bool     `yaml:"atlas"`
	Frames []Frame  `yaml:"frames"`
}

// Options controls a simulation.
type Options struct {
	Frames   int
	Caps     gpu.Caps
	Renderer renderer.Config
}

// Builder builds a scene with meshes from the factory.
type Builder func(meshes scene.MeshFactory) (*scene.Scene, error)

// Simulate builds the scene on a recording device and renders the given
// number of frames.
func Simulate(build Builder, opts Options) (*Plan, error) {
	if opts.Frames < 1 {
		return nil, fmt.Errorf("frames must be at least 1, got %d", opts.Frames)
	}

	dev := gputest.New()
	dev.DeviceCaps = opts.Caps

	s, err := build(func(_ []float32, indices []uint32) gpu.Mesh {
		return &gputest.Mesh{Indices: len(indices)}
	})
	if err != nil {
		return nil, err
	}

	r := renderer.New(dev, opts.Renderer)
	defer r.Close(s.Lights)

	log := logger.Named("plan")
	p := &Plan{Caps: opts.Caps, Atlas: opts.Renderer.Atlas}
	for i := 0; i < opts.Frames; i++ {
		frame := r.RenderFrame(s.Cameras, s.Lights, s.Instances)

		out := Frame{
			Index:      i,
			Faces:      frame.Stats.Faces,
			Casters:    frame.Stats.Casters,
			BlurPasses: frame.Stats.BlurPasses,
			Textures:   dev.LiveTextures(),
		}
		for _, l := range s.Lights {
			out.Lights = append(out.Lights, describe(l, frame))
		}
		log.Debug("frame simulated", zap.Int("frame", i), zap.Int("faces", out.Faces))
		p.Frames = append(p.Frames, out)
	}
	return p, nil
}

func describe(l *shadow.Light, frame renderer.Frame) Light {
	out := Light{
		Name:      l.Name,
		Kind:      l.Kind.String(),
		State:     frame.States[l].String(),
		AtlasSlot: -1,
	}
	if l.AtlasViewportAllocated {
		out.AtlasSlot = l.AtlasSlotIndex
	}
	if buf := l.ShadowMap; buf != nil {
		out.Filter = buf.Filter.String()
		out.Format = buf.Texture.Desc().Format.String()
		out.Resolution = buf.Resolution
		out.Faces = l.NumFaces()
	}
	if l.Kind == shadow.KindDirectional && out.Faces > 0 {
		out.Cascades = append(out.Cascades, l.CascadeDistances[:out.Faces]...)
	}
	for _, cs := range frame.Cameras {
		for _, lit := range cs.Lights {
			if lit == l {
				out.Cameras++
			}
		}
	}
	return out
}

// WriteYAML writes the plan as YAML.
func (p *Plan) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}

// WriteText writes one table per frame.
func (p *Plan) WriteText(w io.Writer) error {
	for _, f := range p.Frames {
		fmt.Fprintf(w, "Frame %d: %d faces, %d casters, %d blur passes, %d textures\n",
			f.Index, f.Faces, f.Casters, f.BlurPasses, f.Textures)

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  LIGHT\tKIND\tSTATE\tFILTER\tFORMAT\tRES\tSLOT\tFACES\tCAMERAS\tCASCADES")
		for _, l := range f.Lights {
			slot := "-"
			if l.AtlasSlot >= 0 {
				slot = fmt.Sprint(l.AtlasSlot)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%d\t%s\t%d\t%d\t%s\n",
				l.Name, l.Kind, l.State, orDash(l.Filter), orDash(l.Format),
				l.Resolution, slot, l.Faces, l.Cameras, cascades(l.Cascades))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func cascades(d []float32) string {
	if len(d) == 0 {
		return "-"
	}
	s := ""
	for i, v := range d {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%.1f", v)
	}
	return s
}
