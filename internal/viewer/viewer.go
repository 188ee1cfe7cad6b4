// Package viewer runs the interactive shadow map viewer.
package viewer

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shadow/internal/config"
	"github.com/Faultbox/midgard-shadow/internal/engine/camera"
	"github.com/Faultbox/midgard-shadow/internal/engine/debug"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu/glgpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/input"
	"github.com/Faultbox/midgard-shadow/internal/engine/renderer"
	"github.com/Faultbox/midgard-shadow/internal/engine/scene"
	"github.com/Faultbox/midgard-shadow/internal/engine/shadow"
	"github.com/Faultbox/midgard-shadow/internal/engine/window"
	"github.com/Faultbox/midgard-shadow/internal/logger"
)

// Viewer shows the shadow map of one scene light at a time while the main
// camera orbits the scene.
type Viewer struct {
	config  *config.Config
	running bool
	log     *zap.Logger

	window  *window.Window
	dev     *glgpu.Device
	input   *input.Input
	scene   *scene.Scene
	shadows *renderer.Renderer
	orbit   *camera.OrbitCamera
	capture *debug.Capture

	selected int
	frozen   bool
	// modes holds each light's update mode while frozen.
	modes []shadow.UpdateMode
	last  renderer.Frame
}

// New opens the window and builds the configured scene.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		config: cfg,
		log:    logger.Named("viewer"),
	}
	v.log.Info("initializing viewer",
		zap.String("title", cfg.Window.Title),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	// Create window (this also creates OpenGL context)
	var err error
	v.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create device (AFTER window, since OpenGL context must exist)
	v.dev, err = glgpu.New()
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	v.scene, err = cfg.BuildScene(func(positions []float32, indices []uint32) gpu.Mesh {
		return v.dev.UploadMesh(positions, indices)
	})
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to build scene: %w", err)
	}

	rcfg, err := cfg.Shadows.RendererConfig()
	if err != nil {
		v.Close()
		return nil, err
	}
	v.shadows = renderer.New(v.dev, rcfg)

	v.orbit = camera.NewOrbitCamera()
	v.orbit.FitToBounds(v.scene.Bounds)
	v.input = input.New()
	v.capture = debug.NewCapture(filepath.Join(config.ConfigDir(), "captures"), "shadow")

	v.log.Info("viewer initialized",
		zap.Int("lights", len(v.scene.Lights)),
		zap.Int("instances", len(v.scene.Instances)),
		zap.Bool("atlas", rcfg.Atlas),
	)
	return v, nil
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	// Timing
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting viewer loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()

		// 2. Render shadows
		v.last = v.shadows.RenderFrame(v.scene.Cameras, v.scene.Lights, v.scene.Instances)

		// 3. Present the selected map
		v.present()
		v.window.SwapBuffers()

		// FPS counter
		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)),
				zap.Int("faces", v.last.Stats.Faces),
				zap.Int("casters", v.last.Stats.Casters),
			)
			v.updateTitle(frameCount)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	moved := false
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				v.running = false
			case sdl.SCANCODE_TAB:
				v.selectNext()
			case sdl.SCANCODE_SPACE:
				v.toggleFreeze()
			case sdl.SCANCODE_F12:
				v.captureSelected()
			}
		case input.EventMouseMove:
			if event.Dragging() {
				v.orbit.HandleDrag(float32(event.DeltaX), float32(event.DeltaY))
				moved = true
			}
		case input.EventMouseWheel:
			v.orbit.HandleZoom(float32(event.Wheel))
			moved = true
		}
	}
	if moved && len(v.scene.Cameras) > 0 {
		v.orbit.Apply(v.scene.Cameras[0])
	}
}

func (v *Viewer) selectedLight() *shadow.Light {
	if len(v.scene.Lights) == 0 {
		return nil
	}
	return v.scene.Lights[v.selected%len(v.scene.Lights)]
}

func (v *Viewer) selectNext() {
	if len(v.scene.Lights) == 0 {
		return
	}
	v.selected = (v.selected + 1) % len(v.scene.Lights)
	l := v.selectedLight()
	v.log.Info("light selected", zap.String("light", l.Name), zap.Stringer("kind", l.Kind))
}

// toggleFreeze stops every light from updating so its last map stays on
// screen, and restores the update modes on the second press.
func (v *Viewer) toggleFreeze() {
	v.frozen = !v.frozen
	if v.frozen {
		v.modes = v.modes[:0]
		for _, l := range v.scene.Lights {
			v.modes = append(v.modes, l.UpdateMode)
			l.UpdateMode = shadow.UpdateNever
		}
	} else {
		for i, l := range v.scene.Lights {
			l.UpdateMode = v.modes[i]
		}
	}
	v.log.Info("shadow updates toggled", zap.Bool("frozen", v.frozen))
}

func (v *Viewer) present() {
	w, h := v.window.Drawable()
	v.dev.SetRenderTarget(nil)
	v.dev.SetViewport(gpu.Rect{W: w, H: h})
	v.dev.Clear(gpu.ClearOptions{
		Color:      [4]float32{0.1, 0.1, 0.12, 1},
		Depth:      1,
		ClearColor: true,
		ClearDepth: true,
	})

	l := v.selectedLight()
	if l == nil || l.ShadowMap == nil {
		return
	}

	// Cubemaps keep a 3:2 face grid, 2D maps stay square.
	rw, rh := h, h
	if l.ShadowMap.Cubemap {
		rw = h * 3 / 2
		if rw > w {
			rw, rh = w, w*2/3
		}
	} else if w < h {
		rw, rh = w, w
	}
	v.dev.Present(l.ShadowMap.Texture, gpu.Rect{X: (w - rw) / 2, Y: (h - rh) / 2, W: rw, H: rh}, 0, 1)
}

func (v *Viewer) captureSelected() {
	l := v.selectedLight()
	if l == nil || l.ShadowMap == nil {
		return
	}
	buf := l.ShadowMap
	pixels, err := v.dev.ReadChannel(buf.Texture, 0)
	if err != nil {
		v.log.Error("shadow map capture failed", zap.String("light", l.Name), zap.Error(err))
		return
	}
	img, err := debug.DepthImage(pixels, buf.Resolution)
	if err != nil {
		v.log.Error("shadow map capture failed", zap.String("light", l.Name), zap.Error(err))
		return
	}
	name, err := v.capture.Save(l.Name, img)
	if err != nil {
		v.log.Error("shadow map capture failed", zap.String("light", l.Name), zap.Error(err))
		return
	}
	v.log.Info("shadow map saved", zap.String("light", l.Name), zap.String("file", name))
}

func (v *Viewer) updateTitle(fps int) {
	title := v.config.Window.Title
	if l := v.selectedLight(); l != nil {
		title = fmt.Sprintf("%s | %s (%s, %s) | %d faces | %d fps",
			v.config.Window.Title, l.Name, l.Kind, l.EffectiveFilter(), v.last.Stats.Faces, fps)
		if v.frozen {
			title += " | frozen"
		}
	}
	v.window.SetTitle(title)
}

// Close releases the renderer, meshes, device and window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.scene != nil {
		if v.shadows != nil {
			v.shadows.Close(v.scene.Lights)
		}
		destroyed := make(map[gpu.Mesh]bool)
		for _, inst := range v.scene.Instances {
			if m, ok := inst.Mesh.(*glgpu.Mesh); ok && !destroyed[m] {
				m.Destroy()
				destroyed[m] = true
			}
		}
	}
	if v.dev != nil {
		v.dev.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
