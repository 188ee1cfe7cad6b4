package shadow

import (
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/shadow/shaders"
)

type blurKey struct {
	mode BlurMode
	size int
}

// blurCache holds compiled blur shaders per (mode, size) and Gaussian
// weights per size.
type blurCache struct {
	shaders map[blurKey]gpu.Shader
	// failed remembers variants that did not compile so they are not retried
	// every frame.
	failed map[blurKey]bool
	gauss  map[int][]float32
}

func newBlurCache() blurCache {
	return blurCache{
		shaders: make(map[blurKey]gpu.Shader),
		failed:  make(map[blurKey]bool),
		gauss:   make(map[int][]float32),
	}
}

func (c *blurCache) shader(dev gpu.Device, mode BlurMode, size int, log *zap.Logger) gpu.Shader {
	key := blurKey{mode: mode, size: size}
	if s, ok := c.shaders[key]; ok {
		return s
	}
	if c.failed[key] {
		return nil
	}

	s, err := dev.CompileShader(blurShaderName(mode, size), shaders.Version+shaders.FullscreenVertexShader, BlurFragmentSource(mode, size))
	if err != nil {
		c.failed[key] = true
		log.Warn("vsm blur disabled", zap.Int("size", size), zap.Error(err))
		return nil
	}
	c.shaders[key] = s
	return s
}

func (c *blurCache) weights(size int) []float32 {
	w, ok := c.gauss[size]
	if !ok {
		w = GaussWeights(size)
		c.gauss[size] = w
	}
	return w
}

func blurShaderName(mode BlurMode, size int) string {
	if mode == BlurGaussian {
		return fmt.Sprintf("vsm-blur-gauss-%d", size)
	}
	return fmt.Sprintf("vsm-blur-box-%d", size)
}

// BlurFragmentSource returns the blur fragment shader for a kernel.
func BlurFragmentSource(mode BlurMode, size int) string {
	src := shaders.Version + fmt.Sprintf("#define SAMPLES %d\n", size)
	if mode == BlurGaussian {
		src += "#define GAUSS\n"
	}
	return src + shaders.VsmBlurFragmentShader
}

// GaussWeights returns normalized Gaussian weights for an odd kernel width,
// with sigma spanning the kernel at three standard deviations per side.
func GaussWeights(size int) []float32 {
	if size <= 1 {
		return []float32{1}
	}
	sigma := float64(size-1) / 6
	halfWidth := float64(size-1) / 2

	w := make([]float32, size)
	var sum float64
	for i := range w {
		x := float64(i) - halfWidth
		v := gomath.Exp(-(x * x) / (2 * sigma * sigma))
		w[i] = float32(v)
		sum += v
	}
	for i := range w {
		w[i] = float32(float64(w[i]) / sum)
	}
	return w
}
