package renderer

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/mesh"
	"github.com/Faultbox/midgard-shadow/internal/engine/shadow"
	"github.com/Faultbox/midgard-shadow/internal/engine/shadow/shaders"
	"github.com/Faultbox/midgard-shadow/internal/logger"
)

// supportedDefs are the instance features the depth shaders implement. Other
// bits, skinning among them, share the variant without them.
const supportedDefs = mesh.DefAlphaTest

type depthKey struct {
	defs   mesh.ShaderDefs
	filter shadow.FilterType
	kind   shadow.LightKind
}

// DepthShaderLibrary compiles depth-pass shader variants on first use.
type DepthShaderLibrary struct {
	dev      gpu.Device
	variants map[depthKey]gpu.Shader
	failed   map[depthKey]bool
	log      *zap.Logger
}

// NewDepthShaderLibrary creates an empty library.
func NewDepthShaderLibrary(dev gpu.Device) *DepthShaderLibrary {
	return &DepthShaderLibrary{
		dev:      dev,
		variants: make(map[depthKey]gpu.Shader),
		failed:   make(map[depthKey]bool),
		log:      logger.Named("renderer.depth"),
	}
}

// DepthShader returns the variant for the caster, or nil when it does not
// compile.
func (l *DepthShaderLibrary) DepthShader(defs mesh.ShaderDefs, filter shadow.FilterType, kind shadow.LightKind) gpu.Shader {
	key := depthKey{defs: defs & supportedDefs, filter: filter, kind: kind}
	if s, ok := l.variants[key]; ok {
		return s
	}
	if l.failed[key] {
		return nil
	}

	defines := DepthDefines(l.dev.Caps(), filter, kind)
	name := depthShaderName(filter, kind)
	if key.defs&mesh.DefAlphaTest != 0 {
		defines += "#define ALPHA_TEST\n"
		name += "-alpha"
	}
	s, err := l.dev.CompileShader(name,
		shaders.Version+defines+shaders.DepthVertexShader,
		shaders.Version+defines+shaders.DepthFragmentShader,
	)
	if err != nil {
		l.failed[key] = true
		l.log.Error("depth shader compile failed", zap.String("variant", name), zap.Error(err))
		return nil
	}
	l.variants[key] = s
	l.log.Debug("depth shader compiled", zap.String("variant", name))
	return s
}

// Len returns the number of compiled variants.
func (l *DepthShaderLibrary) Len() int { return len(l.variants) }

// Destroy releases compiled variants whose shader type supports it.
func (l *DepthShaderLibrary) Destroy() {
	for key, s := range l.variants {
		if d, ok := s.(interface{ Destroy() }); ok {
			d.Destroy()
		}
		delete(l.variants, key)
	}
}

// DepthDefines returns the preprocessor lines selecting the depth output for
// a buffer of the given filter and light kind.
func DepthDefines(caps gpu.Caps, filter shadow.FilterType, kind shadow.LightKind) string {
	var b strings.Builder
	if kind == shadow.KindOmni {
		b.WriteString("#define OMNI\n")
	}
	if filter.IsVSM() {
		b.WriteString("#define VSM\n")
		return b.String()
	}
	if format, _ := shadow.BufferFormat(caps, kind == shadow.KindOmni, filter); !format.IsDepth() {
		b.WriteString("#define ENCODED\n")
	}
	return b.String()
}

func depthShaderName(filter shadow.FilterType, kind shadow.LightKind) string {
	return fmt.Sprintf("depth-%s-%s", kind, filter)
}
