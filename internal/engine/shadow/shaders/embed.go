// Package shaders provides the embedded GLSL sources of the shadow passes.
// Sources carry no #version line; callers prepend the version and defines.
package shaders

import _ "embed"

// Version is the GLSL version line prepended to every source.
const Version = "#version 410 core\n"

// DepthVertexShader transforms casters into light clip space.
//
//go:embed depth.vert
var DepthVertexShader string

// DepthFragmentShader writes depth, encoded depth, light distance or VSM
// moments depending on its defines.
//
//go:embed depth.frag
var DepthFragmentShader string

// FullscreenVertexShader draws one screen-covering triangle without buffers.
//
//go:embed fullscreen.vert
var FullscreenVertexShader string

// VsmBlurFragmentShader is the separable VSM blur. SAMPLES sets the kernel
// width; GAUSS selects weighted taps instead of a box average.
//
//go:embed vsm_blur.frag
var VsmBlurFragmentShader string
