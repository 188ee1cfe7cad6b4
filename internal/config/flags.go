package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagScene      = flag.String("scene", "", "Path to scene file")
	flagAtlas      = flag.Bool("atlas", false, "Pack local light shadows into one atlas")
	flagShadowRes  = flag.Int("shadow-res", 0, "Default shadow map resolution")
	flagFilter     = flag.String("filter", "", "Default shadow filter (pcf3_32f, vsm16f, ...)")
	flagCascades   = flag.Int("cascades", 0, "Directional light cascade count")
	flagFrames     = flag.Int("frames", 0, "Frames to simulate in the planner")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagSaveConfig = flag.String("save-config", "", "Write the merged config to this path (\"user\" for the config directory) and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagScene != "" {
		cfg.Scene.Path = *flagScene
	}
	if *flagAtlas {
		cfg.Shadows.Atlas.Enabled = true
	}
	if *flagShadowRes > 0 {
		cfg.Shadows.DefaultResolution = *flagShadowRes
	}
	if *flagFilter != "" {
		cfg.Shadows.DefaultFilter = *flagFilter
	}
	if *flagCascades > 0 {
		cfg.Shadows.Directional.Cascades = *flagCascades
	}
	if *flagFrames > 0 {
		cfg.Scene.Frames = *flagFrames
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
}
