// Package config handles configuration loading and management.
package config

// Config holds all settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Shadows ShadowsConfig `yaml:"shadows"`
	Scene   SceneConfig   `yaml:"scene"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings for the viewer.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// ShadowsConfig holds the shadow defaults applied to scene lights.
type ShadowsConfig struct {
	Enabled           bool    `yaml:"enabled"`
	DefaultResolution int     `yaml:"default_resolution"`
	DefaultFilter     string  `yaml:"default_filter"`
	Bias              float32 `yaml:"bias"`
	NormalBias        float32 `yaml:"normal_bias"`
	VsmBias           float32 `yaml:"vsm_bias"`
	VsmBlurSize       int     `yaml:"vsm_blur_size"`
	VsmBlurMode       string  `yaml:"vsm_blur_mode"`
	UpdateMode        string  `yaml:"update_mode"`

	Atlas       AtlasConfig       `yaml:"atlas"`
	Directional DirectionalConfig `yaml:"directional"`
}

// AtlasConfig holds the shared local-light atlas settings.
type AtlasConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Resolution int    `yaml:"resolution"`
	EdgePixels int    `yaml:"edge_pixels"` // omni face border
	Filter     string `yaml:"filter"`
}

// DirectionalConfig holds cascade settings.
type DirectionalConfig struct {
	ShadowDistance float32 `yaml:"shadow_distance"`
	Cascades       int     `yaml:"cascades"`
	Distribution   float32 `yaml:"distribution"` // 0 linear, 1 logarithmic
}

// SceneConfig selects the scene to load. An empty path uses the demo scene.
type SceneConfig struct {
	Path   string `yaml:"path"`
	Frames int    `yaml:"frames"` // frames the planner simulates
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "Midgard Shadows",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Shadows: ShadowsConfig{
			Enabled:           true,
			DefaultResolution: 1024,
			DefaultFilter:     "pcf3_32f",
			Bias:              0.05,
			NormalBias:        0.05,
			VsmBias:           0.01,
			VsmBlurSize:       11,
			VsmBlurMode:       "gaussian",
			UpdateMode:        "realtime",
			Atlas: AtlasConfig{
				Enabled:    false,
				Resolution: 4096,
				EdgePixels: 3,
				Filter:     "pcf3_32f",
			},
			Directional: DirectionalConfig{
				ShadowDistance: 40,
				Cascades:       1,
				Distribution:   0.5,
			},
		},
		Scene: SceneConfig{
			Path:   "",
			Frames: 1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
