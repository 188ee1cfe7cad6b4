package config

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/midgard-shadow/internal/engine/lighting"
	"github.com/Faultbox/midgard-shadow/internal/engine/renderer"
	"github.com/Faultbox/midgard-shadow/internal/engine/shadow"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var err error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if !logLevels[c.Logging.Level] {
		err = multierr.Append(err, fmt.Errorf("unknown log level %q", c.Logging.Level))
	}
	if c.Scene.Frames < 1 {
		err = multierr.Append(err, fmt.Errorf("scene frames %d must be at least 1", c.Scene.Frames))
	}
	return multierr.Append(err, c.Shadows.Validate())
}

// Validate reports every invalid shadow setting.
func (s ShadowsConfig) Validate() error {
	var err error
	if !validResolution(s.DefaultResolution) {
		err = multierr.Append(err, fmt.Errorf("shadow resolution %d must be a power of two in [16, 16384]", s.DefaultResolution))
	}
	if _, e := shadow.ParseFilterType(s.DefaultFilter); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := shadow.ParseBlurMode(s.VsmBlurMode); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := shadow.ParseUpdateMode(s.UpdateMode); e != nil {
		err = multierr.Append(err, e)
	}
	if s.VsmBlurSize < 0 || s.VsmBlurSize > shadow.MaxVsmBlurSize {
		err = multierr.Append(err, fmt.Errorf("vsm blur size %d out of range [0, %d]", s.VsmBlurSize, shadow.MaxVsmBlurSize))
	}

	if s.Atlas.Enabled {
		if !validResolution(s.Atlas.Resolution) {
			err = multierr.Append(err, fmt.Errorf("atlas resolution %d must be a power of two in [16, 16384]", s.Atlas.Resolution))
		}
		if s.Atlas.EdgePixels < 0 {
			err = multierr.Append(err, fmt.Errorf("atlas edge pixels %d must not be negative", s.Atlas.EdgePixels))
		}
		if _, e := shadow.ParseFilterType(s.Atlas.Filter); e != nil {
			err = multierr.Append(err, fmt.Errorf("atlas: %w", e))
		}
	}

	d := s.Directional
	if d.Cascades < 1 || d.Cascades > shadow.MaxCascades {
		err = multierr.Append(err, fmt.Errorf("cascades %d out of range [1, %d]", d.Cascades, shadow.MaxCascades))
	}
	if d.Distribution < 0 || d.Distribution > 1 {
		err = multierr.Append(err, fmt.Errorf("cascade distribution %g out of range [0, 1]", d.Distribution))
	}
	if d.ShadowDistance <= 0 {
		err = multierr.Append(err, fmt.Errorf("shadow distance %g must be positive", d.ShadowDistance))
	}
	return err
}

func validResolution(res int) bool {
	return res >= 16 && res <= 16384 && res&(res-1) == 0
}

// LightDefaults converts the shadow settings into light defaults. The
// config must be valid.
func (s ShadowsConfig) LightDefaults() (lighting.Defaults, error) {
	filter, err := shadow.ParseFilterType(s.DefaultFilter)
	if err != nil {
		return lighting.Defaults{}, err
	}
	blur, err := shadow.ParseBlurMode(s.VsmBlurMode)
	if err != nil {
		return lighting.Defaults{}, err
	}
	mode, err := shadow.ParseUpdateMode(s.UpdateMode)
	if err != nil {
		return lighting.Defaults{}, err
	}
	return lighting.Defaults{
		Resolution:     s.DefaultResolution,
		Filter:         filter,
		Bias:           s.Bias,
		NormalBias:     s.NormalBias,
		VsmBias:        s.VsmBias,
		VsmBlurSize:    s.VsmBlurSize,
		VsmBlurMode:    blur,
		UpdateMode:     mode,
		ShadowDistance: s.Directional.ShadowDistance,
		Cascades:       s.Directional.Cascades,
		Distribution:   s.Directional.Distribution,
	}, nil
}

// RendererConfig converts the atlas settings into a renderer config.
func (s ShadowsConfig) RendererConfig() (renderer.Config, error) {
	cfg := renderer.DefaultConfig()
	cfg.Atlas = s.Atlas.Enabled
	if s.Atlas.Resolution > 0 {
		cfg.AtlasResolution = s.Atlas.Resolution
	}
	cfg.AtlasEdgePixels = s.Atlas.EdgePixels
	if s.Atlas.Filter != "" {
		f, err := shadow.ParseFilterType(s.Atlas.Filter)
		if err != nil {
			return renderer.Config{}, fmt.Errorf("atlas: %w", err)
		}
		cfg.AtlasFilter = f
	}
	return cfg, nil
}
