package config

import (
	"github.com/Faultbox/midgard-shadow/internal/engine/scene"
)

// SceneFile returns the configured scene description, or the demo scene
// when no path is set.
func (c *Config) SceneFile() (*scene.File, error) {
	if c.Scene.Path == "" {
		return scene.Demo(), nil
	}
	return scene.Load(c.Scene.Path)
}

// BuildScene loads and builds the configured scene with the shadow
// defaults. Every light stops casting when shadows are disabled.
func (c *Config) BuildScene(meshes scene.MeshFactory) (*scene.Scene, error) {
	f, err := c.SceneFile()
	if err != nil {
		return nil, err
	}
	defaults, err := c.Shadows.LightDefaults()
	if err != nil {
		return nil, err
	}
	s, err := f.Build(defaults, meshes)
	if err != nil {
		return nil, err
	}
	if !c.Shadows.Enabled {
		for _, l := range s.Lights {
			l.CastShadows = false
		}
	}
	return s, nil
}
