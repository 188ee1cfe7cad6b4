package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu/gputest"
	"github.com/Faultbox/midgard-shadow/internal/engine/shadow"
)

func testMeshes(_ []float32, indices []uint32) gpu.Mesh {
	return &gputest.Mesh{Indices: len(indices)}
}

func TestBuildSceneDemo(t *testing.T) {
	cfg := Default()
	cfg.Shadows.DefaultFilter = "vsm16f"

	s, err := cfg.BuildScene(testMeshes)
	if err != nil {
		t.Fatalf("failed to build demo scene: %v", err)
	}
	if len(s.Lights) != 3 {
		t.Fatalf("expected 3 demo lights, got %d", len(s.Lights))
	}
	for _, l := range s.Lights {
		if !l.CastShadows {
			t.Errorf("expected %s to cast shadows", l.Name)
		}
	}
	if s.Lights[1].Filter != shadow.FilterVSM16F {
		t.Errorf("expected default filter vsm16f on %s, got %s", s.Lights[1].Name, s.Lights[1].Filter)
	}
}

func TestBuildSceneShadowsDisabled(t *testing.T) {
	cfg := Default()
	cfg.Shadows.Enabled = false

	s, err := cfg.BuildScene(testMeshes)
	if err != nil {
		t.Fatalf("failed to build demo scene: %v", err)
	}
	for _, l := range s.Lights {
		if l.CastShadows {
			t.Errorf("expected %s not to cast shadows", l.Name)
		}
	}
}

func TestBuildSceneFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	content := `
cameras:
  - name: main
    position: [0, 5, 10]
lights:
  - name: bulb
    kind: omni
    position: [0, 2, 0]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write scene: %v", err)
	}

	cfg := Default()
	cfg.Scene.Path = path
	s, err := cfg.BuildScene(testMeshes)
	if err != nil {
		t.Fatalf("failed to build scene: %v", err)
	}
	if len(s.Lights) != 1 || s.Lights[0].Kind != shadow.KindOmni {
		t.Errorf("expected one omni light, got %d lights", len(s.Lights))
	}
	if len(s.Instances) != 0 {
		t.Errorf("expected no instances, got %d", len(s.Instances))
	}
}

func TestBuildSceneMissingFile(t *testing.T) {
	cfg := Default()
	cfg.Scene.Path = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := cfg.BuildScene(testMeshes); err == nil {
		t.Error("expected error for missing scene file")
	}
}
