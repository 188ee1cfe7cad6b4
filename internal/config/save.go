package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// UserTarget makes -save-config write to the user config directory.
const UserTarget = "user"

const savedHeader = "# midgard-shadow configuration, loaded from the config directory or -config\n"

// SaveRequested reports whether -save-config was given.
func SaveRequested() bool {
	return *flagSaveConfig != ""
}

// SaveRequestedConfig writes the config where -save-config points and
// returns the path written.
func (c *Config) SaveRequestedConfig() (string, error) {
	switch target := *flagSaveConfig; target {
	case "":
		return "", fmt.Errorf("no -save-config target")
	case UserTarget:
		return UserConfigPath(), c.Save()
	default:
		return target, c.SaveTo(target)
	}
}

// UserConfigPath returns the config file Load picks up from ConfigDir.
func UserConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Save writes the config to the user's config directory.
func (c *Config) Save() error {
	return c.SaveTo(UserConfigPath())
}

// SaveTo validates the config and writes it as YAML to path, creating the
// parent directory.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(savedHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
