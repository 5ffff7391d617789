package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Marshal encodes the config as YAML, or TOML when format is "toml".
func (c *Config) Marshal(format string) ([]byte, error) {
	if strings.EqualFold(format, "toml") {
		return toml.Marshal(c)
	}
	return yaml.Marshal(c)
}

// SaveTo writes the config to a specific path. The format follows the
// file extension.
func (c *Config) SaveTo(path string) error {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := c.Marshal(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
