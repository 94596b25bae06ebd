package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileHeader = "# midgard-terrain editor settings\n"

// Update rewrites the config file the editor was started with. fn sees
// defaults merged with the file only, so command-line overrides are not
// persisted. The in-memory Config is not changed.
func (c *Config) Update(fn func(*Config)) error {
	path := c.Path()
	onDisk := Default()
	if err := loadFromFile(onDisk, path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	fn(onDisk)
	if err := onDisk.Validate(); err != nil {
		return err
	}
	return onDisk.SaveTo(path)
}

// SaveTo writes the config to path. The file is replaced atomically so a
// crash mid-write leaves the previous settings in place.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(fileHeader); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
