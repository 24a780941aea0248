package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LoadSettings decodes the settings file over the defaults. A missing file
// is created from the template.
func LoadSettings(path string) (*Settings, error) {
	cfg := DefaultSettings()

	if !FileExists(path) {
		if err := CreateDefaultSettings(path); err != nil {
			return nil, fmt.Errorf("failed to create settings: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	return cfg, nil
}

// CreateDefaultSettings writes the commented template to path unless a
// file is already there.
func CreateDefaultSettings(path string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if FileExists(path) {
		return nil
	}

	if err := os.WriteFile(path, []byte(GenerateSettingsTemplate()), 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}
