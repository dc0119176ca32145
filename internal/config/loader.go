package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads the house configuration.
// Search order: customPath -> ~/.cardflip/config.yaml -> ./configs/cardflip.yaml -> embedded default.
// A file only needs the keys it changes; the rest keep their defaults.
// Environment overrides are applied last, then the result is validated.
func Load(customPath string) (Config, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Source reports which file Load would read, or "embedded" for the default.
func Source(customPath string) string {
	if customPath != "" {
		return customPath
	}
	if p := userConfigPath(); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if _, err := os.Stat(localConfigPath); err == nil {
		return localConfigPath
	}
	return "embedded"
}

const localConfigPath = "configs/cardflip.yaml"

func loadFile(customPath string) (Config, error) {
	cfg := Default()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath(); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			fileCfg := cfg
			if err := yaml.Unmarshal(data, &fileCfg); err == nil {
				return fileCfg, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(localConfigPath); err == nil {
		fileCfg := cfg
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			return fileCfg, nil
		}
	}

	// Use embedded default YAML
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cardflip", "config.yaml")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
