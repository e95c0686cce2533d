package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds defaults loaded from the optional YAML config file. Every
// field can be overridden by its command-line flag; zero values mean "not
// configured".
type Config struct {
	// Token is the GitHub API credential. The GITHUB_TOKEN environment
	// variable takes over when this is empty.
	Token string `yaml:"token"`
	// Destination is the default output directory.
	Destination string `yaml:"destination"`
	// MemoryLimit is the default download memory ceiling in bytes.
	MemoryLimit int64 `yaml:"memory_limit"`
	// Exclude lists default asset exclusion terms.
	Exclude []string `yaml:"exclude"`
	// OS and Arch preset the target platform.
	OS   string `yaml:"os"`
	Arch string `yaml:"arch"`
	// First always takes the top-ranked asset without prompting.
	First bool `yaml:"first"`
}

// DefaultPath returns the conventional config file location,
// ~/.config/ghgrab/config.yaml. An empty string means no home directory is
// available, in which case no file is loaded.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ghgrab", "config.yaml")
}

// Load reads the config file at path. A missing file (or empty path) yields
// the zero Config without error; a present but malformed file is an error,
// since silently ignoring a broken config would be surprising.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
