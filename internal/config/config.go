// Package config loads .sensorgate.yml project configuration and the
// analysis properties that sensors may require.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// maxConfigSize caps config and properties files (1 MB).
const maxConfigSize = 1 << 20

// RuleOverride allows per-rule severity or disable.
type RuleOverride struct {
	Severity string `yaml:"severity,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Config represents the .sensorgate.yml configuration file.
type Config struct {
	Ignore               []string                `yaml:"ignore,omitempty"`
	TestPatterns         []string                `yaml:"test_patterns,omitempty"`
	Severity             string                  `yaml:"severity,omitempty"`
	FailOn               string                  `yaml:"fail_on,omitempty"`
	Format               string                  `yaml:"format,omitempty"`
	Rules                string                  `yaml:"rules,omitempty"`
	RuleOverrides        map[string]RuleOverride `yaml:"rule_overrides,omitempty"`
	DisabledRepositories []string                `yaml:"disabled_repositories,omitempty"`
	Properties           map[string]string       `yaml:"properties,omitempty"`
	PropertiesFile       string                  `yaml:"properties_file,omitempty"`

	// Dir is the directory the configuration was resolved against.
	Dir string `yaml:"-"`
}

// Load reads the .sensorgate.yml or .sensorgate.yaml config file from the given path.
// If path is a file, its parent directory is used. If no config file is found,
// it returns a Config with only Dir set (not an error).
func Load(dir string) (Config, error) {
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for _, name := range []string{".sensorgate.yml", ".sensorgate.yaml"} {
		path := filepath.Join(dir, name)
		data, err := readLimited(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, err
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		cfg.Dir = dir
		return cfg, nil
	}
	return Config{Dir: dir}, nil
}

// readLimited reads path, refusing files over maxConfigSize. A missing file
// returns an error satisfying os.IsNotExist.
func readLimited(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %s (%d bytes, max 1 MB)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
