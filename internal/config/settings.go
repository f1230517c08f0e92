package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultPropertiesFile is read from the project directory when present.
const DefaultPropertiesFile = "sensorgate.properties"

// Settings holds the analysis properties. A key counts as set only if its
// value is not blank.
type Settings struct {
	values map[string]string
}

// NewSettings merges layers in order; later layers win.
func NewSettings(layers ...map[string]string) *Settings {
	values := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			values[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return &Settings{values: values}
}

// LoadSettings resolves properties from the config file's properties map,
// then the properties file, then command-line defines.
func LoadSettings(cfg Config, defines map[string]string) (*Settings, error) {
	fileProps, err := loadPropertiesFile(cfg)
	if err != nil {
		return nil, err
	}
	return NewSettings(cfg.Properties, fileProps, defines), nil
}

func loadPropertiesFile(cfg Config) (map[string]string, error) {
	name := cfg.PropertiesFile
	explicit := name != ""
	if !explicit {
		name = DefaultPropertiesFile
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Dir, name)
	}
	data, err := readLimited(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil, nil
		}
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return nil, err
	}
	props, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return props, nil
}

// ParseDefines converts "key=value" command-line definitions into a map.
func ParseDefines(defs []string) (map[string]string, error) {
	out := make(map[string]string, len(defs))
	for _, d := range defs {
		k, v, ok := strings.Cut(d, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid property definition %q (want key=value)", d)
		}
		out[k] = v
	}
	return out, nil
}

// HasValue reports whether key has a non-blank value.
func (s *Settings) HasValue(key string) bool {
	return s.values[key] != ""
}

// Get returns the value of key and whether it is set.
func (s *Settings) Get(key string) (string, bool) {
	v := s.values[key]
	return v, v != ""
}

// Keys returns the keys with a value, sorted.
func (s *Settings) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k, v := range s.values {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
