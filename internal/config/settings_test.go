package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/garagon/sensorgate/internal/config"
	"github.com/stretchr/testify/require"
)

func TestSettingsHasValue(t *testing.T) {
	s := config.NewSettings(map[string]string{
		"sonar.foo.path": "/opt/foo",
		"blank":          "   ",
	})
	require.True(t, s.HasValue("sonar.foo.path"))
	require.False(t, s.HasValue("blank"))
	require.False(t, s.HasValue("missing"))

	v, ok := s.Get("sonar.foo.path")
	require.True(t, ok)
	require.Equal(t, "/opt/foo", v)
	require.Equal(t, []string{"sonar.foo.path"}, s.Keys())
}

func TestSettingsLayering(t *testing.T) {
	s := config.NewSettings(
		map[string]string{"a": "yml", "b": "yml", "c": "yml"},
		map[string]string{"b": "file", "c": "file"},
		map[string]string{"c": "cli"},
	)
	a, _ := s.Get("a")
	b, _ := s.Get("b")
	c, _ := s.Get("c")
	require.Equal(t, "yml", a)
	require.Equal(t, "file", b)
	require.Equal(t, "cli", c)

	unset := config.NewSettings(map[string]string{"a": "x"}, map[string]string{"a": ""})
	require.False(t, unset.HasValue("a"))
}

func TestLoadSettingsDefaultPropertiesFile(t *testing.T) {
	dir := t.TempDir()
	props := "# analysis properties\nsensorgate.shellcheck.path=/usr/local/bin/shellcheck\nproject.key = demo\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultPropertiesFile), []byte(props), 0644))

	cfg := config.Config{Dir: dir, Properties: map[string]string{"project.key": "from-yml", "project.name": "Demo"}}
	s, err := config.LoadSettings(cfg, map[string]string{"project.name": "CLI"})
	require.NoError(t, err)

	path, _ := s.Get("sensorgate.shellcheck.path")
	key, _ := s.Get("project.key")
	name, _ := s.Get("project.name")
	require.Equal(t, "/usr/local/bin/shellcheck", path)
	require.Equal(t, "demo", key)
	require.Equal(t, "CLI", name)
}

func TestLoadSettingsWithoutPropertiesFile(t *testing.T) {
	s, err := config.LoadSettings(config.Config{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	require.Empty(t, s.Keys())
}

func TestLoadSettingsExplicitFileMissing(t *testing.T) {
	_, err := config.LoadSettings(config.Config{Dir: t.TempDir(), PropertiesFile: "custom.properties"}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "custom.properties")
}

func TestParseDefines(t *testing.T) {
	defs, err := config.ParseDefines([]string{"a.b=1", "path=/x=y", "empty="})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a.b": "1", "path": "/x=y", "empty": ""}, defs)

	_, err = config.ParseDefines([]string{"novalue"})
	require.Error(t, err)
	_, err = config.ParseDefines([]string{"=x"})
	require.Error(t, err)
}
