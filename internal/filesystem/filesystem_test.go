package filesystem_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/garagon/sensorgate/internal/filesystem"
	"github.com/garagon/sensorgate/internal/sensor"
	"github.com/garagon/sensorgate/internal/types"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func byPath(idx *filesystem.Index) map[string]*types.InputFile {
	m := make(map[string]*types.InputFile)
	for _, f := range idx.Files(sensor.All()) {
		m[f.RelPath] = f
	}
	return m
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "main_test.go", "package main")
	writeFile(t, dir, "scripts/build", "#!/usr/bin/env bash\necho hi\n")
	writeFile(t, dir, "docs/README.md", "# Title")
	writeFile(t, dir, "image.png", "binary")
	writeFile(t, dir, ".git/HEAD", "ref")
	writeFile(t, dir, "node_modules/x/index.js", "x")

	idx, err := filesystem.Discover(dir, filesystem.Options{})
	require.NoError(t, err)

	files := byPath(idx)
	require.Len(t, files, 4)
	require.Equal(t, "go", files["main.go"].Language)
	require.Equal(t, types.FileTypeMain, files["main.go"].Type)
	require.Equal(t, types.FileTypeTest, files["main_test.go"].Type)
	require.Equal(t, "shell", files["scripts/build"].Language)
	require.Equal(t, "markdown", files["docs/README.md"].Language)
	require.NotContains(t, files, "image.png")
	require.NotContains(t, files, ".git/HEAD")
	require.NotContains(t, files, "node_modules/x/index.js")

	require.Equal(t, map[string]int{"go": 2, "shell": 1, "markdown": 1}, idx.Languages())
}

func TestDiscoverIgnore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.md", "keep")
	writeFile(t, dir, "skip.log", "skip")
	writeFile(t, dir, "gen/out.go", "package gen")
	writeFile(t, dir, "deep/a/b/c.yaml", "a: b")
	writeFile(t, dir, filesystem.IgnoreFile, "# comment\n*.log\n")

	idx, err := filesystem.Discover(dir, filesystem.Options{Ignore: []string{"gen/", "**/*.yaml"}})
	require.NoError(t, err)

	files := byPath(idx)
	require.Contains(t, files, "keep.md")
	require.NotContains(t, files, "skip.log")
	require.NotContains(t, files, "gen/out.go")
	require.NotContains(t, files, "deep/a/b/c.yaml")
}

func TestDiscoverCustomTestPatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/app.py", "x = 1")
	writeFile(t, dir, "qa/check_app.py", "assert True")

	idx, err := filesystem.Discover(dir, filesystem.Options{TestPatterns: []string{"qa/**"}})
	require.NoError(t, err)

	files := byPath(idx)
	require.Equal(t, types.FileTypeMain, files["src/app.py"].Type)
	require.Equal(t, types.FileTypeTest, files["qa/check_app.py"].Type)
}

func TestDiscoverSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nested/run.sh", "echo hi")

	idx, err := filesystem.Discover(filepath.Join(dir, "nested", "run.sh"), filesystem.Options{})
	require.NoError(t, err)
	require.Equal(t, 1, idx.Len())
	files := byPath(idx)
	require.Equal(t, "shell", files["run.sh"].Language)
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := filesystem.Discover(filepath.Join(t.TempDir(), "nope"), filesystem.Options{})
	require.Error(t, err)
}

func TestIndexQueries(t *testing.T) {
	idx := filesystem.NewIndex([]*types.InputFile{
		{RelPath: "b.java", Language: "java", Type: types.FileTypeMain},
		{RelPath: "a_test.go", Language: "go", Type: types.FileTypeTest},
	})

	require.True(t, idx.HasFiles(sensor.HasLanguages("java")))
	require.False(t, idx.HasFiles(sensor.And(sensor.HasLanguages("java"), sensor.HasType(types.FileTypeTest))))

	all := idx.Files(sensor.All())
	require.Len(t, all, 2)
	require.Equal(t, "a_test.go", all[0].RelPath, "files are ordered by path")
	require.Empty(t, idx.Files(sensor.HasLanguages("python")))
}

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		"x/Main.java":  "java",
		"app.TSX":      "typescript",
		"Dockerfile":   "docker",
		"Makefile":     "make",
		"notes.txt":    "",
		"config.yml":   "yaml",
		"pkg/thing.go": "go",
	}
	for path, want := range tests {
		require.Equal(t, want, filesystem.DetectLanguage(path), path)
	}
}
