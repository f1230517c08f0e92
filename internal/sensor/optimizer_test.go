package sensor_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/garagon/sensorgate/internal/sensor"
	"github.com/garagon/sensorgate/internal/types"
	"github.com/stretchr/testify/require"
)

type fakeFS struct {
	files []*types.InputFile
	calls int
}

func (f *fakeFS) HasFiles(pred sensor.FilePredicate) bool {
	f.calls++
	for _, file := range f.files {
		if pred.Apply(file) {
			return true
		}
	}
	return false
}

type fakeRules struct {
	active  map[string]bool
	queried []string
}

func (r *fakeRules) HasActiveRule(repo string) bool {
	r.queried = append(r.queried, repo)
	return r.active[repo]
}

type fakeSettings struct {
	values  map[string]string
	queried []string
}

func (s *fakeSettings) HasValue(key string) bool {
	s.queried = append(s.queried, key)
	_, ok := s.values[key]
	return ok
}

func newFakes() (*fakeFS, *fakeRules, *fakeSettings) {
	return &fakeFS{}, &fakeRules{active: map[string]bool{}}, &fakeSettings{values: map[string]string{}}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestShouldExecuteEmptyDescriptor(t *testing.T) {
	fs, rules, settings := newFakes()
	opt := sensor.NewOptimizer(fs, rules, settings, quietLogger())

	require.True(t, opt.ShouldExecute(&sensor.Descriptor{Name: "anything"}))
	require.Zero(t, fs.calls)
	require.Empty(t, rules.queried)
	require.Empty(t, settings.queried)
}

func TestNoRelatedFileShortCircuits(t *testing.T) {
	// Scenario A: Java sensor on a project without Java files.
	fs, rules, settings := newFakes()
	fs.files = []*types.InputFile{{RelPath: "main.go", Language: "go", Type: types.FileTypeMain}}
	opt := sensor.NewOptimizer(fs, rules, settings, quietLogger())

	d := (&sensor.Descriptor{}).Named("java").OnlyOnLanguages("java").
		CreateIssuesForRuleRepositories("java").RequireProperties("sonar.java.binaries")

	dec := opt.Evaluate(d)
	require.False(t, dec.Execute)
	require.Equal(t, sensor.ReasonNoRelatedFile, dec.Reason)
	require.Equal(t, 1, fs.calls)
	require.Empty(t, rules.queried, "rules must not be queried after a file miss")
	require.Empty(t, settings.queried, "settings must not be queried after a file miss")
}

func TestFileConditionIgnoresOtherCollaborators(t *testing.T) {
	fs, rules, settings := newFakes()
	fs.files = []*types.InputFile{{RelPath: "A.java", Language: "java", Type: types.FileTypeMain}}
	opt := sensor.NewOptimizer(fs, rules, settings, quietLogger())

	require.True(t, opt.ShouldExecute((&sensor.Descriptor{}).OnlyOnLanguages("java")))
	require.True(t, opt.ShouldExecute((&sensor.Descriptor{}).OnlyOnFileType(types.FileTypeMain)))
}

func TestFileConditionCombinesLanguageAndType(t *testing.T) {
	fs, rules, settings := newFakes()
	fs.files = []*types.InputFile{
		{RelPath: "src/A.java", Language: "java", Type: types.FileTypeMain},
		{RelPath: "test/b_test.go", Language: "go", Type: types.FileTypeTest},
	}
	opt := sensor.NewOptimizer(fs, rules, settings, quietLogger())

	tests := []struct {
		name  string
		langs []string
		typ   types.FileType
		want  bool
	}{
		{"java main", []string{"java"}, types.FileTypeMain, true},
		{"java test", []string{"java"}, types.FileTypeTest, false},
		{"go or java test", []string{"go", "java"}, types.FileTypeTest, true},
		{"any test", nil, types.FileTypeTest, true},
		{"python any type", []string{"python"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := (&sensor.Descriptor{}).OnlyOnLanguages(tt.langs...).OnlyOnFileType(tt.typ)
			require.Equal(t, tt.want, opt.ShouldExecute(d))
		})
	}
}

func TestActiveRulesAnyRepository(t *testing.T) {
	// Scenario B: one of two repositories is active.
	fs, rules, settings := newFakes()
	rules.active["repoB"] = true
	opt := sensor.NewOptimizer(fs, rules, settings, quietLogger())

	d := (&sensor.Descriptor{}).CreateIssuesForRuleRepositories("repoA", "repoB")
	require.True(t, opt.ShouldExecute(d))
	require.Equal(t, []string{"repoA", "repoB"}, rules.queried)
	require.Zero(t, fs.calls)
}

func TestActiveRulesStopsAtFirstActive(t *testing.T) {
	fs, rules, settings := newFakes()
	rules.active["repoA"] = true
	rules.active["repoB"] = true
	opt := sensor.NewOptimizer(fs, rules, settings, quietLogger())

	require.True(t, opt.ShouldExecute((&sensor.Descriptor{}).CreateIssuesForRuleRepositories("repoA", "repoB")))
	require.Equal(t, []string{"repoA"}, rules.queried)
}

func TestNoActiveRuleSkipsSettings(t *testing.T) {
	fs, rules, settings := newFakes()
	settings.values["sonar.foo.path"] = "/usr/bin/foo"
	opt := sensor.NewOptimizer(fs, rules, settings, quietLogger())

	d := (&sensor.Descriptor{}).CreateIssuesForRuleRepositories("repoA", "repoB").RequireProperties("sonar.foo.path")
	dec := opt.Evaluate(d)
	require.False(t, dec.Execute)
	require.Equal(t, sensor.ReasonNoActiveRule, dec.Reason)
	require.Empty(t, settings.queried)
}

func TestMissingProperty(t *testing.T) {
	// Scenario C: the only required property is unset.
	fs, rules, settings := newFakes()
	opt := sensor.NewOptimizer(fs, rules, settings, quietLogger())

	dec := opt.Evaluate((&sensor.Descriptor{}).RequireProperties("sonar.foo.path"))
	require.False(t, dec.Execute)
	require.Equal(t, sensor.ReasonMissingProperty, dec.Reason)
	require.Equal(t, "sonar.foo.path", dec.Property)
}

func TestAllPropertiesRequired(t *testing.T) {
	fs, rules, settings := newFakes()
	settings.values["a"] = "1"
	settings.values["c"] = "3"
	opt := sensor.NewOptimizer(fs, rules, settings, quietLogger())

	dec := opt.Evaluate((&sensor.Descriptor{}).RequireProperties("a", "b", "c"))
	require.False(t, dec.Execute)
	require.Equal(t, "b", dec.Property)
	require.Equal(t, []string{"a", "b"}, settings.queried)

	settings.values["b"] = "2"
	require.True(t, opt.ShouldExecute((&sensor.Descriptor{}).RequireProperties("a", "b", "c")))
}

func TestAllConditionsSatisfied(t *testing.T) {
	// Scenario D.
	fs, rules, settings := newFakes()
	fs.files = []*types.InputFile{{RelPath: "run.sh", Language: "shell", Type: types.FileTypeMain}}
	rules.active["shellcheck"] = true
	settings.values["sensorgate.shellcheck.path"] = "/usr/bin/shellcheck"
	opt := sensor.NewOptimizer(fs, rules, settings, quietLogger())

	d := (&sensor.Descriptor{}).
		Named("ShellCheck").
		OnlyOnLanguages("shell").
		OnlyOnFileType(types.FileTypeMain).
		CreateIssuesForRuleRepositories("shellcheck").
		RequireProperties("sensorgate.shellcheck.path")

	dec := opt.Evaluate(d)
	require.True(t, dec.Execute)
	require.Equal(t, sensor.ReasonNone, dec.Reason)
	require.Equal(t, 1, fs.calls)
	require.Equal(t, []string{"shellcheck"}, rules.queried)
	require.Equal(t, []string{"sensorgate.shellcheck.path"}, settings.queried)
}

func TestSkipIsLoggedAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	fs, rules, settings := newFakes()
	opt := sensor.NewOptimizer(fs, rules, settings, logger)

	opt.ShouldExecute((&sensor.Descriptor{}).Named("Foo").RequireProperties("sonar.foo.path"))
	out := buf.String()
	require.Contains(t, out, "level=DEBUG")
	require.Contains(t, out, "'Foo' skipped because one of the required properties is missing")
	require.Contains(t, out, "property=sonar.foo.path")
}

func TestNilLoggerUsesDefault(t *testing.T) {
	fs, rules, settings := newFakes()
	opt := sensor.NewOptimizer(fs, rules, settings, nil)
	require.False(t, opt.ShouldExecute((&sensor.Descriptor{}).CreateIssuesForRuleRepositories("none")))
}
