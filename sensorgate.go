// Package sensorgate provides a public API for running analysis sensors over
// a project, skipping the ones that cannot produce anything useful for it.
//
// This is the library entry point. For the CLI tool, see cmd/sensorgate/.
package sensorgate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/garagon/sensorgate/internal/config"
	"github.com/garagon/sensorgate/internal/filesystem"
	"github.com/garagon/sensorgate/internal/metrics"
	"github.com/garagon/sensorgate/internal/rules"
	"github.com/garagon/sensorgate/internal/rules/builtin"
	"github.com/garagon/sensorgate/internal/scanner"
	"github.com/garagon/sensorgate/internal/sensor"
	"github.com/garagon/sensorgate/internal/sensors/markdown"
	"github.com/garagon/sensorgate/internal/sensors/pattern"
	"github.com/garagon/sensorgate/internal/sensors/shellcheck"
	"github.com/garagon/sensorgate/internal/types"
)

// Re-export core types from internal/types so consumers don't need to
// import internal packages.
type (
	Severity     = types.Severity
	Finding      = types.Finding
	Report       = types.Report
	SensorStatus = types.SensorStatus
	ContextLine  = types.ContextLine
)

const (
	SeverityInfo     = types.SeverityInfo
	SeverityLow      = types.SeverityLow
	SeverityMedium   = types.SeverityMedium
	SeverityHigh     = types.SeverityHigh
	SeverityCritical = types.SeverityCritical
)

// ParseSeverity converts a severity name such as "high" to a Severity.
var ParseSeverity = types.ParseSeverity

// ShellcheckPathProperty names the property that enables the shellcheck sensor.
const ShellcheckPathProperty = shellcheck.PathProperty

// RuleOverride allows changing the severity of a rule or disabling it.
type RuleOverride struct {
	Severity string
	Disabled bool
}

// RuleInfo provides summary metadata about a rule.
type RuleInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Severity   string   `json:"severity"`
	Repository string   `json:"repository"`
	Engine     string   `json:"engine"`
	Languages  []string `json:"languages,omitempty"`
	FileType   string   `json:"file_type,omitempty"`
}

// Analyze indexes the project at path, runs every applicable sensor and
// returns the report. Sensors that are not applicable appear in
// Report.Sensors with their skip reason.
func Analyze(ctx context.Context, path string, opts ...Option) (*Report, error) {
	cfg := applyOpts(opts)
	a, err := prepare(path, cfg)
	if err != nil {
		return nil, err
	}

	var recorder *metrics.Recorder
	if cfg.metricsFile != "" {
		recorder = metrics.NewRecorder()
		a.scanner.SetRecorder(recorder)
	}

	report, err := a.scanner.Run(ctx, a.context)
	if err != nil {
		return nil, err
	}
	report.RulesActive = a.active.Len()
	report.Languages = a.index.Languages()
	report.Target = path

	if recorder != nil {
		if err := recorder.WriteFile(cfg.metricsFile); err != nil {
			return nil, fmt.Errorf("writing metrics to %s: %w", cfg.metricsFile, err)
		}
	}
	return report, nil
}

// ExplainSensors reports, for every sensor, whether Analyze would execute it
// against the project at path and if not, why. Nothing is executed.
func ExplainSensors(ctx context.Context, path string, opts ...Option) ([]SensorStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, err := prepare(path, applyOpts(opts))
	if err != nil {
		return nil, err
	}
	return a.scanner.Plan(a.context), nil
}

// ListRules returns the rules that would be active, sorted by ID.
// Use WithRepository to filter by repository.
func ListRules(opts ...Option) ([]RuleInfo, error) {
	cfg := applyOpts(opts)
	_, active, err := loadAndCompile(cfg)
	if err != nil {
		return nil, err
	}

	ar := rules.NewActiveRules(active)
	var selected []*rules.CompiledRule
	for _, repo := range ar.Repositories() {
		if cfg.repository == "" || strings.EqualFold(repo, cfg.repository) {
			selected = append(selected, ar.FindByRepository(repo)...)
		}
	}
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].ID < selected[j].ID
	})

	infos := make([]RuleInfo, 0, len(selected))
	for _, r := range selected {
		infos = append(infos, RuleInfo{
			ID:         r.ID,
			Name:       r.Name,
			Severity:   r.Severity.String(),
			Repository: r.Repository,
			Engine:     r.Engine,
			Languages:  r.Languages,
			FileType:   string(r.FileType),
		})
	}
	return infos, nil
}

// --- internal helpers ---

type analysis struct {
	scanner *scanner.Scanner
	context *sensor.Context
	active  *rules.ActiveRules
	index   *filesystem.Index
}

func applyOpts(opts []Option) *analysisConfig {
	cfg := &analysisConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}

// prepare resolves the project configuration, indexes the files, loads the
// rules and registers the standard sensors.
func prepare(path string, cfg *analysisConfig) (*analysis, error) {
	settings := config.NewSettings(cfg.properties)
	if !cfg.ignoreProjectConfig {
		project, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg.merge(project)
		if settings, err = config.LoadSettings(project, cfg.properties); err != nil {
			return nil, fmt.Errorf("loading properties: %w", err)
		}
	}

	all, active, err := loadAndCompile(cfg)
	if err != nil {
		return nil, err
	}

	idx, err := filesystem.Discover(path, filesystem.Options{
		Ignore:       cfg.ignorePatterns,
		TestPatterns: cfg.testPatterns,
		ChangedOnly:  cfg.changedOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", path, err)
	}
	cfg.logger.Debug("project indexed", "path", path, "files", idx.Len(), "languages", idx.Languages())
	cfg.logger.Debug("analysis properties", "keys", settings.Keys())

	s := scanner.New(cfg.logger)
	s.SetMinSeverity(cfg.minSeverity)
	for _, ps := range pattern.ForRepositories(all, cfg.workers) {
		s.RegisterSensor(ps)
	}
	s.RegisterSensor(markdown.New())
	s.RegisterSensor(shellcheck.New())

	activeRules := rules.NewActiveRules(active)
	return &analysis{
		scanner: s,
		context: &sensor.Context{
			Files:  idx,
			Rules:  activeRules,
			Config: settings,
			Logger: cfg.logger,
		},
		active: activeRules,
		index:  idx,
	}, nil
}

// loadAndCompile loads built-in (and optionally custom) rules and compiles
// them. It returns every compiled rule and the subset left active after
// overrides and filters.
func loadAndCompile(cfg *analysisConfig) (all, active []*rules.CompiledRule, err error) {
	rawRules, err := rules.LoadFromFS(builtin.FS())
	if err != nil {
		return nil, nil, fmt.Errorf("loading built-in rules: %w", err)
	}

	if cfg.customRulesDir != "" {
		custom, err := rules.LoadFromDir(cfg.customRulesDir)
		if err != nil {
			return nil, nil, fmt.Errorf("loading custom rules from %s: %w", cfg.customRulesDir, err)
		}
		rawRules = append(rawRules, custom...)
	}

	all, compileErrs := rules.CompileAll(rawRules)
	for _, e := range compileErrs {
		cfg.logger.Warn("skipping rule", "err", e)
	}

	active = all
	if len(cfg.ruleOverrides) > 0 {
		overrides := make(map[string]rules.RuleOverride, len(cfg.ruleOverrides))
		for id, ovr := range cfg.ruleOverrides {
			overrides[id] = rules.RuleOverride{Severity: ovr.Severity, Disabled: ovr.Disabled}
		}
		var overrideErrs []error
		active, overrideErrs = rules.ApplyOverrides(active, overrides)
		for _, e := range overrideErrs {
			cfg.logger.Warn("ignoring override", "err", e)
		}
	}

	if len(cfg.disabledRules) > 0 {
		disabled := make(map[string]bool, len(cfg.disabledRules))
		for _, id := range cfg.disabledRules {
			disabled[strings.TrimSpace(id)] = true
		}
		active = rules.FilterByIDs(active, disabled)
	}

	if len(cfg.disabledRepositories) > 0 {
		disabled := make(map[string]bool, len(cfg.disabledRepositories))
		for _, repo := range cfg.disabledRepositories {
			disabled[strings.TrimSpace(repo)] = true
		}
		active = rules.FilterByRepositories(active, disabled)
	}

	return all, active, nil
}

// resolveDir makes a config-relative path absolute against dir.
func resolveDir(dir, p string) string {
	if p == "" || filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
