package sensorgate

import (
	"log/slog"

	"github.com/garagon/sensorgate/internal/config"
	"github.com/garagon/sensorgate/internal/types"
)

// analysisConfig holds the resolved configuration for an analysis.
type analysisConfig struct {
	customRulesDir       string
	disabledRules        []string
	disabledRepositories []string
	ruleOverrides        map[string]RuleOverride
	minSeverity          Severity
	minSeveritySet       bool
	workers              int
	ignorePatterns       []string
	testPatterns         []string
	properties           map[string]string
	changedOnly          bool
	metricsFile          string
	logger               *slog.Logger
	ignoreProjectConfig  bool
	repository           string // only for ListRules
}

// merge folds the project's .sensorgate.yml into cfg. Explicit options win.
func (c *analysisConfig) merge(project config.Config) {
	if c.customRulesDir == "" {
		c.customRulesDir = resolveDir(project.Dir, project.Rules)
	}
	if len(project.RuleOverrides) > 0 {
		merged := make(map[string]RuleOverride, len(project.RuleOverrides)+len(c.ruleOverrides))
		for id, ovr := range project.RuleOverrides {
			merged[id] = RuleOverride{Severity: ovr.Severity, Disabled: ovr.Disabled}
		}
		for id, ovr := range c.ruleOverrides {
			merged[id] = ovr
		}
		c.ruleOverrides = merged
	}
	c.disabledRepositories = append(c.disabledRepositories, project.DisabledRepositories...)
	c.ignorePatterns = append(c.ignorePatterns, project.Ignore...)
	if len(c.testPatterns) == 0 {
		c.testPatterns = project.TestPatterns
	}
	if !c.minSeveritySet && project.Severity != "" {
		if sev, err := types.ParseSeverity(project.Severity); err == nil {
			c.minSeverity = sev
		} else {
			c.logger.Warn("ignoring configured severity", "err", err)
		}
	}
}

// Option configures an analysis.
type Option func(*analysisConfig)

// WithCustomRules loads additional rules from a directory.
func WithCustomRules(dir string) Option {
	return func(c *analysisConfig) {
		c.customRulesDir = dir
	}
}

// WithDisabledRules excludes specific rule IDs from the analysis.
func WithDisabledRules(ids ...string) Option {
	return func(c *analysisConfig) {
		c.disabledRules = append(c.disabledRules, ids...)
	}
}

// WithDisabledRepositories deactivates every rule of the given repositories.
func WithDisabledRepositories(repos ...string) Option {
	return func(c *analysisConfig) {
		c.disabledRepositories = append(c.disabledRepositories, repos...)
	}
}

// WithRuleOverrides applies severity overrides or disables rules.
func WithRuleOverrides(overrides map[string]RuleOverride) Option {
	return func(c *analysisConfig) {
		c.ruleOverrides = overrides
	}
}

// WithMinSeverity sets the minimum severity threshold for reported findings.
func WithMinSeverity(sev Severity) Option {
	return func(c *analysisConfig) {
		c.minSeverity = sev
		c.minSeveritySet = true
	}
}

// WithWorkers sets the number of concurrent workers per pattern sensor (default: NumCPU).
func WithWorkers(n int) Option {
	return func(c *analysisConfig) {
		c.workers = n
	}
}

// WithIgnorePatterns sets file globs to leave out of the index.
func WithIgnorePatterns(patterns []string) Option {
	return func(c *analysisConfig) {
		c.ignorePatterns = patterns
	}
}

// WithTestPatterns replaces the globs that classify files as test code.
func WithTestPatterns(patterns []string) Option {
	return func(c *analysisConfig) {
		c.testPatterns = patterns
	}
}

// WithProperties sets analysis properties. They take precedence over the
// project's properties file and .sensorgate.yml.
func WithProperties(props map[string]string) Option {
	return func(c *analysisConfig) {
		if c.properties == nil {
			c.properties = make(map[string]string, len(props))
		}
		for k, v := range props {
			c.properties[k] = v
		}
	}
}

// WithChangedOnly restricts the analysis to files git reports as changed.
func WithChangedOnly() Option {
	return func(c *analysisConfig) {
		c.changedOnly = true
	}
}

// WithMetricsFile writes sensor decision and duration metrics to path in
// Prometheus text format after the analysis.
func WithMetricsFile(path string) Option {
	return func(c *analysisConfig) {
		c.metricsFile = path
	}
}

// WithLogger sets the logger used for diagnostics (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *analysisConfig) {
		c.logger = l
	}
}

// WithoutProjectConfig ignores .sensorgate.yml and the properties file.
func WithoutProjectConfig() Option {
	return func(c *analysisConfig) {
		c.ignoreProjectConfig = true
	}
}

// WithRepository filters rules by repository (only applies to ListRules).
func WithRepository(repo string) Option {
	return func(c *analysisConfig) {
		c.repository = repo
	}
}
