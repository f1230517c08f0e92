package sensor

import (
	"fmt"
	"log/slog"
)

// FileSystem answers whether the current project has a file matching a predicate.
type FileSystem interface {
	HasFiles(pred FilePredicate) bool
}

// ActiveRules answers whether a rule repository has at least one active rule.
type ActiveRules interface {
	HasActiveRule(repository string) bool
}

// Settings answers whether a configuration key currently has a value.
type Settings interface {
	HasValue(key string) bool
}

// Reason identifies the condition that made a sensor inapplicable.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNoRelatedFile
	ReasonNoActiveRule
	ReasonMissingProperty
)

func (r Reason) String() string {
	switch r {
	case ReasonNoRelatedFile:
		return "no_related_file"
	case ReasonNoActiveRule:
		return "no_active_rule"
	case ReasonMissingProperty:
		return "missing_property"
	default:
		return ""
	}
}

// Message is the operator-facing explanation of the reason.
func (r Reason) Message() string {
	switch r {
	case ReasonNoRelatedFile:
		return "there is no related file in current project"
	case ReasonNoActiveRule:
		return "there is no related rule activated in the quality profile"
	case ReasonMissingProperty:
		return "one of the required properties is missing"
	default:
		return ""
	}
}

// Decision is the outcome of evaluating one descriptor.
type Decision struct {
	Execute bool
	Reason  Reason
	// Property is the first missing key when Reason is ReasonMissingProperty.
	Property string
}

// Optimizer decides whether a sensor should run, given the project files,
// the active rules and the configuration of the current analysis.
type Optimizer struct {
	fs       FileSystem
	rules    ActiveRules
	settings Settings
	logger   *slog.Logger
}

// NewOptimizer creates an Optimizer over the given collaborators.
// A nil logger falls back to slog.Default().
func NewOptimizer(fs FileSystem, rules ActiveRules, settings Settings, logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{fs: fs, rules: rules, settings: settings, logger: logger}
}

// ShouldExecute reports whether the sensor described by d should run.
func (o *Optimizer) ShouldExecute(d *Descriptor) bool {
	return o.Evaluate(d).Execute
}

// Evaluate checks file relevance, then active rules, then required
// properties, stopping at the first failing condition.
func (o *Optimizer) Evaluate(d *Descriptor) Decision {
	if !o.fsCondition(d) {
		return o.skip(d, Decision{Reason: ReasonNoRelatedFile})
	}
	if !o.activeRulesCondition(d) {
		return o.skip(d, Decision{Reason: ReasonNoActiveRule})
	}
	if missing, ok := o.settingsCondition(d); !ok {
		return o.skip(d, Decision{Reason: ReasonMissingProperty, Property: missing})
	}
	return Decision{Execute: true}
}

func (o *Optimizer) skip(d *Descriptor, dec Decision) Decision {
	attrs := []any{"sensor", d.Name, "reason", dec.Reason.String()}
	if dec.Property != "" {
		attrs = append(attrs, "property", dec.Property)
	}
	o.logger.Debug(fmt.Sprintf("'%s' skipped because %s", d.Name, dec.Reason.Message()), attrs...)
	return dec
}

func (o *Optimizer) fsCondition(d *Descriptor) bool {
	if len(d.Languages) == 0 && d.Type == "" {
		return true
	}
	langPred := All()
	if len(d.Languages) > 0 {
		langPred = HasLanguages(d.Languages...)
	}
	typePred := All()
	if d.Type != "" {
		typePred = HasType(d.Type)
	}
	return o.fs.HasFiles(And(langPred, typePred))
}

func (o *Optimizer) activeRulesCondition(d *Descriptor) bool {
	if len(d.RuleRepositories) == 0 {
		return true
	}
	for _, repo := range d.RuleRepositories {
		if o.rules.HasActiveRule(repo) {
			return true
		}
	}
	return false
}

func (o *Optimizer) settingsCondition(d *Descriptor) (string, bool) {
	if len(d.Properties) == 0 {
		return "", true
	}
	for _, key := range d.Properties {
		if !o.settings.HasValue(key) {
			return key, false
		}
	}
	return "", true
}
