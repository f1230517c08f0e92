// Package rules loads YAML rule repositories, compiles them, and exposes the
// set of rules that are active for an analysis.
package rules

import (
	"regexp"

	"github.com/garagon/sensorgate/internal/types"
)

// MatchMode determines how multiple patterns are combined.
type MatchMode int

const (
	MatchAny MatchMode = iota // any pattern match triggers a finding
	MatchAll                  // all patterns must match for a finding
)

// PatternType represents the type of a pattern.
type PatternType string

const (
	PatternRegex    PatternType = "regex"
	PatternContains PatternType = "contains"
)

// EnginePattern is the default engine: rules carry their own patterns.
// Rules for any other engine are implemented by a dedicated sensor.
const EnginePattern = "pattern"

// RawPattern is a single pattern as defined in YAML.
type RawPattern struct {
	Type  PatternType `yaml:"type"`
	Value string      `yaml:"value"`
}

// RawExamples contains test examples for rule self-testing.
type RawExamples struct {
	TruePositive  []string `yaml:"true_positive"`
	FalsePositive []string `yaml:"false_positive"`
}

// RawRule is the YAML representation of a rule.
type RawRule struct {
	ID              string       `yaml:"id"`
	Name            string       `yaml:"name"`
	Description     string       `yaml:"description"`
	Severity        string       `yaml:"severity"`
	Repository      string       `yaml:"repository"`
	Engine          string       `yaml:"engine"`
	Languages       []string     `yaml:"languages"`
	FileType        string       `yaml:"file_type"`
	MatchMode       string       `yaml:"match_mode"`
	Patterns        []RawPattern `yaml:"patterns"`
	ExcludePatterns []RawPattern `yaml:"exclude_patterns"`
	Examples        RawExamples  `yaml:"examples"`
}

// CompiledPattern is a pattern ready for matching.
type CompiledPattern struct {
	Type  PatternType
	Regex *regexp.Regexp // set when Type == PatternRegex
	Value string         // set when Type == PatternContains (lowercased)
}

// CompiledRule is a rule compiled and ready for execution.
type CompiledRule struct {
	ID              string
	Name            string
	Description     string
	Severity        types.Severity
	Repository      string
	Engine          string
	Languages       []string
	FileType        types.FileType // empty matches main and test files
	MatchMode       MatchMode
	Patterns        []CompiledPattern
	ExcludePatterns []CompiledPattern
	Examples        RawExamples
}
