// Package types defines shared data structures (InputFile, Finding, Severity,
// Report) used across the sensor, scanner, filesystem and output packages to
// prevent import cycles.
package types

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Severity represents the severity level of a finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityLow:
		return "LOW"
	case SeverityInfo:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ParseSeverity converts a string to a Severity level.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL":
		return SeverityCritical, nil
	case "HIGH":
		return SeverityHigh, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "LOW":
		return SeverityLow, nil
	case "INFO":
		return SeverityInfo, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity: %q", s)
	}
}

// DowngradeSeverity drops severity by one level, flooring at LOW.
// INFO is left unchanged (it's a different class, not part of the severity ladder).
func DowngradeSeverity(sev Severity) Severity {
	switch sev {
	case SeverityCritical:
		return SeverityHigh
	case SeverityHigh:
		return SeverityMedium
	case SeverityMedium:
		return SeverityLow
	default:
		return sev
	}
}

// FileType classifies a project file as production or test code.
type FileType string

const (
	FileTypeMain FileType = "main"
	FileTypeTest FileType = "test"
)

// ParseFileType accepts "main" or "test" (case-insensitive). The empty
// string parses to the empty FileType, meaning "no restriction".
func ParseFileType(s string) (FileType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "main":
		return FileTypeMain, nil
	case "test":
		return FileTypeTest, nil
	default:
		return "", fmt.Errorf("unknown file type: %q", s)
	}
}

// InputFile is one indexed project file.
type InputFile struct {
	Path     string   `json:"-"`
	RelPath  string   `json:"path"`
	Language string   `json:"language,omitempty"`
	Type     FileType `json:"type"`
	Content  []byte   `json:"-"`
}

// LoadContent reads the file content into memory. Files built in memory
// (no Path) keep whatever Content they were created with.
func (f *InputFile) LoadContent() error {
	if f.Path == "" || f.Content != nil {
		return nil
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return err
	}
	f.Content = data
	return nil
}

// Lines returns the content split into lines.
func (f *InputFile) Lines() []string {
	return strings.Split(string(f.Content), "\n")
}

// ContextLine represents a line of source code around a finding.
type ContextLine struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
	IsMatch bool   `json:"is_match"`
}

// Finding represents a single issue raised by a sensor.
type Finding struct {
	RuleID      string        `json:"rule_id"`
	RuleName    string        `json:"rule_name"`
	Repository  string        `json:"repository"`
	Severity    Severity      `json:"severity"`
	Description string        `json:"description,omitempty"`
	FilePath    string        `json:"file_path"`
	Line        int           `json:"line"`
	Column      int           `json:"column,omitempty"`
	MatchedText string        `json:"matched_text,omitempty"`
	Context     []ContextLine `json:"context,omitempty"`
	Sensor      string        `json:"sensor"`
}

// SensorStatus records what happened to one registered sensor.
type SensorStatus struct {
	Name       string        `json:"name"`
	Executed   bool          `json:"executed"`
	SkipReason string        `json:"skip_reason,omitempty"`
	Detail     string        `json:"detail,omitempty"`
	Findings   int           `json:"findings"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"-"`
}

// Report holds the complete results of one analysis pass.
type Report struct {
	Findings     []Finding      `json:"findings"`
	Sensors      []SensorStatus `json:"sensors"`
	FilesIndexed int            `json:"files_indexed"`
	RulesActive  int            `json:"rules_active"`
	Languages    map[string]int `json:"languages,omitempty"`
	Duration     time.Duration  `json:"-"`
	Target       string         `json:"-"`
}

// Executed returns the number of sensors that ran.
func (r *Report) Executed() int {
	n := 0
	for _, s := range r.Sensors {
		if s.Executed {
			n++
		}
	}
	return n
}

// MarshalJSON implements custom JSON marshaling so Duration serializes as milliseconds.
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	return json.Marshal(struct {
		Alias
		DurationMS int64 `json:"duration_ms"`
	}{
		Alias:      Alias(r),
		DurationMS: r.Duration.Milliseconds(),
	})
}
