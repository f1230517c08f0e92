// Package shellcheck runs the external shellcheck binary over shell scripts
// and reports its comments as findings.
package shellcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"

	"github.com/garagon/sensorgate/internal/sensor"
	"github.com/garagon/sensorgate/internal/types"
)

const (
	Repository = "shellcheck"
	Language   = "shell"

	// PathProperty must point at the shellcheck executable.
	PathProperty = "sensorgate.shellcheck.path"

	// DefaultBatchSize caps the number of scripts passed to one shellcheck run.
	DefaultBatchSize = 200

	// maxArgBytes keeps each command line well below common ARG_MAX limits.
	maxArgBytes = 64 << 10
)

// comment is one entry of shellcheck's -f json output.
type comment struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Level   string `json:"level"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Sensor shells out to shellcheck, one run per batch of scripts.
type Sensor struct {
	batchSize int
}

// New creates a shellcheck sensor.
func New() *Sensor { return &Sensor{batchSize: DefaultBatchSize} }

// WithBatchSize sets how many scripts are checked per shellcheck run.
// Values <= 0 are ignored.
func (s *Sensor) WithBatchSize(n int) *Sensor {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

func (s *Sensor) Describe(d *sensor.Descriptor) {
	d.Named("shellcheck").
		OnlyOnLanguages(Language).
		CreateIssuesForRuleRepositories(Repository).
		RequireProperties(PathProperty)
}

func (s *Sensor) Execute(ctx context.Context, sc *sensor.Context) ([]types.Finding, error) {
	bin, ok := sc.Config.Get(PathProperty)
	if !ok {
		return nil, fmt.Errorf("%s is not set", PathProperty)
	}

	relByPath := make(map[string]string)
	var paths []string
	for _, f := range sc.Files.Files(sensor.HasLanguages(Language)) {
		if f.Path == "" {
			continue
		}
		relByPath[f.Path] = f.RelPath
		paths = append(paths, f.Path)
	}
	if len(paths) == 0 {
		return nil, nil
	}

	var comments []comment
	for _, batch := range batches(paths, s.batchSize, maxArgBytes) {
		out, err := run(ctx, bin, batch)
		if err != nil {
			return nil, err
		}
		comments = append(comments, out...)
	}

	var findings []types.Finding
	for _, c := range comments {
		id := fmt.Sprintf("SC%d", c.Code)
		sev, active := sc.Rules.Active(id)
		if !active {
			continue
		}
		rel, ok := relByPath[c.File]
		if !ok {
			rel = c.File
		}
		findings = append(findings, types.Finding{
			RuleID:      id,
			RuleName:    c.Message,
			Repository:  Repository,
			Severity:    sev,
			Description: c.Level,
			FilePath:    rel,
			Line:        c.Line,
			Column:      c.Column,
		})
	}
	return findings, nil
}

func run(ctx context.Context, bin string, paths []string) ([]comment, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, append([]string{"-f", "json"}, paths...)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Exit status 1 means comments were emitted.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			return nil, fmt.Errorf("running %s: %w: %s", bin, err, bytes.TrimSpace(stderr.Bytes()))
		}
	}

	var comments []comment
	if err := json.Unmarshal(stdout.Bytes(), &comments); err != nil {
		return nil, fmt.Errorf("parsing shellcheck output: %w", err)
	}
	return comments, nil
}

// batches splits paths into groups of at most size entries whose joined
// length stays under maxBytes. A single longer path gets a batch of its own.
func batches(paths []string, size, maxBytes int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var (
		out [][]string
		cur []string
		n   int
	)
	for _, p := range paths {
		if len(cur) > 0 && (len(cur) == size || n+len(p)+1 > maxBytes) {
			out = append(out, cur)
			cur, n = nil, 0
		}
		cur = append(cur, p)
		n += len(p) + 1
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
