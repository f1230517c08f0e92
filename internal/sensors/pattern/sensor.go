// Package pattern implements the regex and contains rule engine. One sensor
// runs per rule repository whose rules carry their own patterns.
package pattern

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/garagon/sensorgate/internal/rules"
	"github.com/garagon/sensorgate/internal/sensor"
	"github.com/garagon/sensorgate/internal/types"
)

// Sensor matches the pattern rules of a single repository.
type Sensor struct {
	repository string
	languages  []string
	fileType   types.FileType
	rules      []*rules.CompiledRule
	workers    int
}

// New creates a sensor for the pattern rules of repository found in compiled.
// If workers <= 0, it defaults to runtime.NumCPU().
func New(repository string, compiled []*rules.CompiledRule, workers int) *Sensor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	s := &Sensor{repository: repository, workers: workers}
	anyLanguage, anyType := false, false
	for _, r := range compiled {
		if r.Repository != repository || r.Engine != rules.EnginePattern {
			continue
		}
		s.rules = append(s.rules, r)
		if len(r.Languages) == 0 {
			anyLanguage = true
		}
		s.languages = append(s.languages, r.Languages...)
		if len(s.rules) == 1 {
			s.fileType = r.FileType
		} else if r.FileType != s.fileType {
			anyType = true
		}
	}
	if anyLanguage {
		s.languages = nil
	}
	// The sensor is only restricted to a file type all of its rules share.
	if anyType {
		s.fileType = ""
	}
	return s
}

// ForRepositories creates one sensor per repository that has pattern rules,
// ordered by repository name.
func ForRepositories(compiled []*rules.CompiledRule, workers int) []*Sensor {
	seen := make(map[string]bool)
	var repos []string
	for _, r := range compiled {
		if r.Engine == rules.EnginePattern && !seen[r.Repository] {
			seen[r.Repository] = true
			repos = append(repos, r.Repository)
		}
	}
	sort.Strings(repos)
	sensors := make([]*Sensor, 0, len(repos))
	for _, repo := range repos {
		sensors = append(sensors, New(repo, compiled, workers))
	}
	return sensors
}

func (s *Sensor) Describe(d *sensor.Descriptor) {
	d.Named("pattern:" + s.repository).
		OnlyOnLanguages(s.languages...).
		OnlyOnFileType(s.fileType).
		CreateIssuesForRuleRepositories(s.repository)
}

func (s *Sensor) Execute(ctx context.Context, sc *sensor.Context) ([]types.Finding, error) {
	pred := sensor.All()
	if len(s.languages) > 0 {
		pred = sensor.HasLanguages(s.languages...)
	}
	if s.fileType != "" {
		pred = sensor.And(pred, sensor.HasType(s.fileType))
	}
	files := sc.Files.Files(pred)

	active := make([]activeRule, 0, len(s.rules))
	for _, r := range s.rules {
		if sev, ok := sc.Rules.Active(r.ID); ok {
			active = append(active, activeRule{CompiledRule: r, severity: sev})
		}
	}
	if len(active) == 0 || len(files) == 0 {
		return nil, nil
	}

	// Fan-out files to workers
	fileCh := make(chan *types.InputFile, len(files))
	for _, f := range files {
		fileCh <- f
	}
	close(fileCh)

	var (
		mu       sync.Mutex
		findings []types.Finding
		wg       sync.WaitGroup
	)
	for range s.workers {
		wg.Go(func() {
			for f := range fileCh {
				if ctx.Err() != nil {
					return
				}
				if err := f.LoadContent(); err != nil {
					sc.Log().Debug("skipping unreadable file", "path", f.RelPath, "err", err)
					continue
				}
				results := matchFile(active, f)
				if len(results) > 0 {
					mu.Lock()
					findings = append(findings, results...)
					mu.Unlock()
				}
			}
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return findings, nil
}
