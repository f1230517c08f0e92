package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/garagon/sensorgate/internal/metrics"
	"github.com/garagon/sensorgate/internal/sensor"
)

// Scanner orchestrates one analysis pass over the registered sensors.
type Scanner struct {
	sensors     []Sensor
	minSeverity Severity
	logger      *slog.Logger
	recorder    *metrics.Recorder
}

// New creates a Scanner. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger}
}

// RegisterSensor adds a sensor to the pipeline. Sensors run in registration order.
func (s *Scanner) RegisterSensor(ss Sensor) {
	s.sensors = append(s.sensors, ss)
}

// SetMinSeverity sets the minimum severity for reported findings.
func (s *Scanner) SetMinSeverity(sev Severity) {
	s.minSeverity = sev
}

// SetRecorder enables decision and duration metrics.
func (s *Scanner) SetRecorder(r *metrics.Recorder) {
	s.recorder = r
}

// Plan evaluates every registered sensor against sc without executing any.
func (s *Scanner) Plan(sc *sensor.Context) []SensorStatus {
	opt := sensor.NewOptimizer(sc.Files, sc.Rules, sc.Config, s.logger)
	statuses := make([]SensorStatus, 0, len(s.sensors))
	for _, ss := range s.sensors {
		d := describe(ss)
		dec := opt.Evaluate(d)
		statuses = append(statuses, statusFor(d, dec))
	}
	return statuses
}

// Run executes every applicable sensor and returns the post-processed report.
// A sensor error is recorded on its status and does not stop the run;
// cancellation of ctx does.
func (s *Scanner) Run(ctx context.Context, sc *sensor.Context) (*Report, error) {
	start := time.Now()
	if sc.Logger == nil {
		sc.Logger = s.logger
	}
	opt := sensor.NewOptimizer(sc.Files, sc.Rules, sc.Config, s.logger)

	report := &Report{FilesIndexed: len(sc.Files.Files(sensor.All()))}
	var findings []Finding

	for _, ss := range s.sensors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := describe(ss)
		dec := opt.Evaluate(d)
		status := statusFor(d, dec)
		if s.recorder != nil {
			s.recorder.Decision(d.Name, dec.Execute, dec.Reason.String())
		}
		if !dec.Execute {
			report.Sensors = append(report.Sensors, status)
			continue
		}

		s.logger.Debug("executing sensor", "sensor", d.Name)
		sensorStart := time.Now()
		results, err := ss.Execute(ctx, sc)
		status.Duration = time.Since(sensorStart)
		if s.recorder != nil {
			s.recorder.Observe(d.Name, status.Duration)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			s.logger.Warn("sensor failed", "sensor", d.Name, "err", err)
			status.Error = err.Error()
		}
		for i := range results {
			if results[i].Sensor == "" {
				results[i].Sensor = d.Name
			}
		}
		findings = append(findings, results...)
		report.Sensors = append(report.Sensors, status)
	}

	report.Findings = s.postProcess(findings)
	countFindings(report)
	report.Duration = time.Since(start)
	return report, nil
}

func describe(ss Sensor) *sensor.Descriptor {
	d := sensor.Describe(ss)
	if d.Name == "" {
		d.Name = fmt.Sprintf("%T", ss)
	}
	return d
}

func statusFor(d *sensor.Descriptor, dec sensor.Decision) SensorStatus {
	return SensorStatus{
		Name:       d.Name,
		Executed:   dec.Execute,
		SkipReason: dec.Reason.String(),
		Detail:     dec.Property,
	}
}

// countFindings sets each executed sensor's count from the post-processed
// findings, so it agrees with what the report shows.
func countFindings(report *Report) {
	counts := make(map[string]int, len(report.Sensors))
	for _, f := range report.Findings {
		counts[f.Sensor]++
	}
	for i := range report.Sensors {
		if report.Sensors[i].Executed {
			report.Sensors[i].Findings = counts[report.Sensors[i].Name]
		}
	}
}

// postProcess deduplicates, filters, and sorts findings.
func (s *Scanner) postProcess(findings []Finding) []Finding {
	findings = deduplicate(findings)

	if s.minSeverity > SeverityInfo {
		var filtered []Finding
		for _, f := range findings {
			if f.Severity >= s.minSeverity {
				filtered = append(filtered, f)
			}
		}
		findings = filtered
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Severity != findings[j].Severity {
			return findings[i].Severity > findings[j].Severity
		}
		if findings[i].FilePath != findings[j].FilePath {
			return findings[i].FilePath < findings[j].FilePath
		}
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].RuleID < findings[j].RuleID
	})

	return findings
}
