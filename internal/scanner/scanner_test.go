package scanner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garagon/sensorgate/internal/config"
	"github.com/garagon/sensorgate/internal/filesystem"
	"github.com/garagon/sensorgate/internal/metrics"
	"github.com/garagon/sensorgate/internal/rules"
	"github.com/garagon/sensorgate/internal/scanner"
	"github.com/garagon/sensorgate/internal/sensor"
	"github.com/garagon/sensorgate/internal/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// mockSensor is a simple sensor for testing the scanner orchestrator.
type mockSensor struct {
	describe func(d *sensor.Descriptor)
	findings []types.Finding
	err      error
	calls    int
}

func (m *mockSensor) Describe(d *sensor.Descriptor) { m.describe(d) }

func (m *mockSensor) Execute(_ context.Context, _ *sensor.Context) ([]types.Finding, error) {
	m.calls++
	return m.findings, m.err
}

func newContext() *sensor.Context {
	return &sensor.Context{
		Files: filesystem.NewIndex([]*types.InputFile{
			{RelPath: "main.go", Language: "go", Type: types.FileTypeMain},
			{RelPath: "main_test.go", Language: "go", Type: types.FileTypeTest},
		}),
		Rules: rules.NewActiveRules([]*rules.CompiledRule{
			{ID: "GO_001", Repository: "go", Severity: types.SeverityMedium},
		}),
		Config: config.NewSettings(map[string]string{"project.key": "demo"}),
	}
}

func TestScannerRunsApplicableSensors(t *testing.T) {
	goSensor := &mockSensor{
		describe: func(d *sensor.Descriptor) {
			d.Named("go").OnlyOnLanguages("go").CreateIssuesForRuleRepositories("go")
		},
		findings: []types.Finding{{RuleID: "GO_001", Severity: types.SeverityMedium, FilePath: "main.go", Line: 3}},
	}
	javaSensor := &mockSensor{describe: func(d *sensor.Descriptor) { d.Named("java").OnlyOnLanguages("java") }}
	pySensor := &mockSensor{describe: func(d *sensor.Descriptor) { d.Named("python").CreateIssuesForRuleRepositories("python") }}
	toolSensor := &mockSensor{describe: func(d *sensor.Descriptor) { d.Named("tool").RequireProperties("tool.path") }}

	s := scanner.New(nil)
	for _, ss := range []*mockSensor{goSensor, javaSensor, pySensor, toolSensor} {
		s.RegisterSensor(ss)
	}

	report, err := s.Run(context.Background(), newContext())
	require.NoError(t, err)
	require.Equal(t, 2, report.FilesIndexed)
	require.Equal(t, 1, goSensor.calls)
	require.Zero(t, javaSensor.calls)
	require.Zero(t, pySensor.calls)
	require.Zero(t, toolSensor.calls)

	require.Len(t, report.Sensors, 4)
	require.True(t, report.Sensors[0].Executed)
	require.Equal(t, 1, report.Sensors[0].Findings)
	require.Equal(t, "no_related_file", report.Sensors[1].SkipReason)
	require.Equal(t, "no_active_rule", report.Sensors[2].SkipReason)
	require.Equal(t, "missing_property", report.Sensors[3].SkipReason)
	require.Equal(t, "tool.path", report.Sensors[3].Detail)

	require.Len(t, report.Findings, 1)
	require.Equal(t, "go", report.Findings[0].Sensor, "sensor name is filled in")
	require.Equal(t, 1, report.Executed())
}

func TestScannerPlanDoesNotExecute(t *testing.T) {
	m := &mockSensor{describe: func(d *sensor.Descriptor) { d.Named("any") }}
	s := scanner.New(nil)
	s.RegisterSensor(m)

	plan := s.Plan(newContext())
	require.Len(t, plan, 1)
	require.True(t, plan[0].Executed)
	require.Zero(t, m.calls)
}

func TestScannerUnnamedSensor(t *testing.T) {
	s := scanner.New(nil)
	s.RegisterSensor(&mockSensor{describe: func(d *sensor.Descriptor) {}})

	plan := s.Plan(newContext())
	require.Equal(t, "*scanner_test.mockSensor", plan[0].Name)
}

func TestScannerSensorErrorDoesNotAbort(t *testing.T) {
	failing := &mockSensor{describe: func(d *sensor.Descriptor) { d.Named("failing") }, err: errors.New("tool crashed")}
	next := &mockSensor{
		describe: func(d *sensor.Descriptor) { d.Named("next") },
		findings: []types.Finding{{RuleID: "R1", Severity: types.SeverityLow}},
	}
	s := scanner.New(nil)
	s.RegisterSensor(failing)
	s.RegisterSensor(next)

	report, err := s.Run(context.Background(), newContext())
	require.NoError(t, err)
	require.Equal(t, "tool crashed", report.Sensors[0].Error)
	require.Equal(t, 1, next.calls)
	require.Len(t, report.Findings, 1)
}

func TestScannerSeverityFilterAndOrder(t *testing.T) {
	m := &mockSensor{
		describe: func(d *sensor.Descriptor) { d.Named("m") },
		findings: []types.Finding{
			{RuleID: "R1", Severity: types.SeverityLow, FilePath: "a.go", Line: 1},
			{RuleID: "R2", Severity: types.SeverityHigh, FilePath: "b.go", Line: 2},
			{RuleID: "R3", Severity: types.SeverityHigh, FilePath: "a.go", Line: 9},
			{RuleID: "R3", Severity: types.SeverityCritical, FilePath: "a.go", Line: 9},
		},
	}
	s := scanner.New(nil)
	s.SetMinSeverity(types.SeverityHigh)
	s.RegisterSensor(m)

	report, err := s.Run(context.Background(), newContext())
	require.NoError(t, err)
	require.Len(t, report.Findings, 2)
	require.Equal(t, "R3", report.Findings[0].RuleID)
	require.Equal(t, types.SeverityCritical, report.Findings[0].Severity, "duplicate keeps highest severity")
	require.Equal(t, "R2", report.Findings[1].RuleID)
}

func TestScannerSensorCountsMatchReport(t *testing.T) {
	low := types.Finding{RuleID: "R1", Severity: types.SeverityLow, FilePath: "main.go", Line: 1}
	high := types.Finding{RuleID: "R2", Severity: types.SeverityHigh, FilePath: "main.go", Line: 2}
	noisy := &mockSensor{
		describe: func(d *sensor.Descriptor) { d.Named("noisy") },
		findings: []types.Finding{low, low},
	}
	mixed := &mockSensor{
		describe: func(d *sensor.Descriptor) { d.Named("mixed") },
		findings: []types.Finding{high, high, low},
	}
	s := scanner.New(nil)
	s.SetMinSeverity(types.SeverityHigh)
	s.RegisterSensor(noisy)
	s.RegisterSensor(mixed)

	report, err := s.Run(context.Background(), newContext())
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	require.Zero(t, report.Sensors[0].Findings, "filtered by severity")
	require.Equal(t, 1, report.Sensors[1].Findings, "duplicates collapse")

	total := 0
	for _, st := range report.Sensors {
		total += st.Findings
	}
	require.Equal(t, len(report.Findings), total)
}

func TestScannerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &mockSensor{describe: func(d *sensor.Descriptor) { d.Named("m") }}
	s := scanner.New(nil)
	s.RegisterSensor(m)

	_, err := s.Run(ctx, newContext())
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, m.calls)
}

func TestScannerDuration(t *testing.T) {
	s := scanner.New(nil)
	s.RegisterSensor(&mockSensor{describe: func(d *sensor.Descriptor) { d.Named("m") }})

	report, err := s.Run(context.Background(), newContext())
	require.NoError(t, err)
	require.Greater(t, report.Duration, time.Duration(0))
}

func TestScannerRecordsMetrics(t *testing.T) {
	rec := metrics.NewRecorder()
	s := scanner.New(nil)
	s.SetRecorder(rec)
	s.RegisterSensor(&mockSensor{describe: func(d *sensor.Descriptor) { d.Named("ran") }})
	s.RegisterSensor(&mockSensor{describe: func(d *sensor.Descriptor) { d.Named("skipped").OnlyOnLanguages("cobol") }})

	_, err := s.Run(context.Background(), newContext())
	require.NoError(t, err)
	require.Equal(t, 2, testutil.CollectAndCount(rec.Registry(), "sensorgate_sensor_decisions_total"))
	require.Equal(t, 1, testutil.CollectAndCount(rec.Registry(), "sensorgate_sensor_duration_seconds"))
}
