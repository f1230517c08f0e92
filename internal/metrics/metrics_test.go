package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/garagon/sensorgate/internal/metrics"
)

func TestRecorderDecisions(t *testing.T) {
	r := metrics.NewRecorder()
	r.Decision("pattern:go", true, "")
	r.Decision("pattern:go", true, "")
	r.Decision("ShellCheck", false, "missing_property")

	require.Equal(t, 2, testutil.CollectAndCount(r.Registry(), "sensorgate_sensor_decisions_total"))

	expected := `
# HELP sensorgate_sensor_decisions_total Sensor applicability decisions by outcome and skip reason
# TYPE sensorgate_sensor_decisions_total counter
sensorgate_sensor_decisions_total{outcome="executed",reason="none",sensor="pattern:go"} 2
sensorgate_sensor_decisions_total{outcome="skipped",reason="missing_property",sensor="ShellCheck"} 1
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "sensorgate_sensor_decisions_total"))
}

func TestRecorderWriteFile(t *testing.T) {
	r := metrics.NewRecorder()
	r.Decision("markdown", false, "no_related_file")
	r.Observe("pattern:secrets", 12*time.Millisecond)

	path := filepath.Join(t.TempDir(), "sensorgate.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	require.Contains(t, out, `sensorgate_sensor_decisions_total{outcome="skipped",reason="no_related_file",sensor="markdown"} 1`)
	require.Contains(t, out, `sensorgate_sensor_duration_seconds_count{sensor="pattern:secrets"} 1`)
}
