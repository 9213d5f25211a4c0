package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"

	"github.com/adept-bench/benchctl/internal/testutil"
)

func TestGeneratePerformanceReport_GroupMeans(t *testing.T) {
	// GIVEN a table with two rows per variant
	dir := fs.NewDir(t, "derived", fs.WithFile("performance-results.csv",
		"log_file,execution_time,with_adept,time_per_event\n"+
			"a.log,10.0,True,1.0\n"+
			"b.log,20.0,False,2.0\n"+
			"c.log,30.0,True,3.0\n"+
			"d.log,40.0,False,4.0\n"))
	out := filepath.Join(t.TempDir(), "reports")

	// WHEN the report is generated
	outputs, err := GeneratePerformanceReport(dir.Join("performance-results.csv"), out)
	require.NoError(t, err)

	// THEN metrics.json holds the row count and both means
	data, err := os.ReadFile(outputs.MetricsPath)
	require.NoError(t, err)
	var metrics map[string]float64
	require.NoError(t, json.Unmarshal(data, &metrics))
	assert.Equal(t, 4.0, metrics["n_rows"])
	testutil.AssertFloat64Equal(t, "with adept", 2.0, metrics["time_per_event_with_adept_mean"], 1e-12)
	testutil.AssertFloat64Equal(t, "without adept", 3.0, metrics["time_per_event_without_adept_mean"], 1e-12)

	// AND the textfile export carries the same numbers
	prom, err := os.ReadFile(outputs.PrometheusPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "benchctl_rows 4")
	assert.Contains(t, string(prom), `benchctl_time_per_event_seconds_mean{with_adept="true"} 2`)
	assert.Contains(t, string(prom), `benchctl_time_per_event_seconds_mean{with_adept="false"} 3`)
	assert.Contains(t, string(prom), `benchctl_execution_time_seconds_mean{with_adept="false"} 30`)
}

func TestGeneratePerformanceReport_OneVariantOnly(t *testing.T) {
	dir := fs.NewDir(t, "derived", fs.WithFile("p.csv",
		"with_adept,time_per_event\nTrue,0.5\nTrue,\n"))

	outputs, err := GeneratePerformanceReport(dir.Join("p.csv"), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 2, outputs.Metrics["n_rows"])
	assert.Equal(t, 0.5, outputs.Metrics["time_per_event_with_adept_mean"])
	assert.NotContains(t, outputs.Metrics, "time_per_event_without_adept_mean")
}

func TestGeneratePerformanceReport_WithoutTimingColumns(t *testing.T) {
	dir := fs.NewDir(t, "derived", fs.WithFile("p.csv", "log_file,execution_time\nx.log,1.0\n"))

	outputs, err := GeneratePerformanceReport(dir.Join("p.csv"), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"n_rows": 1}, outputs.Metrics)
	prom, err := os.ReadFile(outputs.PrometheusPath)
	require.NoError(t, err)
	assert.NotContains(t, string(prom), "time_per_event")
}

func TestGeneratePerformanceReport_MissingTable(t *testing.T) {
	_, err := GeneratePerformanceReport(filepath.Join(t.TempDir(), "missing.csv"), t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
