// Package report summarizes a performance results table into metrics.json
// and a Prometheus textfile-collector export.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	MetricsFileName    = "metrics.json"
	PrometheusFileName = "metrics.prom"
)

// Outputs lists the files a report wrote and the metrics it computed.
type Outputs struct {
	MetricsPath    string
	PrometheusPath string
	Metrics        map[string]any
}

// table is a parsed CSV with rows keyed by column.
type table struct {
	header []string
	rows   []map[string]string
}

func (t *table) has(col string) bool {
	for _, h := range t.header {
		if h == col {
			return true
		}
	}
	return false
}

// groupMean averages col over rows whose with_adept cell parses to want.
// Cells that are not numbers are skipped.
func (t *table) groupMean(col string, want bool) (float64, bool) {
	var sum float64
	n := 0
	for _, r := range t.rows {
		adept, ok := parseBool(r["with_adept"])
		if !ok || adept != want {
			continue
		}
		v, err := strconv.ParseFloat(r[col], 64)
		if err != nil {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	t := &table{header: header}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// GeneratePerformanceReport reads csvPath and writes metrics.json and
// metrics.prom into outDir.
func GeneratePerformanceReport(csvPath, outDir string) (*Outputs, error) {
	t, err := readTable(csvPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}

	metrics := map[string]any{"n_rows": len(t.rows)}
	if t.has("with_adept") && t.has("time_per_event") {
		if m, ok := t.groupMean("time_per_event", true); ok {
			metrics["time_per_event_with_adept_mean"] = m
		}
		if m, ok := t.groupMean("time_per_event", false); ok {
			metrics["time_per_event_without_adept_mean"] = m
		}
	}

	out := &Outputs{
		MetricsPath:    filepath.Join(outDir, MetricsFileName),
		PrometheusPath: filepath.Join(outDir, PrometheusFileName),
		Metrics:        metrics,
	}
	data, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding metrics: %w", err)
	}
	if err := os.WriteFile(out.MetricsPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing metrics: %w", err)
	}
	logrus.Infof("Wrote %s", out.MetricsPath)

	if err := prometheus.WriteToTextfile(out.PrometheusPath, newCollectors(t)); err != nil {
		return nil, fmt.Errorf("writing %s: %w", out.PrometheusPath, err)
	}
	logrus.Infof("Wrote %s", out.PrometheusPath)
	return out, nil
}

// newCollectors registers the table's gauges on a fresh registry.
func newCollectors(t *table) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	rows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "benchctl_rows",
		Help: "Rows in the performance results table.",
	})
	rows.Set(float64(len(t.rows)))
	reg.MustRegister(rows)

	for _, g := range []struct {
		column, name, help string
	}{
		{"time_per_event", "benchctl_time_per_event_seconds_mean", "Mean time per event in seconds."},
		{"execution_time", "benchctl_execution_time_seconds_mean", "Mean wall time of one simulation run in seconds."},
	} {
		if !t.has(g.column) || !t.has("with_adept") {
			continue
		}
		vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: g.name, Help: g.help}, []string{"with_adept"})
		for _, adept := range []bool{true, false} {
			if m, ok := t.groupMean(g.column, adept); ok {
				vec.WithLabelValues(strconv.FormatBool(adept)).Set(m)
			}
		}
		reg.MustRegister(vec)
	}
	return reg
}
