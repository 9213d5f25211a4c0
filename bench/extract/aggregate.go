package extract

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/adept-bench/benchctl/bench"
	"github.com/adept-bench/benchctl/bench/simulate"
)

var (
	// ErrMissingMetadata means the run directory has no simulation_metadata.json.
	ErrMissingMetadata = errors.New("missing simulation metadata")
	// ErrNoResults means the run produced no table rows: no log could be
	// read or no log line matched.
	ErrNoResults = errors.New("no results extracted (no logs found or metadata empty)")
)

var baseColumns = []string{"log_file", "execution_time", "with_adept"}

// Options selects the run directory, the extractor and the output location.
type Options struct {
	Benchmark string
	RunDir    string
	OutDir    string
	Kind      Kind
	Registry  *Registry // DefaultRegistry() when nil
}

// ResultsPath is where ExtractRun writes the table for kind.
func ResultsPath(outDir string, kind Kind) string {
	return filepath.Join(outDir, string(kind)+"-results.csv")
}

// extractedRun is one log's contribution before column layout is known.
type extractedRun struct {
	logFile       string
	executionTime float64
	withAdept     bool
	parameters    map[string]any
	rows          []Row
}

// ExtractRun applies the (benchmark, kind) extractor to every log recorded
// in the run's metadata and writes {OutDir}/{kind}-results.csv.
func ExtractRun(ctx context.Context, opts Options) (string, error) {
	metadataPath := filepath.Join(opts.RunDir, simulate.MetadataFileName)
	doc, err := simulate.LoadMetadata(metadataPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrMissingMetadata, metadataPath)
	}
	if err != nil {
		return "", err
	}

	registry := opts.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	extractor, err := registry.Lookup(opts.Benchmark, opts.Kind)
	if err != nil {
		return "", err
	}

	log := logrus.WithFields(logrus.Fields{"benchmark": opts.Benchmark, "kind": opts.Kind})
	var runs []extractedRun
	for _, rec := range doc.Runs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if rec.OutputPath == nil || *rec.OutputPath == "" {
			continue
		}
		logPath := *rec.OutputPath
		if !filepath.IsAbs(logPath) {
			logPath = filepath.Join(opts.RunDir, logPath)
		}
		data, err := os.ReadFile(logPath)
		if err != nil {
			log.Warnf("Log file not found: %s", logPath)
			continue
		}
		runs = append(runs, extractedRun{
			logFile:       logPath,
			executionTime: rec.ExecutionTime,
			withAdept:     rec.WithAdept,
			parameters:    rec.Parameters,
			rows:          extractor(string(data)).Rows(),
		})
	}
	if len(runs) == 0 {
		return "", ErrNoResults
	}
	n := 0
	for _, r := range runs {
		n += len(r.rows)
	}
	if n == 0 {
		return "", fmt.Errorf("%w: %d logs read, none matched", ErrNoResults, len(runs))
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	csvPath := ResultsPath(opts.OutDir, opts.Kind)
	if _, err := writeResults(csvPath, runs); err != nil {
		return "", err
	}
	log.Infof("Wrote %s (%d rows)", csvPath, n)
	return csvPath, nil
}

// columns lays out base columns, then sorted parameter keys, then sorted
// result keys. A key already placed is not repeated.
func columns(runs []extractedRun) []string {
	params := map[string]struct{}{}
	results := map[string]struct{}{}
	for _, r := range runs {
		for k := range r.parameters {
			params[k] = struct{}{}
		}
		for _, row := range r.rows {
			for k := range row {
				results[k] = struct{}{}
			}
		}
	}

	header := append([]string(nil), baseColumns...)
	seen := map[string]bool{}
	for _, c := range header {
		seen[c] = true
	}
	for _, group := range []map[string]struct{}{params, results} {
		keys := make([]string, 0, len(group))
		for k := range group {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
		}
		header = append(header, keys...)
	}
	return header
}

func writeResults(path string, runs []extractedRun) (int, error) {
	header := columns(runs)

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	n := 0
	record := make([]string, len(header))
	for _, r := range runs {
		base := map[string]any{
			"log_file":       r.logFile,
			"execution_time": r.executionTime,
			"with_adept":     r.withAdept,
		}
		for k, v := range r.parameters {
			base[k] = v
		}
		for _, row := range r.rows {
			for i, col := range header {
				v, ok := row[col]
				if !ok {
					v = base[col]
				}
				record[i] = bench.FormatValue(v)
			}
			if err := w.Write(record); err != nil {
				return n, fmt.Errorf("writing row: %w", err)
			}
			n++
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return n, fmt.Errorf("flushing %s: %w", path, err)
	}
	return n, file.Close()
}
