// Package extract turns simulation logs into tabular results. Extractors are
// looked up by (benchmark, kind) in a Registry; ExtractRun applies one to
// every log of a run directory and writes the CSV table.
package extract

import (
	"errors"
	"fmt"
	"sort"
)

// Kind selects what an extractor reads from a log.
type Kind string

const (
	KindPerformance Kind = "performance"
	KindPhysics     Kind = "physics"
)

// Row is one record of extracted values keyed by column name.
type Row map[string]any

// Result is what an extractor returns for one log: either a single row of
// summary values or one row per matching log line.
type Result struct {
	rows []Row
}

// OneRow wraps a single summary row. The table always receives exactly one
// row for it, even when the row is empty.
func OneRow(r Row) Result {
	if r == nil {
		r = Row{}
	}
	return Result{rows: []Row{r}}
}

// ManyRows wraps per-line rows. An empty slice contributes nothing.
func ManyRows(rows []Row) Result {
	return Result{rows: rows}
}

// Rows returns the rows the result contributes to the table.
func (r Result) Rows() []Row { return r.rows }

// Extractor parses a full log.
type Extractor func(log string) Result

// Key identifies an extractor.
type Key struct {
	Benchmark string
	Kind      Kind
}

func (k Key) String() string { return fmt.Sprintf("%s/%s", k.Benchmark, k.Kind) }

// ErrUnknownExtractor is matched by every lookup failure.
var ErrUnknownExtractor = errors.New("unknown extractor")

// UnknownExtractorError reports a (benchmark, kind) pair with no extractor.
type UnknownExtractorError struct {
	Benchmark string
	Kind      Kind
}

func (e *UnknownExtractorError) Error() string {
	return fmt.Sprintf("extractor of type %s for benchmark %s was not found", e.Kind, e.Benchmark)
}

func (e *UnknownExtractorError) Unwrap() error { return ErrUnknownExtractor }

// Registry maps (benchmark, kind) to extractors.
type Registry struct {
	entries map[Key]Extractor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Key]Extractor)}
}

// Register adds an extractor and rejects duplicate keys.
func (r *Registry) Register(benchmark string, kind Kind, fn Extractor) error {
	key := Key{Benchmark: benchmark, Kind: kind}
	if fn == nil {
		return fmt.Errorf("registering %s: nil extractor", key)
	}
	if _, ok := r.entries[key]; ok {
		return fmt.Errorf("registering %s: already registered", key)
	}
	r.entries[key] = fn
	return nil
}

// Lookup returns the extractor for (benchmark, kind).
func (r *Registry) Lookup(benchmark string, kind Kind) (Extractor, error) {
	fn, ok := r.entries[Key{Benchmark: benchmark, Kind: kind}]
	if !ok {
		return nil, &UnknownExtractorError{Benchmark: benchmark, Kind: kind}
	}
	return fn, nil
}

// Keys lists registered keys sorted by benchmark then kind.
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Benchmark != keys[j].Benchmark {
			return keys[i].Benchmark < keys[j].Benchmark
		}
		return keys[i].Kind < keys[j].Kind
	})
	return keys
}

// DefaultRegistry registers the performance extractor and the physics
// extractor of every known benchmark, under its name and its aliases.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range physicsPatterns {
		for _, name := range append([]string{p.benchmark}, p.aliases...) {
			mustRegister(r, name, KindPerformance, Performance)
			mustRegister(r, name, KindPhysics, p.extract)
		}
	}
	return r
}

func mustRegister(r *Registry, benchmark string, kind Kind, fn Extractor) {
	if err := r.Register(benchmark, kind, fn); err != nil {
		panic(err)
	}
}
