// Package config loads params.yaml: which benchmarks to run, where the
// simulation executable lives, and each benchmark's files and sweep.
//
// Validation is lazy. Load only requires a mapping at the root; each accessor
// checks the part of the document it reads.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adept-bench/benchctl/bench/simulate"
)

// DefaultPath is params.yaml in the working directory.
const DefaultPath = "params.yaml"

// ErrUnknownBenchmark means a selected benchmark has no entry under benchmarks.
var ErrUnknownBenchmark = errors.New("unknown benchmark")

// Params is a loaded params.yaml.
type Params struct {
	Path string
	Raw  map[string]any

	root *yaml.Node
}

// BenchmarkConfig is one entry under benchmarks. Raw is the entry exactly as
// written and is what the run id hashes.
type BenchmarkConfig struct {
	Name string         `yaml:"-"`
	Raw  map[string]any `yaml:"-"`

	OptionsFiles    []string                `yaml:"options_files"`
	SimulationFiles []string                `yaml:"simulation_files"`
	Parameters      simulate.ParameterSpace `yaml:"parameters"`
	Driver          string                  `yaml:"driver"`
	VariantName     string                  `yaml:"variant_name"`
	TimeoutSeconds  float64                 `yaml:"timeout_seconds"`
}

// Timeout is TimeoutSeconds as a duration; zero means no limit.
func (b *BenchmarkConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds * float64(time.Second))
}

// Load reads and parses path. A null or empty document is an empty mapping.
func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading params: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	p := &Params{Path: path, Raw: map[string]any{}}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	switch {
	case root.Kind == 0, root.Kind == yaml.DocumentNode:
		return p, nil
	case root.Kind == yaml.ScalarNode && root.Tag == "!!null":
		return p, nil
	case root.Kind != yaml.MappingNode:
		return nil, fmt.Errorf("params.yaml root must be a mapping")
	}
	if err := root.Decode(&p.Raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	p.root = root
	return p, nil
}

// BenchmarksSelected lists the benchmarks to run, empty when absent.
func (p *Params) BenchmarksSelected() ([]string, error) {
	v, ok := p.Raw["benchmarks_selected"]
	if !ok || v == nil {
		return []string{}, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("params.yaml: benchmarks_selected must be a list[str]")
	}
	names := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("params.yaml: benchmarks_selected must be a list[str]")
		}
		names = append(names, s)
	}
	return names, nil
}

// GaussinoExecutable is the configured executable path, "" when absent.
func (p *Params) GaussinoExecutable() (string, error) {
	v, ok := p.Raw["gaussino_executable"]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("params.yaml: gaussino_executable must be a string")
	}
	return s, nil
}

// Benchmarks is the raw benchmarks mapping, empty when absent.
func (p *Params) Benchmarks() (map[string]any, error) {
	v, ok := p.Raw["benchmarks"]
	if !ok || v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("params.yaml: benchmarks must be a mapping")
	}
	return m, nil
}

// Benchmark returns the entry for name with its typed fields decoded.
func (p *Params) Benchmark(name string) (*BenchmarkConfig, error) {
	all, err := p.Benchmarks()
	if err != nil {
		return nil, err
	}
	v, ok := all[name]
	if !ok {
		return nil, fmt.Errorf("params.yaml: benchmark '%s' not found under benchmarks: %w", name, ErrUnknownBenchmark)
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("params.yaml: benchmarks.%s must be a mapping", name)
	}

	cfg := &BenchmarkConfig{Name: name, Raw: raw}
	if node := lookup(p.root, "benchmarks", name); node != nil {
		if err := node.Decode(cfg); err != nil {
			return nil, fmt.Errorf("params.yaml: benchmarks.%s: %w", name, err)
		}
	}
	return cfg, nil
}

// lookup walks mapping keys from node.
func lookup(node *yaml.Node, keys ...string) *yaml.Node {
	for _, key := range keys {
		if node == nil || node.Kind != yaml.MappingNode {
			return nil
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				next = node.Content[i+1]
			}
		}
		node = next
	}
	return node
}
