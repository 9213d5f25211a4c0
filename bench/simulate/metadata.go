package simulate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MetadataFileName is written into every run directory.
const MetadataFileName = "simulation_metadata.json"

// RunRecord describes one invocation of the simulation executable.
// OutputPath is relative to the run directory and nil when the process
// could not be started.
type RunRecord struct {
	SimulationFile string         `json:"simulation_file"`
	Parameters     map[string]any `json:"parameters"`
	OutputPath     *string        `json:"output_path"`
	RootFiles      []string       `json:"root_files"`
	ExecutionTime  float64        `json:"execution_time"`
	Success        bool           `json:"success"`
	WithAdept      bool           `json:"with_adept"`
}

// MetadataDocument is the contents of simulation_metadata.json.
type MetadataDocument struct {
	Timestamp string      `json:"timestamp"`
	Benchmark string      `json:"benchmark"`
	SweepID   string      `json:"sweep_id,omitempty"`
	Runs      []RunRecord `json:"runs"`
}

// Succeeded counts successful runs.
func (d *MetadataDocument) Succeeded() int {
	n := 0
	for _, r := range d.Runs {
		if r.Success {
			n++
		}
	}
	return n
}

// WriteMetadata replaces path atomically: readers observe either the
// previous document or the new one, never a partial write.
func WriteMetadata(path string, doc *MetadataDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".simulation_metadata-*.json")
	if err != nil {
		return fmt.Errorf("creating temp metadata file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing metadata: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing metadata: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// LoadMetadata reads a metadata document. Parameter values keep their JSON
// number text so that they render in tables exactly as they were written.
func LoadMetadata(path string) (*MetadataDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var doc MetadataDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &doc, nil
}
