package bench

import "path/filepath"

// RunPaths locates the directories belonging to one run under a repo root.
type RunPaths struct {
	Benchmark string
	RunID     string
	RepoRoot  string
}

// RunDir holds logs, artifacts and simulation_metadata.json.
func (p RunPaths) RunDir() string {
	return filepath.Join(p.RepoRoot, "runs", p.Benchmark, p.RunID)
}

// DerivedDir holds the extracted CSV tables.
func (p RunPaths) DerivedDir() string {
	return filepath.Join(p.RepoRoot, "derived", p.Benchmark, p.RunID)
}

// ReportsDir holds metrics computed from the derived tables.
func (p RunPaths) ReportsDir() string {
	return filepath.Join(p.RepoRoot, "reports", p.Benchmark, p.RunID)
}

// HistoryDB is the sweep index shared by all benchmarks of a repo.
func HistoryDB(repoRoot string) string {
	return filepath.Join(repoRoot, "runs", "history.db")
}
