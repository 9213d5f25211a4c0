// Package bench holds the shared layout and value formatting for benchmark
// runs of the Gaussino/Geant4 detector simulation.
//
// # Reading Guide
//
// A benchmark run flows through the sub-packages in this order:
//   - bench/config: params.yaml, the list of benchmarks and their sweeps
//   - bench/runid: deterministic run identity (names the run directory)
//   - bench/manifest: git provenance of the repo and the dependency stack
//   - bench/simulate: Cartesian sweep against the simulation executable,
//     writing logs, .root artifacts and simulation_metadata.json
//   - bench/extract: log extractors and the CSV results table
//   - bench/report: metrics.json and a Prometheus textfile from the table
//   - bench/history: SQLite index of past sweeps
//
// bench/units is a leaf utility used by the physics extractors.
package bench
