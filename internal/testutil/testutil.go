// Package testutil provides shared test infrastructure for the bench
// packages: captured simulation logs, float assertions and a stand-in for
// the simulation executable.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// LoadLog returns a captured simulation log from the repo-root testdata/logs
// directory. The path is resolved relative to this source file.
func LoadLog(t *testing.T, name string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// internal/testutil/ -> repo root
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata", "logs", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log fixture %s: %v", name, err)
	}
	return string(data)
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// StubScript is a stand-in for the simulation executable. It is invoked as
// `stub env K=V... gaudirun.py opts... sim.py`, prints the performance lines
// the extractors look for, drops one .root file named after the simulation
// and PARTICLES_PER_EVENT into its working directory, and exits non-zero
// when FAIL_SIM matches the simulation file name.
const StubScript = `#!/bin/sh
shift
while [ $# -gt 0 ]; do
  case "$1" in
    *=*) shift ;;
    *) break ;;
  esac
done
driver="$1"
shift
for sim; do :; done
name=$(basename "$sim" .py)
echo "driver: $driver"
echo "Measured event loop time [ns]: 1.5e+09"
echo "Time per event [s]: 0.25"
echo "Throughput [1/s]: 4"
if [ -n "$FAIL_SIM" ] && [ "$name" = "$FAIL_SIM" ]; then
  echo "boom" >&2
  exit 3
fi
touch "${name}_${PARTICLES_PER_EVENT:-none}.root"
exit 0
`

// WriteStubExecutable writes StubScript into dir and returns its path.
func WriteStubExecutable(t *testing.T, dir string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub executable needs /bin/sh")
	}
	path := filepath.Join(dir, "gaussino-stub")
	if err := os.WriteFile(path, []byte(StubScript), 0o755); err != nil {
		t.Fatalf("Failed to write stub executable: %v", err)
	}
	return path
}
