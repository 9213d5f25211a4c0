package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/adept-bench/benchctl/bench"
	"github.com/adept-bench/benchctl/bench/history"
	"github.com/adept-bench/benchctl/bench/simulate"
)

const executableEnv = "GAUSSINO_EXECUTABLE"

var executable string // --executable

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run simulations for selected benchmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cctx, err := buildContext(cmd.Context(), paramsPath, repoRoot)
		if err != nil {
			return err
		}
		fromParams, err := cctx.params.GaussinoExecutable()
		if err != nil {
			return err
		}
		exe, err := resolveExecutable(executable, os.Getenv(executableEnv), fromParams, cctx.repoRoot)
		if err != nil {
			return err
		}
		return runSimulate(cmd.Context(), cctx, exe, nil)
	},
}

// resolveExecutable finds the simulation executable.
// Resolution order: explicit flag > GAUSSINO_EXECUTABLE > params.yaml.
// Flag and params paths are relative to the repo root; the environment
// value is used as given.
func resolveExecutable(flagValue, envValue, paramsValue, root string) (string, error) {
	var exe string
	switch {
	case flagValue != "":
		exe = underRoot(root, flagValue)
	case envValue != "":
		exe = envValue
	case paramsValue != "":
		exe = underRoot(root, paramsValue)
	default:
		return "", errors.New("missing Gaussino executable: provide --executable, set " +
			executableEnv + ", or set gaussino_executable in params.yaml")
	}
	if _, err := os.Stat(exe); err != nil {
		return "", fmt.Errorf("gaussino executable not found at: %s (check --executable, %s, or params.yaml gaussino_executable)",
			exe, executableEnv)
	}
	return exe, nil
}

func underRoot(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// runSimulate sweeps every selected benchmark and indexes each sweep in the
// history database. runner may be nil for the os/exec runner.
func runSimulate(ctx context.Context, cctx *cliContext, exe string, runner simulate.Runner) error {
	selected, err := cctx.selected()
	if err != nil {
		return err
	}
	for _, s := range selected {
		cfg := simulate.Config{
			Benchmark:   s.name,
			Executable:  exe,
			Driver:      s.cfg.Driver,
			RunDir:      s.paths.RunDir(),
			Parameters:  s.cfg.Parameters,
			VariantName: s.cfg.VariantName,
			Timeout:     s.cfg.Timeout(),
		}
		for _, f := range s.cfg.OptionsFiles {
			cfg.OptionsFiles = append(cfg.OptionsFiles, underRoot(cctx.repoRoot, f))
		}
		for _, f := range s.cfg.SimulationFiles {
			cfg.SimulationFiles = append(cfg.SimulationFiles, underRoot(cctx.repoRoot, f))
		}

		var opts []simulate.Option
		if runner != nil {
			opts = append(opts, simulate.WithRunner(runner))
		}
		doc, err := simulate.New(cfg, opts...).Run(ctx)
		if doc != nil {
			recordHistory(context.WithoutCancel(ctx), cctx.repoRoot, s.id.RunID(), doc)
		}
		if err != nil {
			return fmt.Errorf("simulating %s: %w", s.name, err)
		}
	}
	return nil
}

// recordHistory indexes a sweep. Failures only warn.
func recordHistory(ctx context.Context, root, runID string, doc *simulate.MetadataDocument) {
	sum, err := history.Summarize(runID, doc)
	if err != nil {
		logrus.Warnf("Not recording sweep history: %v", err)
		return
	}
	store, err := history.Open(bench.HistoryDB(root))
	if err != nil {
		logrus.Warnf("Not recording sweep history: %v", err)
		return
	}
	defer store.Close()
	if err := store.RecordSweep(ctx, sum); err != nil {
		logrus.Warnf("Not recording sweep history: %v", err)
	}
}

func init() {
	simulateCmd.Flags().StringVar(&executable, "executable", "", "Simulation executable (default: $"+executableEnv+" or gaussino_executable in params.yaml)")
}
