package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/adept-bench/benchctl/bench"
	"github.com/adept-bench/benchctl/bench/config"
	"github.com/adept-bench/benchctl/bench/manifest"
	"github.com/adept-bench/benchctl/bench/runid"
)

var (
	paramsPath string // params.yaml location
	repoRoot   string // benchmark repository root
	verbosity  int    // -v count
	logLevel   string // explicit level, overrides -v
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:           "benchctl",
	Short:         "Run, extract and report Gaussino/AdePT detector simulation benchmarks",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(verbosity, logLevel); err != nil {
			return err
		}
		return loadDotEnv(repoRoot)
	},
}

// setupLogging maps -v/-vv to info/debug on top of a warn default. A
// non-empty override wins.
func setupLogging(v int, override string) error {
	level := logrus.WarnLevel
	switch {
	case v == 1:
		level = logrus.InfoLevel
	case v >= 2:
		level = logrus.DebugLevel
	}
	if override != "" {
		parsed, err := logrus.ParseLevel(override)
		if err != nil {
			return fmt.Errorf("invalid log level: %s", override)
		}
		level = parsed
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return nil
}

// loadDotEnv reads <root>/.env when present. Variables already set win.
func loadDotEnv(root string) error {
	path := filepath.Join(root, ".env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	logrus.Debugf("Loaded environment from %s", path)
	return nil
}

// cliContext is what every pipeline command needs: the parsed params, the
// absolute repo root and its HEAD commit.
type cliContext struct {
	params   *config.Params
	repoRoot string
	commit   string
}

func buildContext(ctx context.Context, params, root string) (*cliContext, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving repo root: %w", err)
	}
	p, err := config.Load(params)
	if err != nil {
		return nil, err
	}
	commit, ok := manifest.Git{}.Commit(ctx, abs)
	if !ok {
		return nil, fmt.Errorf("not a git repo: %s", abs)
	}
	return &cliContext{params: p, repoRoot: abs, commit: commit}, nil
}

// selectedBenchmark is one selected benchmark with its identity resolved.
type selectedBenchmark struct {
	name  string
	cfg   *config.BenchmarkConfig
	id    runid.Identity
	paths bench.RunPaths
}

// selected resolves every benchmark listed in benchmarks_selected.
func (c *cliContext) selected() ([]selectedBenchmark, error) {
	names, err := c.params.BenchmarksSelected()
	if err != nil {
		return nil, err
	}
	out := make([]selectedBenchmark, 0, len(names))
	for _, name := range names {
		cfg, err := c.params.Benchmark(name)
		if err != nil {
			return nil, err
		}
		id, err := runid.Compute(name, c.commit, cfg.Raw)
		if err != nil {
			return nil, fmt.Errorf("computing run id for %s: %w", name, err)
		}
		out = append(out, selectedBenchmark{
			name:  name,
			cfg:   cfg,
			id:    id,
			paths: bench.RunPaths{Benchmark: name, RunID: id.RunID(), RepoRoot: c.repoRoot},
		})
	}
	return out, nil
}

// Execute runs the CLI root command. SIGINT and SIGTERM cancel the command's
// context; a running sweep stops after the current simulation.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		stop()
		os.Exit(1)
	}
}

// init sets up persistent flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&paramsPath, "params", config.DefaultPath, "Path to params.yaml")
	rootCmd.PersistentFlags().StringVar(&repoRoot, "repo-root", ".", "Benchmark repository root")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "", "Log level (trace, debug, info, warn, error, fatal, panic); overrides -v")

	rootCmd.AddCommand(runIDCmd)
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
}
