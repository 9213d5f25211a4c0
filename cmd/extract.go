package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/adept-bench/benchctl/bench/extract"
)

var noPhysics bool // performance table only

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract CSVs from a completed run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cctx, err := buildContext(cmd.Context(), paramsPath, repoRoot)
		if err != nil {
			return err
		}
		return runExtract(cmd.Context(), cctx, !noPhysics)
	},
}

// runExtract always writes the performance table. Physics failures are
// logged and do not fail the command.
func runExtract(ctx context.Context, cctx *cliContext, physics bool) error {
	selected, err := cctx.selected()
	if err != nil {
		return err
	}
	registry := extract.DefaultRegistry()
	for _, s := range selected {
		opts := extract.Options{
			Benchmark: s.name,
			RunDir:    s.paths.RunDir(),
			OutDir:    s.paths.DerivedDir(),
			Kind:      extract.KindPerformance,
			Registry:  registry,
		}
		if _, err := extract.ExtractRun(ctx, opts); err != nil {
			return err
		}
		if !physics {
			continue
		}
		opts.Kind = extract.KindPhysics
		if _, err := extract.ExtractRun(ctx, opts); err != nil {
			logrus.WithField("benchmark", s.name).Errorf("Physics extraction failed: %v", err)
		}
	}
	return nil
}

func init() {
	extractCmd.Flags().BoolVar(&noPhysics, "no-physics", false, "Skip the physics table")
}
