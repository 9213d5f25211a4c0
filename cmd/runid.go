package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/adept-bench/benchctl/bench/runid"
)

var runIDCmd = &cobra.Command{
	Use:   "run-id",
	Short: "Compute deterministic run_id/run_slug for selected benchmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cctx, err := buildContext(cmd.Context(), paramsPath, repoRoot)
		if err != nil {
			return err
		}
		selected, err := cctx.selected()
		if err != nil {
			return err
		}
		printRunIDs(cmd.OutOrStdout(), selected)
		return nil
	},
}

func printRunIDs(w io.Writer, selected []selectedBenchmark) {
	name := color.New(color.Bold)
	id := color.New(color.FgCyan)
	slug := color.New(color.FgGreen)
	for _, s := range selected {
		summary := runid.SafeSummary(runid.DefaultSummary(s.cfg.Raw))
		runSlug := s.id.RunSlug(summary)
		logrus.Infof("benchmark=%s run_id=%s run_slug=%s", s.name, s.id.RunID(), runSlug)

		name.Fprintf(w, "%-24s", s.name)
		fmt.Fprint(w, " ")
		id.Fprint(w, s.id.RunID())
		fmt.Fprint(w, " ")
		slug.Fprintln(w, runSlug)
	}
}
