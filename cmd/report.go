package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adept-bench/benchctl/bench/extract"
	"github.com/adept-bench/benchctl/bench/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate metrics from extracted CSVs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cctx, err := buildContext(cmd.Context(), paramsPath, repoRoot)
		if err != nil {
			return err
		}
		return runReport(cctx)
	},
}

func runReport(cctx *cliContext) error {
	selected, err := cctx.selected()
	if err != nil {
		return err
	}
	for _, s := range selected {
		csvPath := extract.ResultsPath(s.paths.DerivedDir(), extract.KindPerformance)
		if _, err := os.Stat(csvPath); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("missing performance-results.csv: %s", csvPath)
		}
		if _, err := report.GeneratePerformanceReport(csvPath, s.paths.ReportsDir()); err != nil {
			return err
		}
	}
	return nil
}
