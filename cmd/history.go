package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/adept-bench/benchctl/bench"
	"github.com/adept-bench/benchctl/bench/history"
)

var historyBenchmark string // --benchmark filter

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded simulation sweeps",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(repoRoot)
		if err != nil {
			return err
		}
		return printHistory(cmd.Context(), cmd.OutOrStdout(), bench.HistoryDB(root), historyBenchmark)
	},
}

func printHistory(ctx context.Context, w io.Writer, dbPath, benchmark string) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sweeps, err := store.List(ctx, benchmark)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tBENCHMARK\tRUN ID\tOK\tFAILED\tSWEEP")
	for _, s := range sweeps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%d\t%s\n",
			s.StartedAt.Local().Format(time.DateTime), s.Benchmark, s.RunID, s.Succeeded, s.Total, s.Failed, s.SweepID)
	}
	return tw.Flush()
}

func init() {
	historyCmd.Flags().StringVar(&historyBenchmark, "benchmark", "", "Only list sweeps of this benchmark")
}
