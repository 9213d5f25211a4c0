package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adept-bench/benchctl/bench/manifest"
)

var (
	outRoot   string // manifest output root
	noPatches bool   // skip writing diffs
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Write run-manifest.json for selected benchmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cctx, err := buildContext(cmd.Context(), paramsPath, repoRoot)
		if err != nil {
			return err
		}
		selected, err := cctx.selected()
		if err != nil {
			return err
		}
		for _, s := range selected {
			_, err := manifest.Write(cmd.Context(), manifest.Options{
				RepoRoot:     cctx.repoRoot,
				StackRoot:    filepath.Join(cctx.repoRoot, "stack"),
				OutputDir:    filepath.Join(outRoot, s.name, s.id.RunID()),
				WritePatches: !noPatches,
			})
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	manifestCmd.Flags().StringVar(&outRoot, "out-root", "runs", "Directory receiving <benchmark>/<run_id>/run-manifest.json")
	manifestCmd.Flags().BoolVar(&noPatches, "no-patches", false, "Do not write patches of uncommitted changes")
}
