// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/chart-engine/internal/assemble"
	"github.com/pdiddy/chart-engine/internal/store"
	"github.com/pdiddy/chart-engine/pkg/types"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Rebuild the final YAML dataset from the stage stores",
	Long: `Assemble folds the base dataset and every stage store into the final
ordered YAML dataset without making any external calls. Entries already in
the output keep their position; new base songs append in base-dataset order
up to --total.`,
	RunE: runAssemble,
}

func init() {
	assembleCmd.Flags().Int("total", 0, "target output size (0 = every base song)")
	assembleCmd.Flags().Int("comments", 10, "top comments to keep per song (max 15)")
	assembleCmd.Flags().String("data-dir", "data", "base directory for dataset files")

	rootCmd.AddCommand(assembleCmd)
}

func runAssemble(cmd *cobra.Command, args []string) error {
	total, _ := cmd.Flags().GetInt("total")
	commentLimit, _ := cmd.Flags().GetInt("comments")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	paths := types.DefaultPaths(dataDir)
	base, err := store.LoadBase(paths.BaseDataset)
	if err != nil {
		return err
	}
	if total <= 0 {
		total = len(base)
	}

	existing := assemble.LoadFinal(paths.FinalDataset)

	merged, err := assemble.Assemble(paths, commentLimit)
	if err != nil {
		return err
	}
	output, partials := assemble.BuildOutput(merged, existing, total)
	for _, line := range partials {
		fmt.Fprintf(os.Stderr, "partial: %s\n", line)
	}

	if err := assemble.WriteFinal(paths.FinalDataset, output); err != nil {
		return err
	}
	fmt.Printf("Wrote %d entries to %s\n", len(output), paths.FinalDataset)
	return nil
}
