package cmd

import (
	"fmt"

	"github.com/theirongolddev/canasta/internal/pipeline"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute the accumulated inflation of the basket",
	RunE:  runIndex,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	run, err := computeIndex(cmd.Context())
	if err != nil {
		return handleNoData(err)
	}

	fmt.Println(pipeline.FormatAccumulated(run.analysis.Series.Accumulated))
	return nil
}
