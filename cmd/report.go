package cmd

import (
	"fmt"

	"github.com/theirongolddev/canasta/internal/publish"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	flagReportRaw   bool
	flagReportWidth int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Markdown report of the series and basket",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&flagReportRaw, "raw", false, "Print markdown instead of rendering it")
	reportCmd.Flags().IntVar(&flagReportWidth, "width", 100, "Word wrap width of the rendered report")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	run, err := computeIndex(cmd.Context())
	if err != nil {
		return handleNoData(err)
	}

	md := publish.NewDocument(run.record, run.analysis.Basket).Markdown()
	if flagReportRaw {
		fmt.Print(md)
		return nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(flagReportWidth),
	)
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	fmt.Print(out)
	return nil
}
