package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/canasta/internal/cli"

	"github.com/spf13/cobra"
)

var monthsCmd = &cobra.Command{
	Use:   "months",
	Short: "Per-month fetch and filter summary",
	RunE:  runMonths,
}

func init() {
	rootCmd.AddCommand(monthsCmd)
}

func runMonths(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	result, err := loadData(cmd.Context(), cfg)
	if err != nil {
		return handleNoData(err)
	}

	rows := make([][]string, 0, len(result.Months)+2)
	var products, kept, rejected int
	for _, m := range result.Months {
		src := "fetched"
		if m.Cached {
			src = "cache"
		}
		rows = append(rows, []string{
			m.Aggregate.Month,
			src,
			cli.FormatNumber(int64(m.Aggregate.Len())),
			cli.FormatNumber(int64(m.Stats.Kept)),
			cli.FormatNumber(int64(m.Stats.Rejected)),
			cli.FormatNumber(int64(m.Stats.Malformed)),
			cli.FormatBytes(int64(m.Bytes)),
		})
		products += m.Aggregate.Len()
		kept += m.Stats.Kept
		rejected += m.Stats.Rejected
	}
	rows = append(rows, cli.Separator)
	rows = append(rows, []string{
		"Total", strconv.Itoa(len(result.Months)) + " months",
		cli.FormatNumber(int64(products)),
		cli.FormatNumber(int64(kept)),
		cli.FormatNumber(int64(rejected)),
		cli.FormatNumber(int64(result.Malformed)),
		"",
	})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    sourceName(cfg),
		Headers:  []string{"Month", "Source", "Products", "Kept", "Rejected", "Malformed", "Size"},
		Rows:     rows,
		TextCols: 2,
	}))
	fmt.Println()
	return nil
}
