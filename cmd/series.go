package cmd

import (
	"fmt"

	"github.com/theirongolddev/canasta/internal/cli"
	"github.com/theirongolddev/canasta/internal/pipeline"

	"github.com/spf13/cobra"
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Month-by-month index table",
	RunE:  runSeries,
}

func init() {
	rootCmd.AddCommand(seriesCmd)
}

func runSeries(cmd *cobra.Command, _ []string) error {
	run, err := computeIndex(cmd.Context())
	if err != nil {
		return handleNoData(err)
	}
	series := run.analysis.Series

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CANASTA  %s..%s", series.BaseMonth, lastMonth(run.cfg.Series.Months))))
	fmt.Println()

	rows := [][]string{
		{series.BaseMonth, cli.FormatAmount(series.BaseTotal), cli.FormatIndex(pipeline.BaseIPC), "", ""},
	}
	ipcs := []float64{pipeline.BaseIPC}
	for _, p := range series.Points {
		rows = append(rows, []string{
			p.Month,
			cli.FormatAmount(p.Total),
			cli.FormatIndex(p.IPC),
			cli.RenderChange(p.Inflation),
			cli.FormatChange(p.Accumulated),
		})
		ipcs = append(ipcs, p.IPC)
	}
	rows = append(rows, cli.Separator)
	rows = append(rows, []string{"Accumulated", "", "", "", cli.RenderChange(series.Accumulated)})

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Basket of %d products", series.BasketSize),
		Headers: []string{"Month", "Basket total", "IPC", "Change", "Accumulated"},
		Rows:    rows,
	}))

	fmt.Println()
	fmt.Println(cli.RenderKeyValue("IPC trend", cli.RenderSparkline(ipcs)))
	fmt.Println(cli.RenderKeyValue("Result", pipeline.FormatAccumulated(series.Accumulated)))
	if run.saved {
		fmt.Println(cli.RenderNote("saved as run " + run.record.ID))
	}
	fmt.Println()
	return nil
}

func lastMonth(months []string) string {
	if len(months) == 0 {
		return ""
	}
	return months[len(months)-1]
}
