package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/canasta/internal/cli"
	"github.com/theirongolddev/canasta/internal/pipeline"
	"github.com/theirongolddev/canasta/internal/store"

	"github.com/spf13/cobra"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List previously computed runs, or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "l", 20, "Number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, args []string) error {
	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer func() { _ = cache.Close() }()

	if len(args) == 1 {
		return showRun(cache, args[0])
	}

	runs, err := cache.ListRuns(flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("\n  No runs recorded yet. Run `canasta` first.")
		return nil
	}

	now := time.Now()
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID[:8],
			cli.FormatAge(r.ComputedAt, now),
			r.Source,
			fmt.Sprintf("%s..%s", r.BaseMonth, lastMonth(r.Months)),
			cli.FormatNumber(int64(r.BasketSize)),
			cli.RenderChange(r.Accumulated),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Runs",
		Headers:  []string{"Run", "When", "Source", "Months", "Basket", "Accumulated"},
		Rows:     rows,
		TextCols: 4,
	}))
	fmt.Println(cli.RenderNote("canasta history <run> for details; a unique id prefix is enough"))
	fmt.Println()
	return nil
}

func showRun(cache *store.Cache, id string) error {
	run, ok, err := cache.LoadRun(id)
	if err != nil {
		return err
	}
	if !ok {
		// Accept an id prefix as printed by the listing.
		runs, err := cache.ListRuns(0)
		if err != nil {
			return err
		}
		var matches []store.Run
		for _, r := range runs {
			if strings.HasPrefix(r.ID, id) {
				matches = append(matches, r)
			}
		}
		switch len(matches) {
		case 0:
			return fmt.Errorf("no run %q", id)
		case 1:
			if run, _, err = cache.LoadRun(matches[0].ID); err != nil {
				return err
			}
		default:
			return errors.New("run id prefix is ambiguous")
		}
	}

	fmt.Println()
	fmt.Println(cli.RenderKeyValue("Run", run.ID))
	fmt.Println(cli.RenderKeyValue("Computed", run.ComputedAt.Local().Format(time.RFC1123)))
	fmt.Println(cli.RenderKeyValue("Source", run.Source))
	fmt.Println(cli.RenderKeyValue("Basket", fmt.Sprintf("%d products", run.BasketSize)))
	fmt.Println(cli.RenderKeyValue("Base total", cli.FormatAmount(run.BaseTotal)+" ("+run.BaseMonth+")"))
	fmt.Println()

	rows := make([][]string, 0, len(run.Points))
	for _, p := range run.Points {
		rows = append(rows, []string{
			p.Month,
			cli.FormatAmount(p.Total),
			cli.FormatIndex(p.IPC),
			cli.RenderChange(p.Inflation),
			cli.FormatChange(p.Accumulated),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "Basket total", "IPC", "Change", "Accumulated"},
		Rows:    rows,
	}))
	fmt.Println()
	fmt.Println("  " + pipeline.FormatAccumulated(run.Accumulated))
	fmt.Println()
	return nil
}
