package cmd

import (
	"fmt"

	"github.com/theirongolddev/canasta/internal/cli"
	"github.com/theirongolddev/canasta/internal/pipeline"

	"github.com/spf13/cobra"
)

var flagBasketLimit int

var basketCmd = &cobra.Command{
	Use:   "basket",
	Short: "Products present in every month",
	RunE:  runBasket,
}

func init() {
	basketCmd.Flags().IntVarP(&flagBasketLimit, "limit", "l", 0, "Show at most this many products (0 = all)")
	rootCmd.AddCommand(basketCmd)
}

func runBasket(cmd *cobra.Command, _ []string) error {
	run, err := computeIndex(cmd.Context())
	if err != nil {
		return handleNoData(err)
	}
	basket := run.analysis.Basket

	shown := basket
	if flagBasketLimit > 0 && flagBasketLimit < len(shown) {
		shown = shown[:flagBasketLimit]
	}

	rows := make([][]string, 0, len(shown))
	for _, p := range shown {
		price := p.Price
		if v, err := pipeline.ParsePrice(p.Price); err == nil {
			price = cli.FormatAmount(v)
		}
		rows = append(rows, []string{p.SKU, p.Name, price, cli.FormatNumber(int64(p.Count))})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    fmt.Sprintf("Basket (%s, %d products)", run.analysis.Series.BaseMonth, len(basket)),
		Headers:  []string{"SKU", "Name", "Price", "Count"},
		Rows:     rows,
		TextCols: 2,
	}))
	if len(shown) < len(basket) {
		fmt.Println(cli.RenderNote(fmt.Sprintf("%d more, use --limit 0 to list all", len(basket)-len(shown))))
	}
	fmt.Println()
	return nil
}
