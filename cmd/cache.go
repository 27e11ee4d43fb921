package cmd

import (
	"fmt"

	"github.com/theirongolddev/canasta/internal/pipeline"
	"github.com/theirongolddev/canasta/internal/store"

	"github.com/spf13/cobra"
)

var flagClearAll bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the month cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop cached months so the next run refetches them",
	RunE:  runCacheClear,
}

func init() {
	cacheClearCmd.Flags().BoolVar(&flagClearAll, "all", false, "Clear months of every source, not just the configured one")
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer func() { _ = cache.Close() }()

	src := sourceName(cfg)
	if flagClearAll {
		src = ""
	}
	n, err := cache.ClearMonths(src)
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	if src == "" {
		fmt.Printf("  Cleared %d cached months\n", n)
	} else {
		fmt.Printf("  Cleared %d cached months of %s\n", n, src)
	}
	return nil
}
