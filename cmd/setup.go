package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/canasta/internal/config"
	"github.com/theirongolddev/canasta/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	path := flagConfig
	if path == "" {
		path = config.ConfigPath()
	}

	// Load existing config or defaults
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}

	vals := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(&vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	if err := vals.Apply(&cfg); err != nil {
		return err
	}
	if err := config.SaveTo(path, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	if cfg.Remote.Password == "" && cfg.Remote.KeyFile == "" {
		fmt.Printf("  Set %s or %s before running against the remote host.\n", config.EnvPassword, config.EnvKeyFile)
	}
	fmt.Println("  Run `canasta setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
