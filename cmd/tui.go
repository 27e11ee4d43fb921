package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/canasta/internal/config"
	"github.com/theirongolddev/canasta/internal/logger"
	"github.com/theirongolddev/canasta/internal/tui"
	"github.com/theirongolddev/canasta/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor so background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Log lines would tear the alternate screen.
	ctx := logger.WithContext(cmd.Context(), logger.New(logger.Options{Quiet: true}))

	needSetup := !flagLocal && flagConfig == "" && !config.Exists()
	app := tui.NewApp(ctx, cfg, loadMonths, sourceName(cfg), needSetup)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(os.Stdout))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
