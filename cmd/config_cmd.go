package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/canasta/internal/cli"
	"github.com/theirongolddev/canasta/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := flagConfig
	if path == "" {
		path = config.ConfigPath()
	}
	fmt.Printf("  Config file: %s\n", path)
	if _, err := os.Stat(path); err == nil {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Remote]")
	fmt.Printf("    Host:        %s\n", orUnset(cfg.Remote.Host))
	fmt.Printf("    Port:        %d\n", cfg.Remote.Port)
	fmt.Printf("    User:        %s\n", orUnset(cfg.Remote.User))
	fmt.Printf("    Password:    %s%s\n", orUnset(cli.MaskSecret(cfg.Remote.Password)), envNote(config.EnvPassword))
	fmt.Printf("    Key file:    %s%s\n", orUnset(cfg.Remote.KeyFile), envNote(config.EnvKeyFile))
	if cfg.Remote.InsecureHostKey {
		fmt.Println(cli.RenderWarning("  Host key:    NOT verified (insecure_host_key = true)"))
	} else {
		fmt.Printf("    Known hosts: %s\n", orDefault(cfg.Remote.KnownHosts, "~/.ssh/known_hosts"))
	}
	fmt.Printf("    File:        %s\n", cfg.Remote.FilePath)
	fmt.Printf("    Timeout:     %s\n", cfg.Remote.Timeout.Duration)
	fmt.Printf("    Rate limit:  %.1f exec/s\n", cfg.Remote.MaxExecPerSec)
	fmt.Println()

	fmt.Println("  [Series]")
	fmt.Printf("    Months:   %s (%d)\n", describeMonths(cfg.Series.Months), len(cfg.Series.Months))
	fmt.Printf("    Statuses: %s\n", strings.Join(cfg.Series.AllowedStatuses, ", "))
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Workers: %d\n", cfg.General.Workers)
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    Enabled: %v\n", cfg.Cache.Enabled)
	fmt.Printf("    Max age: %s\n", cfg.Cache.MaxAge.Duration)
	fmt.Println()

	fmt.Println("  [Publish]")
	fmt.Printf("    Bucket: %s%s\n", orUnset(cfg.Publish.Bucket), envNote(config.EnvBucket))
	fmt.Printf("    Prefix: %s\n", cfg.Publish.Prefix)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.Daemon.Interval.Duration)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `canasta setup` to reconfigure.")
	return nil
}

func orUnset(s string) string {
	return orDefault(s, "not set")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func envNote(name string) string {
	if os.Getenv(name) != "" {
		return "  (from " + name + ")"
	}
	return ""
}

// describeMonths prints a contiguous list as a range.
func describeMonths(months []string) string {
	if len(months) > 2 {
		if expanded, err := config.ExpandMonths(months[0] + ".." + months[len(months)-1]); err == nil &&
			strings.Join(expanded, ",") == strings.Join(months, ",") {
			return months[0] + ".." + months[len(months)-1]
		}
	}
	return strings.Join(months, ", ")
}
