// Package cmd implements the canasta CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/theirongolddev/canasta/internal/cli"
	"github.com/theirongolddev/canasta/internal/config"
	"github.com/theirongolddev/canasta/internal/logger"
	"github.com/theirongolddev/canasta/internal/pipeline"
	"github.com/theirongolddev/canasta/internal/source"
	"github.com/theirongolddev/canasta/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagFile     string
	flagMonths   string
	flagStatuses []string
	flagLocal    bool
	flagNoCache  bool
	flagWorkers  int
	flagQuiet    bool
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "canasta",
	Short: "Basket price index from remote transaction records",
	Long: "Select the products sold in every month, price that basket month by month\n" +
		"and chain the changes into an accumulated inflation figure.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		log := logger.New(logger.Options{Verbose: flagVerbose, Quiet: flagQuiet})
		cmd.SetContext(logger.WithContext(cmd.Context(), log))
	},
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal to break the
	// rootCmd -> runIndex -> loadConfig -> rootCmd initialization cycle.
	rootCmd.RunE = runIndex
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "", "Transactions file, overrides remote.file_path")
	rootCmd.PersistentFlags().StringVarP(&flagMonths, "months", "m", "", "Months, base first: comma list or YYYY-MM..YYYY-MM")
	rootCmd.PersistentFlags().StringSliceVar(&flagStatuses, "status", nil, "Allowed statuses (default FINALIZED,AUTHORIZED)")
	rootCmd.PersistentFlags().BoolVar(&flagLocal, "local", false, "Read --file from the local disk instead of over SSH")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the SQLite month cache, fetch everything")
	rootCmd.PersistentFlags().IntVarP(&flagWorkers, "workers", "w", 0, "Concurrent month fetches (default general.workers)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress and log output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (config.Config, error) {
	path := flagConfig
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return cfg, err
	}

	if flagFile != "" {
		cfg.Remote.FilePath = flagFile
	}
	if flagMonths != "" || rootCmd.PersistentFlags().Changed("months") {
		months, err := config.ExpandMonths(flagMonths)
		if err != nil {
			return cfg, fmt.Errorf("--months: %w", err)
		}
		cfg.Series.Months = months
	}
	if len(flagStatuses) > 0 {
		cfg.Series.AllowedStatuses = flagStatuses
	}
	if flagWorkers > 0 {
		cfg.General.Workers = flagWorkers
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// sourceName identifies where the transactions come from, for display and
// as the cache key.
func sourceName(cfg config.Config) string {
	if flagLocal {
		return "file://" + cfg.Remote.FilePath
	}
	port := cfg.Remote.Port
	if port == 0 {
		port = 22
	}
	host := net.JoinHostPort(cfg.Remote.Host, strconv.Itoa(port))
	if cfg.Remote.User != "" {
		host = cfg.Remote.User + "@" + host
	}
	return "ssh://" + host + cfg.Remote.FilePath
}

func buildRequest(cfg config.Config) pipeline.Request {
	return pipeline.Request{
		Path:            cfg.Remote.FilePath,
		Months:          cfg.Series.Months,
		AllowedStatuses: cfg.Series.AllowedStatuses,
		Workers:         cfg.General.Workers,
		Source:          sourceName(cfg),
	}
}

// openGateway returns the local or SSH gateway and a func that releases it.
func openGateway(ctx context.Context, cfg config.Config) (source.Gateway, func(), error) {
	if flagLocal {
		return source.LocalGateway{}, func() {}, nil
	}

	if err := cfg.ValidateRemote(); err != nil {
		return nil, nil, err
	}
	gw, err := source.DialSSH(ctx, source.SSHConfig{
		Host:            cfg.Remote.Host,
		Port:            cfg.Remote.Port,
		User:            cfg.Remote.User,
		Password:        cfg.Remote.Password,
		KeyFile:         cfg.Remote.KeyFile,
		KnownHosts:      cfg.Remote.KnownHosts,
		InsecureHostKey: cfg.Remote.InsecureHostKey,
		Timeout:         cfg.Remote.Timeout.Duration,
		MaxExecPerSec:   cfg.Remote.MaxExecPerSec,
	})
	if err != nil {
		return nil, nil, err
	}
	return gw, func() { _ = gw.Close() }, nil
}

// openStore opens the SQLite cache unless caching is off. A nil store with
// a nil error means "run without cache".
func openStore(cfg config.Config) (*store.Cache, error) {
	if flagNoCache || !cfg.Cache.Enabled {
		return nil, nil
	}
	return store.Open(pipeline.CachePath())
}

// loadMonths is the shared data loading path used by all commands and the
// TUI. Uses the SQLite cache when available.
func loadMonths(ctx context.Context, cfg config.Config, progressFn pipeline.ProgressFunc) (*pipeline.LoadResult, error) {
	log := logger.FromContext(ctx)
	req := buildRequest(cfg)

	gw, closeGW, err := openGateway(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeGW()

	cache, err := openStore(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("cache unavailable, fetching every month")
	}
	if cache != nil {
		defer func() { _ = cache.Close() }()
		return pipeline.LoadWithCache(ctx, gw, req, cache, cfg.Cache.MaxAge.Duration, progressFn)
	}
	return pipeline.Load(ctx, gw, req, progressFn)
}

// loadData loads the configured months with progress on stderr.
func loadData(ctx context.Context, cfg config.Config) (*pipeline.LoadResult, error) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Loading %d months from %s\n", len(cfg.Series.Months), sourceName(cfg))
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Fetching %s", cli.RenderProgressBar(current, total, 20))
	}

	result, err := loadMonths(ctx, cfg, progressFn)
	if err != nil {
		if !flagQuiet {
			fmt.Fprintln(os.Stderr)
		}
		return nil, err
	}

	if !flagQuiet {
		if result.CacheHits > 0 {
			fmt.Fprintf(os.Stderr, "\r  %d cached + %d fetched                \n", result.CacheHits, result.Fetched)
		} else {
			fmt.Fprintf(os.Stderr, "\r  Fetched %d months                \n", result.Fetched)
		}
		if result.Malformed > 0 {
			fmt.Fprintln(os.Stderr, cli.RenderWarning(fmt.Sprintf("%s malformed lines skipped",
				cli.FormatNumber(int64(result.Malformed)))))
		}
	}
	return result, nil
}

// indexRun is everything a command needs after computing the index.
type indexRun struct {
	cfg      config.Config
	result   *pipeline.LoadResult
	analysis *pipeline.Analysis
	record   store.Run
	saved    bool // record is in the history store
}

// computeIndex loads, analyzes and records the run in the history store.
// No-data outcomes come back as errors for which pipeline.IsNoData holds.
func computeIndex(ctx context.Context) (*indexRun, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	result, err := loadData(ctx, cfg)
	if err != nil {
		return nil, err
	}

	analysis, err := pipeline.Analyze(result.Aggregates())
	run := &indexRun{cfg: cfg, result: result, analysis: analysis}
	if err != nil {
		return run, err
	}

	run.record = store.NewRun(sourceName(cfg), cfg.Series.Months, analysis.Series)
	run.saved = saveRun(ctx, cfg, run.record)
	return run, nil
}

// saveRun records r in the history store. Failures only warn.
func saveRun(ctx context.Context, cfg config.Config, r store.Run) bool {
	log := logger.FromContext(ctx)

	cache, err := openStore(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("history unavailable")
		return false
	}
	if cache == nil {
		return false
	}
	defer func() { _ = cache.Close() }()

	if err := cache.SaveRun(r); err != nil {
		log.Warn().Err(err).Msg("saving run")
		return false
	}
	log.Debug().Str("run", r.ID).Msg("run saved")
	return true
}

// handleNoData prints the informational message for empty inputs and
// swallows the error. Other errors pass through.
func handleNoData(err error) error {
	if pipeline.IsNoData(err) {
		fmt.Println(pipeline.NoDataMessage)
		return nil
	}
	var numErr *pipeline.NumericConversionError
	if errors.As(err, &numErr) {
		return fmt.Errorf("bad price in basket: %w", err)
	}
	if strings.Contains(err.Error(), "unable to authenticate") {
		return fmt.Errorf("%w (check %s or %s)", err, config.EnvPassword, config.EnvKeyFile)
	}
	return err
}
