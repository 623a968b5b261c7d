package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pikta/slip-ingest/internal/common"
	"github.com/pikta/slip-ingest/internal/ingest"
	"github.com/pikta/slip-ingest/internal/metrics"
	"github.com/pikta/slip-ingest/internal/parse"
	"github.com/pikta/slip-ingest/internal/pdftext"
	"github.com/pikta/slip-ingest/internal/repository"
	"github.com/pikta/slip-ingest/internal/scan"
)

var (
	flagDir         string
	flagYears       []string
	flagMonths      []string
	flagThreads     int
	flagFilterCtime bool
	flagLogDir      string
	flagSQLite      string
	flagPdftotext   string
	flagDebug       bool
)

var rootCmd = &cobra.Command{
	Use:   "slip-ingest",
	Short: "Ingest POS receipt PDFs from the slip share into the slip store",
	Long: `slip-ingest walks the facility/year/month tree of receipt PDFs,
extracts transaction fields from each document via the external pdftotext
converter, and loads new records into the slip store. Files already stored
and files that failed in prior runs are skipped.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one ingestion pass over the configured directory tree",
	RunE:  runIngest,
}

var dbhealthCmd = &cobra.Command{
	Use:   "dbhealth",
	Short: "Open the slip store, ping it, and report",
	RunE:  runDBHealth,
}

func init() {
	runCmd.Flags().StringVarP(&flagDir, "dir", "d", "", "root directory of the slip tree (env SLIP_DIR)")
	runCmd.Flags().StringSliceVarP(&flagYears, "years", "y", nil, "years to cover, e.g. 2020 (env SLIP_YEARS)")
	runCmd.Flags().StringSliceVarP(&flagMonths, "months", "m", nil, "two-digit months to cover, default all (env SLIP_MONTHS)")
	runCmd.Flags().IntVarP(&flagThreads, "threads", "t", 0, "worker count, capped at 8 (env SLIP_WORKERS)")
	runCmd.Flags().BoolVar(&flagFilterCtime, "filter-ctime", false, "only files older than the newest stored slip, with a safety margin")
	runCmd.Flags().StringVar(&flagLogDir, "log-dir", "", "directory for error ledgers (env SLIP_LOG_DIR)")
	runCmd.Flags().StringVar(&flagSQLite, "sqlite", "", "use a local sqlite store at the given path ('mem' for in-memory) instead of DB_URL")
	runCmd.Flags().StringVar(&flagPdftotext, "pdftotext", "", "path to the pdftotext binary (env PDFTOTEXT_PATH)")

	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(runCmd, dbhealthCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagDebug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// loadConfig merges env configuration with CLI flag overrides.
func loadConfig() *common.Config {
	cfg := common.LoadConfig()
	if flagDir != "" {
		cfg.Ingest.RootDir = flagDir
	}
	if len(flagYears) > 0 {
		cfg.Ingest.Years = flagYears
	}
	if len(flagMonths) > 0 {
		cfg.Ingest.Months = flagMonths
	}
	if flagThreads > 0 {
		cfg.Ingest.Workers = flagThreads
	}
	if flagFilterCtime {
		cfg.Ingest.FilterCtime = true
	}
	if flagLogDir != "" {
		cfg.Ingest.LogDir = flagLogDir
	}
	if flagPdftotext != "" {
		cfg.Converter.Pdftotext = flagPdftotext
	}
	return cfg
}

// openStore builds the configured slip store and returns it with a cleanup
// function.
func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (repository.SlipStore, func(), error) {
	if flagSQLite != "" {
		path := flagSQLite
		if path == "mem" {
			path = ""
		}
		db, err := repository.OpenSQLite(path, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.MigrateSQLite(db, logger); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repository.NewSQLiteStore(db, logger), func() { _ = db.Close() }, nil
	}

	if cfg.Database.DSN == "" {
		return nil, nil, common.NewAppError("CONFIG_ERROR", "DB_URL is required", common.ErrInvalidInput)
	}
	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.MigratePostgres(pool, logger); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository.NewPostgresStore(pool, logger), pool.Close, nil
}

func runIngest(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	cfg := loadConfig()

	if cfg.Ingest.RootDir == "" {
		return fmt.Errorf("--dir or SLIP_DIR is required")
	}
	if len(cfg.Ingest.Years) == 0 {
		return fmt.Errorf("--years or SLIP_YEARS is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	collector := metrics.NewCollector()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := collector.Serve(cfg.Metrics.Addr); err != nil {
				logger.Warn("metrics listener stopped", "error", err)
			}
		}()
	}

	converter := pdftext.NewConverter(pdftext.Config{
		Pdftotext: cfg.Converter.Pdftotext,
		Timeout:   cfg.Converter.Timeout,
	}, logger)
	extractor := parse.NewExtractor(parse.Config{
		YearOffset:       cfg.Ingest.PathYearOffset,
		ObjectCodeOffset: cfg.Ingest.PathObjectOffset,
	}, converter, logger)
	walker := scan.NewWalker(cfg.Ingest.RootDir, cfg.Ingest.Years, cfg.Ingest.Months, logger)

	coord := ingest.NewCoordinator(ingest.Config{
		Workers:      cfg.Ingest.Workers,
		BatchSize:    cfg.Ingest.BatchSize,
		DrainTimeout: cfg.Ingest.DrainTimeout,
		MinDepth:     cfg.Ingest.MinDepth,
		TimeMargin:   cfg.Ingest.TimeMargin,
		FilterCtime:  cfg.Ingest.FilterCtime,
		LogDir:       cfg.Ingest.LogDir,
	}, walker, extractor, store, collector, logger)

	logger.Info("start")
	start := time.Now()
	stats, err := coord.Run(ctx)
	logger.Info("finish",
		"ran", stats.Scanned,
		"added", stats.Added,
		"errors", stats.Errors,
		"duration", time.Since(start).String(),
	)
	return err
}

func runDBHealth(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		return fmt.Errorf("DB_URL is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        2,
		MinConns:        1,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repository.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		return err
	}
	logger.Info("database is healthy")
	return nil
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
