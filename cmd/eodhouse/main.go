package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rickgao/eod-data/internal/config"
	"github.com/rickgao/eod-data/internal/database"
	"github.com/rickgao/eod-data/internal/ingest"
	"github.com/rickgao/eod-data/internal/polygon"
	"github.com/rickgao/eod-data/internal/source"
	"github.com/rickgao/eod-data/internal/store"
	"github.com/rickgao/eod-data/internal/verify"
	"github.com/rickgao/eod-data/internal/version"
)

const usage = `usage: eodhouse [-config path] <command>

commands:
  init         create empty warehouse tables
  load         full historical bulk load (flatfiles, tickers, splits)
  update       run the daily update (backfill, splits, adjust, technicals, gaps)
  verify       spot-check stored adjusted prices against the reference API
  stats        print table row counts and date ranges
  clean        drop and re-create all tables (asks for confirmation)
  check-files  exit 0 if yesterday's flatfiles are ready, 2 if not yet, 1 on error
`

func main() {
	configPath := flag.String("config", "configs/eodhouse.yaml", "path to config file")
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting eodhouse",
		"version", version.Version,
		"commit", version.Commit,
		"command", cmd,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Handle shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	os.Exit(run(ctx, cmd, cfg, logger))
}

func run(ctx context.Context, cmd string, cfg *config.Config, logger *slog.Logger) int {
	switch cmd {
	case "init":
		return runInit(ctx, cfg, logger)
	case "load":
		return runLoad(ctx, cfg, logger)
	case "update":
		return runUpdate(ctx, cfg, logger)
	case "verify":
		return runVerify(ctx, cfg, logger)
	case "stats":
		return runStats(ctx, cfg, logger)
	case "clean":
		return runClean(ctx, cfg, logger)
	case "check-files":
		return runCheckFiles(ctx, cfg, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return 1
	}
}

// openStore connects to the warehouse database. The returned closer shuts
// the pool down.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.Postgres, func(), error) {
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return store.NewPostgres(pool, logger), pool.Close, nil
}

// openSources builds the stock and options flatfile sources per config.
func openSources(ctx context.Context, cfg *config.Config, logger *slog.Logger) (stocks, options source.DataSource, err error) {
	switch cfg.Source.Backend {
	case "s3":
		stocks, err = source.NewS3(ctx, cfg.Source.S3, source.Stocks, logger)
		if err != nil {
			return nil, nil, err
		}
		options, err = source.NewS3(ctx, cfg.Source.S3, source.Options, logger)
		if err != nil {
			return nil, nil, err
		}
	default:
		stocks = source.NewLocal(cfg.Source.LocalPath, source.Stocks, logger)
		options = source.NewLocal(cfg.Source.LocalPath, source.Options, logger)
	}
	return stocks, options, nil
}

func newAPIClient(cfg *config.Config, logger *slog.Logger) *polygon.Client {
	return polygon.NewClient(
		cfg.API.BaseURL,
		cfg.API.APIKey,
		polygon.WithLogger(logger),
		polygon.WithTimeout(cfg.API.Timeout),
		polygon.WithRetries(cfg.API.MaxRetries, time.Second),
		polygon.WithRateLimit(cfg.API.RateLimit),
	)
}

func newEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ingest.Engine, func(), error) {
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	stocks, options, err := openSources(ctx, cfg, logger)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	api := newAPIClient(cfg, logger)
	return ingest.NewEngine(st, stocks, options, api, logger), closeStore, nil
}

func runInit(ctx context.Context, cfg *config.Config, logger *slog.Logger) int {
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("init failed", "error", err)
		return 1
	}
	defer closeStore()

	if err := st.Init(ctx); err != nil {
		logger.Error("init failed", "error", err)
		return 1
	}
	logger.Info("tables initialized")
	return 0
}

func runLoad(ctx context.Context, cfg *config.Config, logger *slog.Logger) int {
	engine, closeStore, err := newEngine(ctx, cfg, logger)
	if err != nil {
		logger.Error("load failed", "error", err)
		return 1
	}
	defer closeStore()
	defer engine.Stats().Log(logger)

	if err := engine.Update(ctx); err != nil {
		logger.Error("bulk load failed", "error", err)
		return 1
	}
	if _, err := engine.SyncTickers(ctx); err != nil {
		logger.Error("ticker sync failed", "error", err)
		return 1
	}
	logger.Info("bulk load complete")
	return 0
}

func runUpdate(ctx context.Context, cfg *config.Config, logger *slog.Logger) int {
	engine, closeStore, err := newEngine(ctx, cfg, logger)
	if err != nil {
		logger.Error("update failed", "error", err)
		return 1
	}
	defer closeStore()
	defer engine.Stats().Log(logger)

	if err := engine.Update(ctx); err != nil {
		logger.Error("update failed", "error", err)
		return 1
	}
	logger.Info("update complete")
	return 0
}

func runVerify(ctx context.Context, cfg *config.Config, logger *slog.Logger) int {
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("verify failed", "error", err)
		return 1
	}
	defer closeStore()

	api := newAPIClient(cfg, logger)
	checker := verify.NewChecker(st, api, cfg.API.RateLimit, logger)

	if _, err := checker.Run(ctx, cfg.Verify.SampleTickers, cfg.Verify.LookbackDays); err != nil {
		logger.Error("verification failed", "error", err)
		return 1
	}
	logger.Info("verification complete")
	return 0
}

func runStats(ctx context.Context, cfg *config.Config, logger *slog.Logger) int {
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("stats failed", "error", err)
		return 1
	}
	defer closeStore()

	for _, table := range store.Tables {
		stats, err := st.Stats(ctx, table)
		if err != nil {
			logger.Error("stats failed", "table", string(table), "error", err)
			return 1
		}
		if stats.MinDate.IsZero() {
			fmt.Printf("%-18s %12d rows\n", table, stats.Rows)
			continue
		}
		fmt.Printf("%-18s %12d rows  %s to %s\n",
			table,
			stats.Rows,
			stats.MinDate.Format("2006-01-02"),
			stats.MaxDate.Format("2006-01-02"),
		)
	}
	return 0
}

func runClean(ctx context.Context, cfg *config.Config, logger *slog.Logger) int {
	fmt.Println("WARNING: this deletes ALL warehouse data and re-creates empty tables.")
	fmt.Print("Type 'yes' to confirm: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		logger.Error("failed to read confirmation", "error", err)
		return 1
	}
	if strings.TrimSpace(strings.ToLower(line)) != "yes" {
		logger.Info("aborted")
		return 0
	}

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("clean failed", "error", err)
		return 1
	}
	defer closeStore()

	if err := st.Drop(ctx); err != nil {
		logger.Error("drop failed", "error", err)
		return 1
	}
	if err := st.Init(ctx); err != nil {
		logger.Error("re-init failed", "error", err)
		return 1
	}
	logger.Info("tables cleaned and re-initialized")
	return 0
}

// runCheckFiles probes whether both of yesterday's flatfiles exist yet.
// "Yesterday" is evaluated in New York time because that is the market's
// publishing clock: files land between 8PM ET on the trading day and 11AM
// ET the next morning.
func runCheckFiles(ctx context.Context, cfg *config.Config, logger *slog.Logger) int {
	nyc, err := time.LoadLocation("America/New_York")
	if err != nil {
		logger.Error("load timezone", "error", err)
		return 1
	}
	yesterday := time.Now().In(nyc).AddDate(0, 0, -1)
	day := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.UTC)

	logger.Info("checking flatfile availability", "date", day.Format("2006-01-02"))

	stocks, options, err := openSources(ctx, cfg, logger)
	if err != nil {
		logger.Error("check-files failed", "error", err)
		return 1
	}

	stocksReady, err := stocks.Available(ctx, day)
	if err != nil {
		logger.Error("stocks availability probe failed", "error", err)
		return 1
	}
	optionsReady, err := options.Available(ctx, day)
	if err != nil {
		logger.Error("options availability probe failed", "error", err)
		return 1
	}

	logger.Info("availability",
		"date", day.Format("2006-01-02"),
		"stocks", stocksReady,
		"options", optionsReady,
	)
	if stocksReady && optionsReady {
		logger.Info("both files ready")
		return 0
	}
	logger.Info("files not yet available, waiting")
	return 2
}
