// Package main is the CLV batch entry point.
// Executes: read donation year → compute donor metrics → publish
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"

	"donor-clv/internal/config"
	"donor-clv/internal/observability"
	"donor-clv/internal/pipeline"
	"donor-clv/internal/storage"
	chstore "donor-clv/internal/storage/clickhouse"
	"donor-clv/internal/storage/memory"
	"donor-clv/internal/storage/migrations"
	mysqlstore "donor-clv/internal/storage/mysql"
	pgstore "donor-clv/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	sourceDSN := flag.String("source-dsn", "", "Donor source DSN (postgres://, mysql:// or mariadb://)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL DSN for the per-donor table (defaults to a postgres source DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse DSN for the segment summary history (optional)")
	outputDir := flag.String("output-dir", "", "Output directory for the summary CSV and run report")
	donationYear := flag.Int("donation-year", 0, "Donation year to process")
	useFixtures := flag.Bool("use-fixtures", false, "Use in-memory fixture donors instead of a database source")
	migrate := flag.Bool("migrate", false, "Apply embedded migrations before running")
	verbose := flag.Bool("v", false, "Verbose output")
	showProgress := flag.Bool("progress", false, "Show a progress bar on stderr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Flags override file and environment values only when set
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source-dsn":
			cfg.Source.DSN = *sourceDSN
		case "postgres-dsn":
			cfg.Publish.PostgresDSN = *postgresDSN
		case "clickhouse-dsn":
			cfg.Publish.ClickhouseDSN = *clickhouseDSN
		case "output-dir":
			cfg.Publish.OutputDir = *outputDir
		case "donation-year":
			cfg.Run.DonationYear = *donationYear
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *useFixtures, *migrate, *verbose, *showProgress); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, useFixtures, migrate, verbose, showProgress bool) error {
	conns := &connections{pools: make(map[string]*pgstore.Pool)}
	defer conns.Close()

	source, err := openSource(ctx, conns, cfg, useFixtures, migrate)
	if err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrConnection, err)
	}

	clvStore, err := openSink(ctx, conns, cfg, useFixtures, migrate)
	if err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrConnection, err)
	}

	m := observability.NewMetrics("")
	p := pipeline.New(source, clvStore, cfg.RunConfig(), cfg.Publish.OutputDir).
		WithOutputFiles(cfg.Publish.SummaryFile, cfg.Publish.ReportFile).
		WithMetrics(m).
		WithVerbose(verbose)

	if cfg.Publish.ClickhouseDSN != "" {
		history, err := openHistory(ctx, conns, cfg.Publish.ClickhouseDSN, migrate)
		if err != nil {
			return fmt.Errorf("%w: %w", pipeline.ErrConnection, err)
		}
		p.WithHistoryStore(history)
	}

	if showProgress {
		bar := progressbar.NewOptions(pipeline.StageCount,
			progressbar.OptionSetDescription("clv"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		p.WithProgress(bar)
	}

	result, runErr := p.Run(ctx)

	if cfg.Metrics.PushgatewayURL != "" {
		if err := m.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			log.Printf("[clv] WARN: %v", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	printResult(result)
	return nil
}

// connections tracks opened database handles so they can be closed together.
type connections struct {
	pools   map[string]*pgstore.Pool
	closers []func()
}

// pool returns a shared Postgres pool for dsn, migrating it once if asked.
func (c *connections) pool(ctx context.Context, dsn string, migrate bool) (*pgstore.Pool, error) {
	if p, ok := c.pools[dsn]; ok {
		return p, nil
	}
	p, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	c.pools[dsn] = p
	c.closers = append(c.closers, p.Close)

	if migrate {
		applied, err := migrations.RunPostgresMigrations(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		log.Printf("[clv] Applied %d postgres migrations", len(applied))
	}
	return p, nil
}

func (c *connections) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// openSource selects the donor source: fixtures, MySQL/MariaDB or Postgres.
func openSource(ctx context.Context, conns *connections, cfg *config.Config, useFixtures, migrate bool) (storage.DonorSource, error) {
	dsn := cfg.Source.DSN
	switch {
	case useFixtures:
		store := memory.NewDonorStore()
		if err := pipeline.LoadFixtures(ctx, store, cfg.Run.DonationYear); err != nil {
			return nil, err
		}
		return store, nil
	case mysqlstore.IsDSN(dsn):
		db, err := mysqlstore.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		source := mysqlstore.NewDonorSource(db)
		conns.closers = append(conns.closers, func() { _ = source.Close() })
		return source, nil
	case config.IsPostgresDSN(dsn):
		pool, err := conns.pool(ctx, dsn, migrate)
		if err != nil {
			return nil, err
		}
		return pgstore.NewDonorStore(pool), nil
	case dsn == "":
		return nil, errors.New("source dsn is required (or use --use-fixtures)")
	default:
		return nil, fmt.Errorf("unsupported source dsn scheme: %s", redact(dsn))
	}
}

// openSink returns the per-donor table store. Fixture runs without a
// Postgres DSN publish to memory.
func openSink(ctx context.Context, conns *connections, cfg *config.Config, useFixtures, migrate bool) (storage.DonorCLVStore, error) {
	dsn := cfg.SinkDSN()
	if dsn == "" {
		if useFixtures {
			log.Printf("[clv] No postgres DSN, per-donor table kept in memory")
			return memory.NewDonorCLVStore(), nil
		}
		return nil, errors.New("publish.postgres_dsn is required for a non-postgres source")
	}
	pool, err := conns.pool(ctx, dsn, migrate)
	if err != nil {
		return nil, err
	}
	return pgstore.NewDonorCLVStore(pool), nil
}

// openHistory connects the ClickHouse summary history.
func openHistory(ctx context.Context, conns *connections, dsn string, migrate bool) (storage.SegmentSummaryStore, error) {
	var (
		conn *chstore.Conn
		err  error
	)
	if migrate {
		conn, err = migrations.RunClickhouseMigrations(ctx, dsn)
	} else {
		conn, err = chstore.NewConn(ctx, dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	conns.closers = append(conns.closers, func() { _ = conn.Close() })
	return chstore.NewSegmentSummaryStore(conn), nil
}

func printResult(r *pipeline.RunResult) {
	fmt.Printf("CLV run %s completed (donation year %d):\n", r.Stamp.RunID, r.Stamp.DonationYear)
	fmt.Printf("  CPA: %.2f\n", r.CPA)
	fmt.Printf("  Donors: %d read, %d valid, %d excluded\n", r.ReadCount, r.ValidCount, len(r.Invalid))
	for _, s := range r.Summaries {
		fmt.Printf("  %-13s %6d donors, mean adjusted CLV %.2f\n", s.Segment+":", s.DonorCount, s.MeanAdjustedCLV)
	}
	fmt.Printf("  - %s\n", r.SummaryPath)
	fmt.Printf("  - %s\n", r.ReportPath)
}

// redact strips everything after the scheme so credentials never reach logs.
func redact(dsn string) string {
	if i := strings.Index(dsn, "://"); i >= 0 {
		return dsn[:i+3] + "..."
	}
	return "<dsn>"
}
