// Package main loads fixture donors into the Postgres donor_data table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"donor-clv/internal/config"
	"donor-clv/internal/pipeline"
	"donor-clv/internal/storage/migrations"
	pgstore "donor-clv/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (defaults to the configured source DSN)")
	donationYear := flag.Int("donation-year", 0, "Donation year to seed (defaults to the configured year)")
	migrate := flag.Bool("migrate", true, "Apply embedded Postgres migrations first")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	dsn := *postgresDSN
	if dsn == "" && config.IsPostgresDSN(cfg.Source.DSN) {
		dsn = cfg.Source.DSN
	}
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn is required (or a postgres source.dsn in config)")
		os.Exit(1)
	}
	year := cfg.Run.DonationYear
	if *donationYear > 0 {
		year = *donationYear
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if *migrate {
		if _, err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			fmt.Fprintf(os.Stderr, "Error applying migrations: %v\n", err)
			pool.Close()
			os.Exit(1)
		}
	}

	if err := pipeline.LoadFixtures(ctx, pgstore.NewDonorStore(pool), year); err != nil {
		fmt.Fprintf(os.Stderr, "Error seeding donors: %v\n", err)
		pool.Close()
		os.Exit(1)
	}

	fmt.Printf("Seeded %d donors for donation year %d\n", len(pipeline.FixtureDonors(year)), year)
}
