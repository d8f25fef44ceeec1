package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"donor-clv/internal/domain"
)

// Default values for the non-model settings.
const (
	DefaultOutputDir   = "."
	DefaultSummaryFile = "clv_cpa_summary.csv"
	DefaultReportFile  = "RUN_REPORT.md"
	DefaultMetricsJob  = "donor_clv"
)

// Config is the full batch configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Publish PublishConfig `yaml:"publish"`
	Run     RunSection    `yaml:"run"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// SourceConfig locates the donor_data table.
type SourceConfig struct {
	// DSN selects the backend by scheme: postgres:// or postgresql:// for pgx,
	// mysql:// or mariadb:// for the MySQL driver.
	DSN string `yaml:"dsn"`
}

// PublishConfig holds the output sinks.
type PublishConfig struct {
	// PostgresDSN is where donor_clv_segmentation is replaced each run.
	// Defaults to the source DSN when that is a Postgres DSN.
	PostgresDSN string `yaml:"postgres_dsn"`

	// ClickhouseDSN enables the segment summary history when set.
	ClickhouseDSN string `yaml:"clickhouse_dsn"`

	OutputDir   string `yaml:"output_dir"`
	SummaryFile string `yaml:"summary_file"`
	ReportFile  string `yaml:"report_file"`
}

// RunSection holds the model constants.
type RunSection struct {
	DonationYear          int           `yaml:"donation_year"`
	ChurnRate             float64       `yaml:"churn_rate"`
	FundraisingCostRatio  float64       `yaml:"fundraising_cost_ratio"`
	TotalFundraisingSpend float64       `yaml:"total_fundraising_spend"`
	NewDonorsCount        int           `yaml:"new_donors_count"`
	SegmentBounds         BoundsSection `yaml:"segment_bounds"`
}

// BoundsSection holds the adjusted CLV tier edges.
type BoundsSection struct {
	LowHigh float64 `yaml:"low_high"`
	HighLow float64 `yaml:"high_low"`
}

// MetricsConfig controls the optional pushgateway export.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and the process environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with the reference values.
func defaults() *Config {
	rc := domain.DefaultRunConfig()
	return &Config{
		Publish: PublishConfig{
			OutputDir:   DefaultOutputDir,
			SummaryFile: DefaultSummaryFile,
			ReportFile:  DefaultReportFile,
		},
		Run: RunSection{
			DonationYear:          rc.DonationYear,
			ChurnRate:             rc.ChurnRate,
			FundraisingCostRatio:  rc.FundraisingCostRatio,
			TotalFundraisingSpend: rc.TotalFundraisingSpend,
			NewDonorsCount:        rc.NewDonorsCount,
			SegmentBounds: BoundsSection{
				LowHigh: rc.Bounds.LowHigh,
				HighLow: rc.Bounds.HighLow,
			},
		},
		Metrics: MetricsConfig{
			Job: DefaultMetricsJob,
		},
	}
}

// applyEnv overlays CLV_* variables found through lookup.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *float64) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = f
		return nil
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("CLV_SOURCE_DSN", &cfg.Source.DSN)
	str("CLV_POSTGRES_DSN", &cfg.Publish.PostgresDSN)
	str("CLV_CLICKHOUSE_DSN", &cfg.Publish.ClickhouseDSN)
	str("CLV_OUTPUT_DIR", &cfg.Publish.OutputDir)
	str("CLV_PUSHGATEWAY_URL", &cfg.Metrics.PushgatewayURL)

	return errors.Join(
		integer("CLV_DONATION_YEAR", &cfg.Run.DonationYear),
		num("CLV_CHURN_RATE", &cfg.Run.ChurnRate),
		num("CLV_FUNDRAISING_COST_RATIO", &cfg.Run.FundraisingCostRatio),
		num("CLV_TOTAL_FUNDRAISING_SPEND", &cfg.Run.TotalFundraisingSpend),
		integer("CLV_NEW_DONORS_COUNT", &cfg.Run.NewDonorsCount),
	)
}

// Validate checks the configuration. Callers that override fields after Load
// (for example from flags) must call it again.
func (c *Config) Validate() error {
	if err := c.RunConfig().Validate(); err != nil {
		return fmt.Errorf("config: run: %w", err)
	}
	if c.Publish.OutputDir == "" {
		return fmt.Errorf("config: publish.output_dir must not be empty")
	}
	for name, file := range map[string]string{
		"summary_file": c.Publish.SummaryFile,
		"report_file":  c.Publish.ReportFile,
	} {
		if file == "" || filepath.Base(file) != file {
			return fmt.Errorf("config: publish.%s %q must be a plain file name", name, file)
		}
	}
	if c.Metrics.PushgatewayURL != "" && c.Metrics.Job == "" {
		return fmt.Errorf("config: metrics.job is required with pushgateway_url")
	}
	return nil
}

// RunConfig returns the model constants as a domain value.
func (c *Config) RunConfig() domain.RunConfig {
	return domain.RunConfig{
		DonationYear:          c.Run.DonationYear,
		ChurnRate:             c.Run.ChurnRate,
		FundraisingCostRatio:  c.Run.FundraisingCostRatio,
		TotalFundraisingSpend: c.Run.TotalFundraisingSpend,
		NewDonorsCount:        c.Run.NewDonorsCount,
		Bounds: domain.SegmentBounds{
			LowHigh: c.Run.SegmentBounds.LowHigh,
			HighLow: c.Run.SegmentBounds.HighLow,
		},
	}
}

// SinkDSN returns the Postgres DSN for the per-donor table: the explicit
// publish.postgres_dsn, or the source DSN when it is a Postgres DSN.
func (c *Config) SinkDSN() string {
	if c.Publish.PostgresDSN != "" {
		return c.Publish.PostgresDSN
	}
	if IsPostgresDSN(c.Source.DSN) {
		return c.Source.DSN
	}
	return ""
}

// SummaryPath is the full path of the summary CSV.
func (c *Config) SummaryPath() string {
	return filepath.Join(c.Publish.OutputDir, c.Publish.SummaryFile)
}

// ReportPath is the full path of the run report.
func (c *Config) ReportPath() string {
	return filepath.Join(c.Publish.OutputDir, c.Publish.ReportFile)
}

// IsPostgresDSN reports whether dsn is a URL-form Postgres DSN.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
