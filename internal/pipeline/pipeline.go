// Package pipeline runs one CLV batch: read a donation year, compute donor
// metrics, then publish the per-donor table, the summary extract, the
// optional summary history and the run report.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"donor-clv/internal/domain"
	"donor-clv/internal/metrics"
	"donor-clv/internal/observability"
	"donor-clv/internal/reporting"
	"donor-clv/internal/storage"
)

// Default output file names.
const (
	DefaultSummaryFile = "clv_cpa_summary.csv"
	DefaultReportFile  = "RUN_REPORT.md"
)

// Stages reported to Progress, in order.
const (
	StageRead = iota
	StageCompute
	StagePublishTable
	StagePublishSummary
	StagePublishHistory
	StagePublishReport
	StageCount
)

// Progress receives one Add(1) per completed stage.
type Progress interface {
	Add(n int) error
}

// Pipeline orchestrates one CLV run.
type Pipeline struct {
	source      storage.DonorSource
	clvStore    storage.DonorCLVStore
	aggregator  *metrics.Aggregator
	reportGen   *reporting.Generator
	cfg         domain.RunConfig
	outputDir   string
	summaryFile string
	reportFile  string
	clock       func() time.Time
	newRunID    func() string
	metrics     *observability.Metrics // optional
	progress    Progress               // optional
	verbose     bool
}

// New creates a pipeline reading from source and replacing the per-donor
// table in clvStore. Output files are written to outputDir.
func New(
	source storage.DonorSource,
	clvStore storage.DonorCLVStore,
	cfg domain.RunConfig,
	outputDir string,
) *Pipeline {
	return &Pipeline{
		source:      source,
		clvStore:    clvStore,
		aggregator:  metrics.NewAggregator(nil),
		reportGen:   reporting.NewGenerator(),
		cfg:         cfg,
		outputDir:   outputDir,
		summaryFile: DefaultSummaryFile,
		reportFile:  DefaultReportFile,
		clock:       func() time.Time { return time.Now().UTC() },
		newRunID:    uuid.NewString,
	}
}

// WithClock sets a custom clock function for deterministic output.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithRunID fixes the run identifier instead of generating a UUID.
func (p *Pipeline) WithRunID(runID string) *Pipeline {
	p.newRunID = func() string { return runID }
	return p
}

// WithHistoryStore appends each run's segment summaries to store.
func (p *Pipeline) WithHistoryStore(store storage.SegmentSummaryStore) *Pipeline {
	p.aggregator = metrics.NewAggregator(store)
	return p
}

// WithOutputFiles overrides the summary CSV and run report file names.
func (p *Pipeline) WithOutputFiles(summaryFile, reportFile string) *Pipeline {
	p.summaryFile = summaryFile
	p.reportFile = reportFile
	return p
}

// WithMetrics records run metrics on m.
func (p *Pipeline) WithMetrics(m *observability.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// WithProgress reports completed stages to progress.
func (p *Pipeline) WithProgress(progress Progress) *Pipeline {
	p.progress = progress
	return p
}

// WithVerbose enables per-stage logging.
func (p *Pipeline) WithVerbose(verbose bool) *Pipeline {
	p.verbose = verbose
	return p
}

// RunResult contains results from one pipeline run.
type RunResult struct {
	Stamp       domain.RunStamp
	CPA         float64
	ReadCount   int
	ValidCount  int
	Invalid     []*metrics.InvalidRecordError
	Summaries   []*domain.SegmentSummary
	SummaryPath string
	ReportPath  string
}

// Run executes the full pipeline.
// Stages:
//  1. Read the donation year from the source
//  2. Compute metrics for every donor and summarize by segment
//  3. Replace the per-donor table
//  4. Write the summary CSV
//  5. Append the summary history (if configured)
//  6. Write the run report
//
// Nothing is published unless stages 1 and 2 succeed.
func (p *Pipeline) Run(ctx context.Context) (result *RunResult, err error) {
	start := p.clock()
	defer func() {
		status := observability.StatusSuccess
		if err != nil {
			status = observability.StatusFailure
		}
		end := p.clock()
		p.metrics.RecordRun(status, end.Sub(start), end)
	}()

	stamp := domain.RunStamp{
		RunID:           p.newRunID(),
		DonationYear:    p.cfg.DonationYear,
		CalculationDate: dateOf(start),
	}
	p.log("Run %s: donation year %d", stamp.RunID, stamp.DonationYear)

	// Stage 1: read
	stageStart := p.clock()
	records, err := p.source.GetByYear(ctx, p.cfg.DonationYear)
	if err != nil {
		return nil, fmt.Errorf("%w: read donation year %d: %w", ErrConnection, p.cfg.DonationYear, err)
	}
	p.metrics.RecordRead(len(records))
	p.metrics.RecordStage(observability.StageRead, p.clock().Sub(stageStart))
	p.log("  Read %d donor records", len(records))
	p.advance()

	// Stage 2: compute
	stageStart = p.clock()
	batch, err := metrics.ComputeAll(records, p.cfg)
	if err != nil {
		return nil, fmt.Errorf("compute donor metrics: %w", err)
	}
	for _, inv := range batch.Invalid {
		log.Printf("[pipeline] Excluded donor %d: %s", inv.DonorID, inv.Reason)
		p.metrics.RecordInvalid(inv.Reason)
	}
	p.metrics.RecordValid(batch.ValidCount())
	if batch.ValidCount() == 0 {
		return nil, fmt.Errorf("%w: read %d records, %d invalid", ErrNoValidDonors, len(records), batch.InvalidCount())
	}

	summaries, err := p.aggregator.ComputeAggregate(batch.Results)
	if err != nil {
		return nil, fmt.Errorf("summarize segments: %w", err)
	}
	rows := make([]*domain.DonorCLV, 0, len(batch.Results))
	for _, m := range batch.Results {
		rows = append(rows, domain.NewDonorCLV(m, stamp.CalculationDate))
	}
	p.metrics.RecordResult(batch.CPA, summaries)
	p.metrics.RecordStage(observability.StageCompute, p.clock().Sub(stageStart))
	p.log("  Computed %d donors (%d excluded), CPA %.2f", batch.ValidCount(), batch.InvalidCount(), batch.CPA)
	p.advance()

	// Stages 3-6: publish
	stageStart = p.clock()
	report := p.reportGen.Generate(stamp, p.cfg, len(records), batch, summaries)
	result = &RunResult{
		Stamp:       stamp,
		CPA:         batch.CPA,
		ReadCount:   len(records),
		ValidCount:  batch.ValidCount(),
		Invalid:     batch.Invalid,
		Summaries:   summaries,
		SummaryPath: filepath.Join(p.outputDir, p.summaryFile),
		ReportPath:  filepath.Join(p.outputDir, p.reportFile),
	}
	if err := p.publish(ctx, stamp, rows, summaries, report, result); err != nil {
		return nil, err
	}
	p.metrics.RecordStage(observability.StagePublish, p.clock().Sub(stageStart))

	return result, nil
}

func (p *Pipeline) publish(
	ctx context.Context,
	stamp domain.RunStamp,
	rows []*domain.DonorCLV,
	summaries []*domain.SegmentSummary,
	report *reporting.Report,
	result *RunResult,
) error {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return fmt.Errorf("%w: create output dir: %w", ErrPublication, err)
	}

	if err := p.clvStore.ReplaceAll(ctx, rows); err != nil {
		return fmt.Errorf("%w: replace per-donor table: %w", ErrPublication, err)
	}
	p.metrics.RecordPublished("donor_clv", len(rows))
	report.Outputs = append(report.Outputs, reporting.OutputRow{Sink: "donor_clv", Location: "donor_clv_segmentation", Rows: len(rows)})
	p.log("  Replaced per-donor table with %d rows", len(rows))
	p.advance()

	if err := reporting.WriteSummaryCSV(result.SummaryPath, summaries); err != nil {
		return fmt.Errorf("%w: write summary: %w", ErrPublication, err)
	}
	p.metrics.RecordPublished("summary_csv", len(summaries))
	report.Outputs = append(report.Outputs, reporting.OutputRow{Sink: "summary_csv", Location: result.SummaryPath, Rows: len(summaries)})
	p.log("  Wrote %s", result.SummaryPath)
	p.advance()

	if err := p.aggregator.Store(ctx, stamp, summaries); err != nil {
		return fmt.Errorf("%w: %w", ErrPublication, err)
	}
	p.advance()

	if err := reporting.WriteMarkdown(result.ReportPath, report); err != nil {
		return fmt.Errorf("%w: write report: %w", ErrPublication, err)
	}
	p.log("  Wrote %s", result.ReportPath)
	p.advance()

	return nil
}

func (p *Pipeline) advance() {
	if p.progress == nil {
		return
	}
	_ = p.progress.Add(1)
}

func (p *Pipeline) log(format string, args ...interface{}) {
	if p.verbose {
		log.Printf("[pipeline] "+format, args...)
	}
}

// dateOf truncates t to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
