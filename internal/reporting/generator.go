package reporting

import (
	"time"

	"donor-clv/internal/domain"
	"donor-clv/internal/metrics"
)

// Generator produces run reports from computed batches.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report of one run. readCount is the number of records
// returned by the source; outputs may be appended by the caller afterwards.
func (g *Generator) Generate(
	stamp domain.RunStamp,
	cfg domain.RunConfig,
	readCount int,
	batch *metrics.Batch,
	summaries []*domain.SegmentSummary,
) *Report {
	excluded := make([]ExcludedRow, 0, len(batch.Invalid))
	for _, inv := range batch.Invalid {
		excluded = append(excluded, ExcludedRow{DonorID: inv.DonorID, Reason: inv.Reason})
	}

	return &Report{
		GeneratedAt: g.now(),
		Stamp:       stamp,
		Config:      cfg,
		Input: InputSummary{
			DonorsRead:    readCount,
			DonorsValid:   batch.ValidCount(),
			DonorsInvalid: batch.InvalidCount(),
		},
		CPA:        batch.CPA,
		Segments:   summaries,
		Efficiency: efficiencyBySegment(batch.Results, summaries),
		Excluded:   excluded,
	}
}

// efficiencyBySegment counts profitable and unprofitable donors for each
// summarized segment.
func efficiencyBySegment(results []*domain.DonorMetrics, summaries []*domain.SegmentSummary) []EfficiencyRow {
	counts := make(map[domain.Segment]*EfficiencyRow, len(summaries))
	rows := make([]EfficiencyRow, len(summaries))
	for i, s := range summaries {
		rows[i].Segment = s.Segment
		counts[s.Segment] = &rows[i]
	}

	for _, m := range results {
		row, ok := counts[m.Segment]
		if !ok {
			continue
		}
		if m.Efficiency == domain.EfficiencyProfitable {
			row.Profitable++
		} else {
			row.Unprofitable++
		}
	}
	return rows
}
