package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"donor-clv/internal/domain"
	"donor-clv/internal/storage"
)

// ErrNoResults is returned when there are no donor metrics to aggregate.
var ErrNoResults = errors.New("no donor metrics available for aggregation")

// Summarize groups donor metrics by segment.
// Segments without donors are omitted. Output is ordered Low, Medium, High.
func Summarize(results []*domain.DonorMetrics) []*domain.SegmentSummary {
	type acc struct {
		count       int
		sumAdjusted float64
		sumDonation float64
		sumCPA      float64
	}

	groups := make(map[domain.Segment]*acc)
	for _, m := range results {
		g, ok := groups[m.Segment]
		if !ok {
			g = &acc{}
			groups[m.Segment] = g
		}
		g.count++
		g.sumAdjusted += m.AdjustedCLV
		g.sumDonation += m.TotalDonationAmount
		g.sumCPA += m.CPA
	}

	summaries := make([]*domain.SegmentSummary, 0, len(groups))
	for seg, g := range groups {
		n := float64(g.count)
		summaries = append(summaries, &domain.SegmentSummary{
			Segment:         seg,
			DonorCount:      g.count,
			MeanAdjustedCLV: g.sumAdjusted / n,
			TotalDonations:  g.sumDonation,
			MeanCPA:         g.sumCPA / n,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Segment.Rank() < summaries[j].Segment.Rank()
	})
	return summaries
}

// Aggregator computes segment summaries and records them in the summary history.
type Aggregator struct {
	summaryStore storage.SegmentSummaryStore // optional
}

// NewAggregator creates a new aggregator. summaryStore may be nil.
func NewAggregator(summaryStore storage.SegmentSummaryStore) *Aggregator {
	return &Aggregator{summaryStore: summaryStore}
}

// ComputeAggregate summarizes a run's donor metrics.
// Returns ErrNoResults if results is empty.
func (a *Aggregator) ComputeAggregate(results []*domain.DonorMetrics) ([]*domain.SegmentSummary, error) {
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return Summarize(results), nil
}

// Store appends the run's summaries to the summary history, if one is configured.
func (a *Aggregator) Store(ctx context.Context, stamp domain.RunStamp, summaries []*domain.SegmentSummary) error {
	if a.summaryStore == nil {
		return nil
	}
	if err := a.summaryStore.InsertRun(ctx, stamp, summaries); err != nil {
		return fmt.Errorf("store segment summaries for run %s: %w", stamp.RunID, err)
	}
	return nil
}
