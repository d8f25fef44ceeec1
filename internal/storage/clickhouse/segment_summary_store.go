package clickhouse

import (
	"context"
	"fmt"

	"donor-clv/internal/domain"
	"donor-clv/internal/storage"
)

// SegmentSummaryStore implements storage.SegmentSummaryStore using ClickHouse.
// Each run appends one row per segment to segment_summaries.
type SegmentSummaryStore struct {
	conn *Conn
}

// NewSegmentSummaryStore creates a new SegmentSummaryStore.
func NewSegmentSummaryStore(conn *Conn) *SegmentSummaryStore {
	return &SegmentSummaryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SegmentSummaryStore = (*SegmentSummaryStore)(nil)

// InsertRun appends the summaries of one run as a single batch.
// Returns ErrDuplicateKey if the run_id already exists.
func (s *SegmentSummaryStore) InsertRun(ctx context.Context, stamp domain.RunStamp, summaries []*domain.SegmentSummary) error {
	if stamp.RunID == "" || len(summaries) == 0 {
		return storage.ErrInvalidInput
	}
	for _, sum := range summaries {
		if sum == nil || sum.Segment.Rank() < 0 || sum.DonorCount < 0 {
			return storage.ErrInvalidInput
		}
	}

	// MergeTree does not enforce uniqueness
	exists, err := s.exists(ctx, stamp.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO segment_summaries (
			run_id, donation_year, calculation_date,
			clv_segment, segment_rank,
			donor_count, mean_adjusted_clv, total_donations, mean_cpa
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sum := range summaries {
		err = batch.Append(
			stamp.RunID, uint16(stamp.DonationYear), stamp.CalculationDate,
			string(sum.Segment), uint8(sum.Segment.Rank()),
			uint32(sum.DonorCount), sum.MeanAdjustedCLV, sum.TotalDonations, sum.MeanCPA,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves the summaries of a run ordered Low, Medium, High.
// Returns ErrNotFound if the run does not exist.
func (s *SegmentSummaryStore) GetByRunID(ctx context.Context, runID string) ([]*domain.SegmentSummary, error) {
	query := `
		SELECT
			clv_segment, donor_count, mean_adjusted_clv, total_donations, mean_cpa
		FROM segment_summaries
		WHERE run_id = ?
		ORDER BY segment_rank ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query segment summaries: %w", err)
	}
	defer rows.Close()

	var result []*domain.SegmentSummary
	for rows.Next() {
		var (
			sum     domain.SegmentSummary
			segment string
			count   uint32
		)
		if err := rows.Scan(&segment, &count, &sum.MeanAdjustedCLV, &sum.TotalDonations, &sum.MeanCPA); err != nil {
			return nil, fmt.Errorf("scan segment summary: %w", err)
		}
		sum.Segment = domain.Segment(segment)
		sum.DonorCount = int(count)
		result = append(result, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segment summaries: %w", err)
	}

	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}
	return result, nil
}

func (s *SegmentSummaryStore) exists(ctx context.Context, runID string) (bool, error) {
	query := `SELECT count(*) FROM segment_summaries WHERE run_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
