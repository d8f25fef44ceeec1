package storage

import (
	"context"

	"donor-clv/internal/domain"
)

// DonorSource supplies the donor snapshot for a donation year.
type DonorSource interface {
	// GetByYear retrieves all donor records for a donation year, ordered by donor_id ASC.
	GetByYear(ctx context.Context, donationYear int) ([]*domain.DonorRecord, error)
}

// DonorStore is a DonorSource that can also be loaded, used for fixtures and seeding.
type DonorStore interface {
	DonorSource

	// InsertBulk adds records for a donation year atomically.
	// Fails entire batch on duplicate (donation_year, donor_id).
	InsertBulk(ctx context.Context, donationYear int, records []*domain.DonorRecord) error
}

// DonorCLVStore provides access to the donor_clv_segmentation table.
type DonorCLVStore interface {
	// ReplaceAll drops the previous contents and writes rows atomically.
	// On error the previous contents are left untouched.
	ReplaceAll(ctx context.Context, rows []*domain.DonorCLV) error

	// GetAll retrieves all rows, ordered by donor_id ASC.
	GetAll(ctx context.Context) ([]*domain.DonorCLV, error)
}

// SegmentSummaryStore provides access to the segment_summaries history.
type SegmentSummaryStore interface {
	// InsertRun appends the summaries of one run. Returns ErrDuplicateKey if the run_id exists.
	InsertRun(ctx context.Context, stamp domain.RunStamp, summaries []*domain.SegmentSummary) error

	// GetByRunID retrieves the summaries of a run ordered Low, Medium, High.
	// Returns ErrNotFound if the run does not exist.
	GetByRunID(ctx context.Context, runID string) ([]*domain.SegmentSummary, error)
}
