package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donor-clv/internal/domain"
	"donor-clv/internal/storage"
)

func testSummaries() []*domain.SegmentSummary {
	return []*domain.SegmentSummary{
		{Segment: domain.SegmentHigh, DonorCount: 2, MeanAdjustedCLV: 70000, TotalDonations: 12000, MeanCPA: 20000},
		{Segment: domain.SegmentLow, DonorCount: 5, MeanAdjustedCLV: 3000, TotalDonations: 750, MeanCPA: 20000},
		{Segment: domain.SegmentMedium, DonorCount: 500, MeanAdjustedCLV: 16143.65, TotalDonations: 500000, MeanCPA: 20000},
	}
}

func TestSegmentSummaryStore_InsertRunAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSegmentSummaryStore(conn)
	ctx := context.Background()

	stamp := domain.RunStamp{
		RunID:           "run-001",
		DonationYear:    2025,
		CalculationDate: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.InsertRun(ctx, stamp, testSummaries()))

	got, err := store.GetByRunID(ctx, "run-001")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, domain.SegmentLow, got[0].Segment)
	assert.Equal(t, domain.SegmentMedium, got[1].Segment)
	assert.Equal(t, domain.SegmentHigh, got[2].Segment)

	assert.Equal(t, 500, got[1].DonorCount)
	assert.InDelta(t, 16143.65, got[1].MeanAdjustedCLV, 1e-9)
	assert.InDelta(t, 500000, got[1].TotalDonations, 1e-9)
	assert.Equal(t, 20000.0, got[1].MeanCPA)
}

func TestSegmentSummaryStore_DuplicateRun(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSegmentSummaryStore(conn)
	ctx := context.Background()
	stamp := domain.RunStamp{RunID: "run-dup", DonationYear: 2025, CalculationDate: time.Now().UTC()}

	require.NoError(t, store.InsertRun(ctx, stamp, testSummaries()))
	err := store.InsertRun(ctx, stamp, testSummaries())
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSegmentSummaryStore_NotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewSegmentSummaryStore(conn).GetByRunID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSegmentSummaryStore_InvalidInput(t *testing.T) {
	store := NewSegmentSummaryStore(nil)
	ctx := context.Background()

	err := store.InsertRun(ctx, domain.RunStamp{}, testSummaries())
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.InsertRun(ctx, domain.RunStamp{RunID: "r"}, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.InsertRun(ctx, domain.RunStamp{RunID: "r"}, []*domain.SegmentSummary{{Segment: "Unknown"}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
