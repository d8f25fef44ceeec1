package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"donor-clv/internal/domain"
	"donor-clv/internal/storage"
)

func makeCLVRow(id int64, adjusted float64) *domain.DonorCLV {
	return &domain.DonorCLV{
		DonorID:               id,
		CLV:                   adjusted / 0.8,
		AdjustedCLV:           adjusted,
		CPA:                   20000,
		CLVSegment:            domain.SegmentMedium,
		AcquisitionEfficiency: domain.EfficiencyUnprofitable,
		CalculationDate:       time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestDonorCLVStore_ReplaceAll(t *testing.T) {
	store := NewDonorCLVStore()
	ctx := context.Background()

	if err := store.ReplaceAll(ctx, []*domain.DonorCLV{makeCLVRow(2, 12000), makeCLVRow(1, 11000)}); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	if err := store.ReplaceAll(ctx, []*domain.DonorCLV{makeCLVRow(5, 15000)}); err != nil {
		t.Fatalf("second ReplaceAll failed: %v", err)
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 1 || got[0].DonorID != 5 {
		t.Fatalf("Expected only donor 5 after replace, got %+v", got)
	}
}

func TestDonorCLVStore_OrderedByDonorID(t *testing.T) {
	store := NewDonorCLVStore()
	ctx := context.Background()

	if err := store.ReplaceAll(ctx, []*domain.DonorCLV{makeCLVRow(3, 1), makeCLVRow(1, 1), makeCLVRow(2, 1)}); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	got, _ := store.GetAll(ctx)
	for i, want := range []int64{1, 2, 3} {
		if got[i].DonorID != want {
			t.Errorf("Order mismatch at %d: got %d, want %d", i, got[i].DonorID, want)
		}
	}
}

func TestDonorCLVStore_InvalidInputKeepsPrevious(t *testing.T) {
	store := NewDonorCLVStore()
	ctx := context.Background()

	if err := store.ReplaceAll(ctx, []*domain.DonorCLV{makeCLVRow(1, 11000)}); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	err := store.ReplaceAll(ctx, []*domain.DonorCLV{makeCLVRow(2, 1), nil})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}

	got, _ := store.GetAll(ctx)
	if len(got) != 1 || got[0].DonorID != 1 {
		t.Errorf("Previous contents were not preserved: %+v", got)
	}
}
