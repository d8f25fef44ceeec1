package metrics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donor-clv/internal/domain"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// Helper to create a donor record.
func makeRecord(id int64, amount float64, gifts int, first, last string) *domain.DonorRecord {
	return &domain.DonorRecord{
		DonorID:             id,
		TotalDonationAmount: amount,
		NumberOfGifts:       gifts,
		FirstDonationDate:   date(first),
		LastDonationDate:    date(last),
	}
}

func TestComputeCPA(t *testing.T) {
	cpa, err := ComputeCPA(domain.DefaultRunConfig())
	require.NoError(t, err)
	assert.Equal(t, 20000.0, cpa)
}

func TestComputeCPA_ZeroNewDonors(t *testing.T) {
	cfg := domain.DefaultRunConfig()
	cfg.NewDonorsCount = 0

	_, err := ComputeCPA(cfg)
	assert.True(t, errors.Is(err, domain.ErrInvalidRunConfig))
}

func TestCompute_ReferenceDonor(t *testing.T) {
	// 2025-01-01 → 2025-07-01 is 181 days.
	r := makeRecord(1, 1000, 2, "2025-01-01", "2025-07-01")

	m, err := Compute(r, domain.DefaultRunConfig())
	require.NoError(t, err)

	tenure := 181 / 365.25
	avg := 500.0
	freq := 2 / tenure
	clv := avg * freq * 10
	adjusted := clv * 0.8

	assert.Equal(t, int64(1), m.DonorID)
	assert.Equal(t, avg, m.AverageDonationValue)
	assert.InDelta(t, tenure, m.TenureYears, 1e-12)
	assert.InDelta(t, freq, m.DonationFrequency, 1e-9)
	assert.InDelta(t, 10.0, m.DonorLifespanYears, 1e-12)
	assert.InDelta(t, clv, m.CLV, 1e-6)
	assert.InDelta(t, adjusted, m.AdjustedCLV, 1e-6)
	assert.InDelta(t, 16143.65, m.AdjustedCLV, 0.01)
	assert.Equal(t, 20000.0, m.CPA)
	assert.Equal(t, domain.SegmentMedium, m.Segment)
	assert.Equal(t, domain.EfficiencyUnprofitable, m.Efficiency)
}

func TestCompute_DonorValueComposition(t *testing.T) {
	records := []*domain.DonorRecord{
		makeRecord(1, 1000, 2, "2025-01-01", "2025-07-01"),
		makeRecord(2, 333.33, 7, "2025-02-14", "2025-11-30"),
		makeRecord(3, 0, 1, "2025-05-05", "2025-05-05"),
		makeRecord(4, 98765.43, 13, "2025-01-01", "2025-12-31"),
	}

	cfg := domain.DefaultRunConfig()
	for _, r := range records {
		m, err := Compute(r, cfg)
		require.NoError(t, err)
		assert.Equal(t, m.AverageDonationValue*m.DonationFrequency, m.DonorValue, "donor %d", r.DonorID)
		assert.Equal(t, m.DonorValue*m.DonorLifespanYears, m.CLV, "donor %d", r.DonorID)
		assert.Equal(t, m.CLV*(1-cfg.FundraisingCostRatio), m.AdjustedCLV, "donor %d", r.DonorID)
	}
}

func TestCompute_ZeroCostRatio(t *testing.T) {
	cfg := domain.DefaultRunConfig()
	cfg.FundraisingCostRatio = 0

	m, err := Compute(makeRecord(1, 5000, 4, "2025-01-01", "2025-10-01"), cfg)
	require.NoError(t, err)
	assert.Equal(t, m.CLV, m.AdjustedCLV)
}

func TestCompute_ZeroGifts(t *testing.T) {
	m, err := Compute(makeRecord(42, 1000, 0, "2025-01-01", "2025-07-01"), domain.DefaultRunConfig())

	assert.Nil(t, m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRecord))

	var invErr *InvalidRecordError
	require.True(t, errors.As(err, &invErr))
	assert.Equal(t, int64(42), invErr.DonorID)
	assert.Equal(t, ReasonZeroGifts, invErr.Reason)
}

func TestCompute_SameDayTenureFloors(t *testing.T) {
	m, err := Compute(makeRecord(1, 100, 1, "2025-03-03", "2025-03-03"), domain.DefaultRunConfig())
	require.NoError(t, err)

	assert.Equal(t, 1/365.25, m.TenureYears)
	assert.InDelta(t, 365.25, m.DonationFrequency, 1e-9)
	assert.False(t, math.IsInf(m.CLV, 0))
	assert.False(t, math.IsNaN(m.CLV))
}

func TestCompute_TimeOfDayIgnored(t *testing.T) {
	r := &domain.DonorRecord{
		DonorID:             1,
		TotalDonationAmount: 100,
		NumberOfGifts:       2,
		FirstDonationDate:   time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC),
		LastDonationDate:    time.Date(2025, 1, 2, 1, 0, 0, 0, time.UTC),
	}

	m, err := Compute(r, domain.DefaultRunConfig())
	require.NoError(t, err)
	assert.Equal(t, 1/365.25, m.TenureYears)
}

func TestCompute_InvalidRecords(t *testing.T) {
	tests := []struct {
		name   string
		record *domain.DonorRecord
		reason string
	}{
		{"nil", nil, ReasonNilRecord},
		{"negative gifts", makeRecord(1, 100, -3, "2025-01-01", "2025-02-01"), ReasonZeroGifts},
		{"inverted dates", makeRecord(2, 100, 2, "2025-06-01", "2025-01-01"), ReasonInvertedDates},
		{"negative amount", makeRecord(3, -5, 2, "2025-01-01", "2025-02-01"), ReasonNegativeAmount},
		{"nan amount", makeRecord(4, math.NaN(), 2, "2025-01-01", "2025-02-01"), ReasonNonFiniteAmount},
		{"infinite amount", makeRecord(5, math.Inf(1), 2, "2025-01-01", "2025-02-01"), ReasonNonFiniteAmount},
		{"missing date", &domain.DonorRecord{DonorID: 6, TotalDonationAmount: 1, NumberOfGifts: 1}, ReasonMissingDate},
		{"overflowing value", makeRecord(7, math.MaxFloat64, 1, "2025-01-01", "2025-01-01"), ReasonNonFiniteDerived},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute(tc.record, domain.DefaultRunConfig())
			var invErr *InvalidRecordError
			require.True(t, errors.As(err, &invErr), "expected InvalidRecordError, got %v", err)
			assert.Equal(t, tc.reason, invErr.Reason)
		})
	}
}

func TestCompute_InvalidConfig(t *testing.T) {
	cfg := domain.DefaultRunConfig()
	cfg.ChurnRate = 0

	_, err := Compute(makeRecord(1, 100, 1, "2025-01-01", "2025-02-01"), cfg)
	assert.True(t, errors.Is(err, domain.ErrInvalidRunConfig))
	assert.False(t, errors.Is(err, ErrInvalidRecord))
}

func TestClassifySegment_Boundaries(t *testing.T) {
	bounds := domain.SegmentBounds{LowHigh: 10000, HighLow: 50000}

	tests := []struct {
		adjusted float64
		want     domain.Segment
	}{
		{-100, domain.SegmentLow},
		{0, domain.SegmentLow},
		{9999.99, domain.SegmentLow},
		{10000, domain.SegmentMedium},
		{49999.99, domain.SegmentMedium},
		{50000, domain.SegmentHigh},
		{1e9, domain.SegmentHigh},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, classifySegment(tc.adjusted, bounds), "adjusted=%v", tc.adjusted)
	}
}

func TestClassifyEfficiency_StrictInequality(t *testing.T) {
	assert.Equal(t, domain.EfficiencyProfitable, classifyEfficiency(20000.01, 20000))
	assert.Equal(t, domain.EfficiencyUnprofitable, classifyEfficiency(20000, 20000))
	assert.Equal(t, domain.EfficiencyUnprofitable, classifyEfficiency(19999.99, 20000))
}

func TestComputeAll_ReferenceRun(t *testing.T) {
	records := make([]*domain.DonorRecord, 500)
	for i := range records {
		records[i] = makeRecord(int64(i+1), 1000, 2, "2025-01-01", "2025-07-01")
	}

	batch, err := ComputeAll(records, domain.DefaultRunConfig())
	require.NoError(t, err)

	assert.Equal(t, 20000.0, batch.CPA)
	assert.Equal(t, 500, batch.ValidCount())
	assert.Equal(t, 0, batch.InvalidCount())

	first := batch.Results[0]
	for i, m := range batch.Results {
		assert.Equal(t, int64(i+1), m.DonorID)
		assert.Equal(t, 20000.0, m.CPA)
		assert.Equal(t, first.CLV, m.CLV)
		assert.Equal(t, first.AdjustedCLV, m.AdjustedCLV)
		assert.Equal(t, domain.SegmentMedium, m.Segment)
		assert.Equal(t, domain.EfficiencyUnprofitable, m.Efficiency)
	}
}

func TestComputeAll_ExcludesInvalid(t *testing.T) {
	records := []*domain.DonorRecord{
		makeRecord(1, 1000, 2, "2025-01-01", "2025-07-01"),
		makeRecord(2, 1000, 0, "2025-01-01", "2025-07-01"),
		makeRecord(3, 50000, 10, "2025-01-01", "2025-12-31"),
		makeRecord(4, 10, 1, "2025-08-01", "2025-07-01"),
	}

	batch, err := ComputeAll(records, domain.DefaultRunConfig())
	require.NoError(t, err)

	require.Equal(t, 2, batch.ValidCount())
	assert.Equal(t, int64(1), batch.Results[0].DonorID)
	assert.Equal(t, int64(3), batch.Results[1].DonorID)

	require.Equal(t, 2, batch.InvalidCount())
	assert.Equal(t, int64(2), batch.Invalid[0].DonorID)
	assert.Equal(t, ReasonZeroGifts, batch.Invalid[0].Reason)
	assert.Equal(t, int64(4), batch.Invalid[1].DonorID)
	assert.Equal(t, ReasonInvertedDates, batch.Invalid[1].Reason)
}

func TestComputeAll_Deterministic(t *testing.T) {
	records := []*domain.DonorRecord{
		makeRecord(1, 1200, 3, "2025-01-10", "2025-09-10"),
		makeRecord(2, 80000, 4, "2025-02-01", "2025-12-01"),
		makeRecord(3, 15, 1, "2025-04-04", "2025-04-04"),
	}

	first, err := ComputeAll(records, domain.DefaultRunConfig())
	require.NoError(t, err)
	for run := 0; run < 5; run++ {
		again, err := ComputeAll(records, domain.DefaultRunConfig())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestComputeAll_EmptyInput(t *testing.T) {
	batch, err := ComputeAll(nil, domain.DefaultRunConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, batch.ValidCount())
	assert.Equal(t, 0, batch.InvalidCount())
}
