package metrics

import (
	"math"
	"time"

	"donor-clv/internal/domain"
)

const (
	daysPerYear   = 365.25
	minTenureDays = 1
)

// Batch is the outcome of computing metrics for every donor of a run.
type Batch struct {
	CPA     float64
	Results []*domain.DonorMetrics // valid donors, input order
	Invalid []*InvalidRecordError  // excluded donors, input order
}

// ValidCount returns the number of donors with computed metrics.
func (b *Batch) ValidCount() int { return len(b.Results) }

// InvalidCount returns the number of excluded donors.
func (b *Batch) InvalidCount() int { return len(b.Invalid) }

// ComputeCPA returns the run's cost per acquisition.
func ComputeCPA(cfg domain.RunConfig) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	return cfg.TotalFundraisingSpend / float64(cfg.NewDonorsCount), nil
}

// Compute derives the metrics of a single donor.
// Returns *InvalidRecordError when the record violates an invariant.
func Compute(r *domain.DonorRecord, cfg domain.RunConfig) (*domain.DonorMetrics, error) {
	cpa, err := ComputeCPA(cfg)
	if err != nil {
		return nil, err
	}
	m, invErr := computeDonor(r, cfg, cpa)
	if invErr != nil {
		return nil, invErr
	}
	return m, nil
}

// ComputeAll maps every record to its metrics. Invalid records are collected,
// never fatal. The only error returned is an invalid RunConfig.
func ComputeAll(records []*domain.DonorRecord, cfg domain.RunConfig) (*Batch, error) {
	cpa, err := ComputeCPA(cfg)
	if err != nil {
		return nil, err
	}

	batch := &Batch{
		CPA:     cpa,
		Results: make([]*domain.DonorMetrics, 0, len(records)),
	}
	for _, r := range records {
		m, invErr := computeDonor(r, cfg, cpa)
		if invErr != nil {
			batch.Invalid = append(batch.Invalid, invErr)
			continue
		}
		batch.Results = append(batch.Results, m)
	}
	return batch, nil
}

// computeDonor applies the CLV chain in dependency order.
// cfg must already be validated.
func computeDonor(r *domain.DonorRecord, cfg domain.RunConfig, cpa float64) (*domain.DonorMetrics, *InvalidRecordError) {
	if invErr := validateRecord(r); invErr != nil {
		return nil, invErr
	}

	avg := r.TotalDonationAmount / float64(r.NumberOfGifts)
	tenure := tenureYears(r.FirstDonationDate, r.LastDonationDate)
	frequency := float64(r.NumberOfGifts) / tenure
	donorValue := avg * frequency
	lifespan := 1 / cfg.ChurnRate
	clv := donorValue * lifespan
	adjusted := clv * (1 - cfg.FundraisingCostRatio)

	for _, v := range []float64{avg, frequency, donorValue, clv, adjusted} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, invalid(r.DonorID, ReasonNonFiniteDerived)
		}
	}

	return &domain.DonorMetrics{
		DonorID:              r.DonorID,
		TotalDonationAmount:  r.TotalDonationAmount,
		AverageDonationValue: avg,
		TenureYears:          tenure,
		DonationFrequency:    frequency,
		DonorValue:           donorValue,
		DonorLifespanYears:   lifespan,
		CLV:                  clv,
		AdjustedCLV:          adjusted,
		CPA:                  cpa,
		Segment:              classifySegment(adjusted, cfg.Bounds),
		Efficiency:           classifyEfficiency(adjusted, cpa),
	}, nil
}

func validateRecord(r *domain.DonorRecord) *InvalidRecordError {
	if r == nil {
		return invalid(0, ReasonNilRecord)
	}
	switch {
	case r.NumberOfGifts <= 0:
		return invalid(r.DonorID, ReasonZeroGifts)
	case math.IsNaN(r.TotalDonationAmount) || math.IsInf(r.TotalDonationAmount, 0):
		return invalid(r.DonorID, ReasonNonFiniteAmount)
	case r.TotalDonationAmount < 0:
		return invalid(r.DonorID, ReasonNegativeAmount)
	case r.FirstDonationDate.IsZero() || r.LastDonationDate.IsZero():
		return invalid(r.DonorID, ReasonMissingDate)
	case daysBetween(r.FirstDonationDate, r.LastDonationDate) < 0:
		return invalid(r.DonorID, ReasonInvertedDates)
	}
	return nil
}

// tenureYears floors a same-day tenure to one day.
func tenureYears(first, last time.Time) float64 {
	days := daysBetween(first, last)
	if days < minTenureDays {
		days = minTenureDays
	}
	return float64(days) / daysPerYear
}

// daysBetween counts calendar days between two dates, ignoring time of day.
func daysBetween(first, last time.Time) int {
	f := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	l := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	return int(l.Sub(f).Hours() / 24)
}

// classifySegment buckets adjusted CLV into half-open intervals.
// Boundary values belong to the upper bucket; negatives fall into Low.
func classifySegment(adjustedCLV float64, bounds domain.SegmentBounds) domain.Segment {
	switch {
	case adjustedCLV >= bounds.HighLow:
		return domain.SegmentHigh
	case adjustedCLV >= bounds.LowHigh:
		return domain.SegmentMedium
	default:
		return domain.SegmentLow
	}
}

// classifyEfficiency is Profitable only when adjusted CLV strictly exceeds CPA.
func classifyEfficiency(adjustedCLV, cpa float64) domain.Efficiency {
	if adjustedCLV > cpa {
		return domain.EfficiencyProfitable
	}
	return domain.EfficiencyUnprofitable
}
