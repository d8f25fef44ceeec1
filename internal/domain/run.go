package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidRunConfig is returned when a RunConfig fails validation.
var ErrInvalidRunConfig = errors.New("invalid run config")

// SegmentBounds are the adjusted CLV edges between value tiers.
// Intervals are half-open: [.., LowHigh) Low, [LowHigh, HighLow) Medium, [HighLow, ..) High.
type SegmentBounds struct {
	LowHigh float64
	HighLow float64
}

// RunConfig holds the process-wide model constants for one execution.
type RunConfig struct {
	DonationYear          int
	ChurnRate             float64 // annual probability a donor stops giving
	FundraisingCostRatio  float64 // share of donations spent on fundraising
	TotalFundraisingSpend float64
	NewDonorsCount        int
	Bounds                SegmentBounds
}

// Reference model constants.
const (
	DefaultDonationYear          = 2025
	DefaultChurnRate             = 0.10
	DefaultFundraisingCostRatio  = 0.20
	DefaultTotalFundraisingSpend = 10_000_000
	DefaultNewDonorsCount        = 500
	DefaultLowHighBound          = 10_000
	DefaultHighLowBound          = 50_000
)

// DefaultRunConfig returns the reference configuration.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		DonationYear:          DefaultDonationYear,
		ChurnRate:             DefaultChurnRate,
		FundraisingCostRatio:  DefaultFundraisingCostRatio,
		TotalFundraisingSpend: DefaultTotalFundraisingSpend,
		NewDonorsCount:        DefaultNewDonorsCount,
		Bounds: SegmentBounds{
			LowHigh: DefaultLowHighBound,
			HighLow: DefaultHighLowBound,
		},
	}
}

// Validate checks that every constant keeps the CLV chain finite.
func (c RunConfig) Validate() error {
	switch {
	case c.DonationYear <= 0:
		return fmt.Errorf("%w: donation_year must be positive, got %d", ErrInvalidRunConfig, c.DonationYear)
	case !finite(c.ChurnRate) || c.ChurnRate <= 0 || c.ChurnRate > 1:
		return fmt.Errorf("%w: churn_rate must be in (0, 1], got %v", ErrInvalidRunConfig, c.ChurnRate)
	case !finite(c.FundraisingCostRatio) || c.FundraisingCostRatio < 0 || c.FundraisingCostRatio >= 1:
		return fmt.Errorf("%w: fundraising_cost_ratio must be in [0, 1), got %v", ErrInvalidRunConfig, c.FundraisingCostRatio)
	case !finite(c.TotalFundraisingSpend) || c.TotalFundraisingSpend < 0:
		return fmt.Errorf("%w: total_fundraising_spend must be non-negative, got %v", ErrInvalidRunConfig, c.TotalFundraisingSpend)
	case c.NewDonorsCount <= 0:
		return fmt.Errorf("%w: new_donors_count must be positive, got %d", ErrInvalidRunConfig, c.NewDonorsCount)
	case !finite(c.Bounds.LowHigh) || c.Bounds.LowHigh <= 0:
		return fmt.Errorf("%w: segment_bounds.low_high must be positive, got %v", ErrInvalidRunConfig, c.Bounds.LowHigh)
	case !finite(c.Bounds.HighLow) || c.Bounds.HighLow <= c.Bounds.LowHigh:
		return fmt.Errorf("%w: segment_bounds.high_low must exceed low_high, got %v", ErrInvalidRunConfig, c.Bounds.HighLow)
	}
	return nil
}

// RunStamp identifies the artefacts published by one run.
type RunStamp struct {
	RunID           string
	DonationYear    int
	CalculationDate time.Time // date only, UTC
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
