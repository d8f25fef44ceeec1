package domain

import "time"

// DonorRecord represents one donor's raw donation aggregates for a donation year.
// Corresponds to donor_data table.
type DonorRecord struct {
	DonorID             int64
	TotalDonationAmount float64   // non-negative monetary total
	NumberOfGifts       int       // must be > 0
	FirstDonationDate   time.Time // calendar date, UTC
	LastDonationDate    time.Time // calendar date, UTC, >= FirstDonationDate
}

// DonorMetrics holds the values derived from a DonorRecord for one run.
// Produced once by the metric engine and never mutated afterwards.
type DonorMetrics struct {
	DonorID             int64
	TotalDonationAmount float64 // carried through for segment aggregation

	AverageDonationValue float64
	TenureYears          float64 // floored to one day
	DonationFrequency    float64 // gifts per year
	DonorValue           float64 // annual value
	DonorLifespanYears   float64 // 1 / churn rate
	CLV                  float64
	AdjustedCLV          float64 // CLV net of fundraising cost
	CPA                  float64 // run constant

	Segment    Segment
	Efficiency Efficiency
}

// Segment is a donor value tier derived from adjusted CLV.
type Segment string

// Segment labels, lowest to highest.
const (
	SegmentLow    Segment = "Low Value"
	SegmentMedium Segment = "Medium Value"
	SegmentHigh   Segment = "High Value"
)

// Segments lists all segment labels in ascending order.
var Segments = []Segment{SegmentLow, SegmentMedium, SegmentHigh}

// Rank returns the ordinal position of the segment, or -1 for unknown labels.
func (s Segment) Rank() int {
	for i, seg := range Segments {
		if seg == s {
			return i
		}
	}
	return -1
}

// Efficiency flags whether a donor's adjusted CLV covers the cost of acquisition.
type Efficiency string

// Efficiency labels.
const (
	EfficiencyProfitable   Efficiency = "Profitable"
	EfficiencyUnprofitable Efficiency = "Unprofitable"
)
