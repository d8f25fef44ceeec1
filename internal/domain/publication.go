package domain

import "time"

// DonorCLV is one row of the donor_clv_segmentation table.
type DonorCLV struct {
	DonorID               int64
	CLV                   float64
	AdjustedCLV           float64
	CPA                   float64
	CLVSegment            Segment
	AcquisitionEfficiency Efficiency
	CalculationDate       time.Time
}

// DonorCLVColumns is the ordered field list of the persisted per-donor record.
var DonorCLVColumns = []string{
	"DonorID",
	"CLV",
	"AdjustedCLV",
	"CPA",
	"CLVSegment",
	"AcquisitionEfficiency",
	"CalculationDate",
}

// NewDonorCLV builds the published row for m stamped with calculationDate.
func NewDonorCLV(m *DonorMetrics, calculationDate time.Time) *DonorCLV {
	return &DonorCLV{
		DonorID:               m.DonorID,
		CLV:                   m.CLV,
		AdjustedCLV:           m.AdjustedCLV,
		CPA:                   m.CPA,
		CLVSegment:            m.Segment,
		AcquisitionEfficiency: m.Efficiency,
		CalculationDate:       calculationDate,
	}
}

// Values returns the row in DonorCLVColumns order.
func (d *DonorCLV) Values() []any {
	return []any{
		d.DonorID,
		d.CLV,
		d.AdjustedCLV,
		d.CPA,
		string(d.CLVSegment),
		string(d.AcquisitionEfficiency),
		d.CalculationDate,
	}
}

// SegmentSummary aggregates one segment's donors for the report extract.
type SegmentSummary struct {
	Segment         Segment
	DonorCount      int
	MeanAdjustedCLV float64
	TotalDonations  float64
	MeanCPA         float64 // constant across the run
}

// SegmentSummaryColumns is the ordered header of the summary extract.
// Names follow the aggregated source columns: count of DonorID, mean of
// AdjustedCLV, sum of TotalDonationAmount, mean of CPA.
var SegmentSummaryColumns = []string{
	"CLVSegment",
	"DonorID",
	"AdjustedCLV",
	"TotalDonationAmount",
	"CPA",
}
