package reporting

import (
	"time"

	"donor-clv/internal/domain"
)

// Report represents the run report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Stamp       domain.RunStamp
	Config      domain.RunConfig

	// Input Summary
	Input InputSummary

	// CPA is the run's cost per acquisition.
	CPA float64

	// Segment Summary (ordered Low, Medium, High)
	Segments []*domain.SegmentSummary

	// Acquisition efficiency per segment, same order as Segments
	Efficiency []EfficiencyRow

	// Excluded donors, input order
	Excluded []ExcludedRow

	// Outputs written by the run
	Outputs []OutputRow
}

// InputSummary counts the donor records of the run.
type InputSummary struct {
	DonorsRead    int
	DonorsValid   int
	DonorsInvalid int
}

// EfficiencyRow splits one segment's donors by acquisition efficiency.
type EfficiencyRow struct {
	Segment      domain.Segment
	Profitable   int
	Unprofitable int
}

// ExcludedRow lists one donor excluded from the run.
type ExcludedRow struct {
	DonorID int64
	Reason  string
}

// OutputRow describes one publication target.
type OutputRow struct {
	Sink     string
	Location string
	Rows     int
}
