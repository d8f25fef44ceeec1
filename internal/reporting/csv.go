package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"donor-clv/internal/domain"
)

// RenderSummaryCSV renders segment summaries as CSV with the
// domain.SegmentSummaryColumns header.
func RenderSummaryCSV(summaries []*domain.SegmentSummary) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(domain.SegmentSummaryColumns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range summaries {
		record := []string{
			string(s.Segment),
			strconv.Itoa(s.DonorCount),
			formatFloat(s.MeanAdjustedCLV),
			formatFloat(s.TotalDonations),
			formatFloat(s.MeanCPA),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %s: %w", s.Segment, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteSummaryCSV renders summaries and replaces the file at path atomically.
func WriteSummaryCSV(path string, summaries []*domain.SegmentSummary) error {
	data, err := RenderSummaryCSV(summaries)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// formatFloat prints the shortest representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
