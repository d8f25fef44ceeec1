package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Donor CLV Run Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Donation year: %d | Calculation date: %s\n\n",
		r.Stamp.RunID, r.Stamp.DonationYear, r.Stamp.CalculationDate.Format("2006-01-02")))

	// Configuration
	sb.WriteString("## Configuration\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Churn Rate | %.4f |\n", r.Config.ChurnRate))
	sb.WriteString(fmt.Sprintf("| Fundraising Cost Ratio | %.4f |\n", r.Config.FundraisingCostRatio))
	sb.WriteString(fmt.Sprintf("| Total Fundraising Spend | %.2f |\n", r.Config.TotalFundraisingSpend))
	sb.WriteString(fmt.Sprintf("| New Donors Count | %d |\n", r.Config.NewDonorsCount))
	sb.WriteString(fmt.Sprintf("| Medium Value From | %.2f |\n", r.Config.Bounds.LowHigh))
	sb.WriteString(fmt.Sprintf("| High Value From | %.2f |\n", r.Config.Bounds.HighLow))
	sb.WriteString(fmt.Sprintf("| CPA | %.2f |\n", r.CPA))
	sb.WriteString("\n")

	// Input
	sb.WriteString("## Input\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Donors Read | %d |\n", r.Input.DonorsRead))
	sb.WriteString(fmt.Sprintf("| Donors Valid | %d |\n", r.Input.DonorsValid))
	sb.WriteString(fmt.Sprintf("| Donors Excluded | %d |\n", r.Input.DonorsInvalid))
	sb.WriteString("\n")

	// Segments
	sb.WriteString("## Segment Summary\n\n")
	if len(r.Segments) > 0 {
		sb.WriteString("| Segment | Donors | Mean Adjusted CLV | Total Donations | Mean CPA |\n")
		sb.WriteString("|---------|--------|-------------------|-----------------|----------|\n")
		for _, s := range r.Segments {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f | %.2f |\n",
				s.Segment, s.DonorCount, s.MeanAdjustedCLV, s.TotalDonations, s.MeanCPA))
		}
	} else {
		sb.WriteString("No segments available.\n")
	}
	sb.WriteString("\n")

	// Efficiency
	if len(r.Efficiency) > 0 {
		sb.WriteString("## Acquisition Efficiency\n\n")
		sb.WriteString("| Segment | Profitable | Unprofitable |\n")
		sb.WriteString("|---------|------------|--------------|\n")
		for _, e := range r.Efficiency {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n", e.Segment, e.Profitable, e.Unprofitable))
		}
		sb.WriteString("\n")
	}

	// Excluded donors
	sb.WriteString("## Excluded Donors\n\n")
	if len(r.Excluded) > 0 {
		sb.WriteString("| Donor | Reason |\n")
		sb.WriteString("|-------|--------|\n")
		for _, e := range r.Excluded {
			sb.WriteString(fmt.Sprintf("| %d | %s |\n", e.DonorID, e.Reason))
		}
	} else {
		sb.WriteString("No donors excluded.\n")
	}
	sb.WriteString("\n")

	// Outputs
	if len(r.Outputs) > 0 {
		sb.WriteString("## Outputs\n\n")
		sb.WriteString("| Sink | Location | Rows |\n")
		sb.WriteString("|------|----------|------|\n")
		for _, o := range r.Outputs {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d |\n", o.Sink, o.Location, o.Rows))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// WriteMarkdown renders the report and replaces the file at path atomically.
func WriteMarkdown(path string, r *Report) error {
	return WriteFileAtomic(path, []byte(RenderMarkdown(r)))
}
