package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"donor-clv/internal/domain"
	"donor-clv/internal/storage"
)

// DonorSource implements storage.DonorSource over a MySQL donor_data table.
type DonorSource struct {
	db *sql.DB
}

// NewDonorSource creates a new DonorSource.
func NewDonorSource(db *sql.DB) *DonorSource {
	return &DonorSource{db: db}
}

var _ storage.DonorSource = (*DonorSource)(nil)

// GetByYear retrieves all donor records for a donation year, ordered by donor_id ASC.
func (s *DonorSource) GetByYear(ctx context.Context, donationYear int) ([]*domain.DonorRecord, error) {
	query := `
		SELECT
			donor_id, total_donation_amount, number_of_gifts,
			first_donation_date, last_donation_date
		FROM donor_data
		WHERE donation_year = ?
		ORDER BY donor_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, donationYear)
	if err != nil {
		return nil, fmt.Errorf("query donor records: %w", err)
	}
	defer rows.Close()

	var result []*domain.DonorRecord
	for rows.Next() {
		var (
			r     domain.DonorRecord
			first sql.NullTime
			last  sql.NullTime
		)
		if err := rows.Scan(&r.DonorID, &r.TotalDonationAmount, &r.NumberOfGifts, &first, &last); err != nil {
			return nil, fmt.Errorf("scan donor record: %w", err)
		}
		// NULL dates stay zero and are rejected by the metric engine.
		if first.Valid {
			r.FirstDonationDate = first.Time
		}
		if last.Valid {
			r.LastDonationDate = last.Time
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donor records: %w", err)
	}
	return result, nil
}

// Close releases the underlying connection pool.
func (s *DonorSource) Close() error {
	return s.db.Close()
}
