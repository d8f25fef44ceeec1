package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"donor-clv/internal/domain"
	"donor-clv/internal/storage"
)

// DonorStore implements storage.DonorStore over the donor_data table.
type DonorStore struct {
	pool *Pool
}

// NewDonorStore creates a new DonorStore.
func NewDonorStore(pool *Pool) *DonorStore {
	return &DonorStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DonorStore = (*DonorStore)(nil)

// InsertBulk adds records for a donation year atomically. Fails entire batch on any duplicate.
func (s *DonorStore) InsertBulk(ctx context.Context, donationYear int, records []*domain.DonorRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if r == nil {
			return storage.ErrInvalidInput
		}
	}

	columns := []string{
		"donor_id", "donation_year", "total_donation_amount",
		"number_of_gifts", "first_donation_date", "last_donation_date",
	}
	_, err := s.pool.CopyFrom(ctx, pgx.Identifier{"donor_data"}, columns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{
				r.DonorID, donationYear, r.TotalDonationAmount,
				r.NumberOfGifts, r.FirstDonationDate, r.LastDonationDate,
			}, nil
		}),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("copy donor records: %w", err)
	}
	return nil
}

// GetByYear retrieves all donor records for a donation year, ordered by donor_id ASC.
func (s *DonorStore) GetByYear(ctx context.Context, donationYear int) ([]*domain.DonorRecord, error) {
	query := `
		SELECT
			donor_id, total_donation_amount, number_of_gifts,
			first_donation_date, last_donation_date
		FROM donor_data
		WHERE donation_year = $1
		ORDER BY donor_id ASC
	`

	rows, err := s.pool.Query(ctx, query, donationYear)
	if err != nil {
		return nil, fmt.Errorf("query donor records: %w", err)
	}
	defer rows.Close()

	var result []*domain.DonorRecord
	for rows.Next() {
		var r domain.DonorRecord
		if err := rows.Scan(
			&r.DonorID, &r.TotalDonationAmount, &r.NumberOfGifts,
			&r.FirstDonationDate, &r.LastDonationDate,
		); err != nil {
			return nil, fmt.Errorf("scan donor record: %w", err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donor records: %w", err)
	}
	return result, nil
}
