package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"donor-clv/internal/domain"
	"donor-clv/internal/storage"
)

const donorCLVTable = "donor_clv_segmentation"

// donorCLVColumns are the table columns in domain.DonorCLVColumns order.
var donorCLVColumns = []string{
	"donor_id",
	"clv",
	"adjusted_clv",
	"cpa",
	"clv_segment",
	"acquisition_efficiency",
	"calculation_date",
}

const createDonorCLVTable = `
	CREATE TABLE donor_clv_segmentation (
		donor_id               BIGINT NOT NULL,
		clv                    DOUBLE PRECISION NOT NULL,
		adjusted_clv           DOUBLE PRECISION NOT NULL,
		cpa                    DOUBLE PRECISION NOT NULL,
		clv_segment            VARCHAR(50) NOT NULL,
		acquisition_efficiency VARCHAR(50) NOT NULL,
		calculation_date       DATE NOT NULL
	)
`

// DonorCLVStore implements storage.DonorCLVStore using PostgreSQL.
// The table is dropped and recreated on every publication.
type DonorCLVStore struct {
	pool *Pool
}

// NewDonorCLVStore creates a new DonorCLVStore.
func NewDonorCLVStore(pool *Pool) *DonorCLVStore {
	return &DonorCLVStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DonorCLVStore = (*DonorCLVStore)(nil)

// ReplaceAll drops and recreates donor_clv_segmentation and copies rows into it,
// all inside one transaction. A failure rolls back to the previous table.
func (s *DonorCLVStore) ReplaceAll(ctx context.Context, rows []*domain.DonorCLV) error {
	for _, r := range rows {
		if r == nil {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+donorCLVTable); err != nil {
		return fmt.Errorf("drop %s: %w", donorCLVTable, err)
	}
	if _, err := tx.Exec(ctx, createDonorCLVTable); err != nil {
		return fmt.Errorf("create %s: %w", donorCLVTable, err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{donorCLVTable}, donorCLVColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return rows[i].Values(), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy donor clv rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves all rows, ordered by donor_id ASC.
// Returns an empty slice if nothing has been published yet.
func (s *DonorCLVStore) GetAll(ctx context.Context) ([]*domain.DonorCLV, error) {
	query := `
		SELECT
			donor_id, clv, adjusted_clv, cpa,
			clv_segment, acquisition_efficiency, calculation_date
		FROM donor_clv_segmentation
		ORDER BY donor_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		if isUndefinedTableError(err) {
			return []*domain.DonorCLV{}, nil
		}
		return nil, fmt.Errorf("query donor clv rows: %w", err)
	}
	defer rows.Close()

	result := []*domain.DonorCLV{}
	for rows.Next() {
		var (
			r          domain.DonorCLV
			segment    string
			efficiency string
		)
		if err := rows.Scan(
			&r.DonorID, &r.CLV, &r.AdjustedCLV, &r.CPA,
			&segment, &efficiency, &r.CalculationDate,
		); err != nil {
			return nil, fmt.Errorf("scan donor clv row: %w", err)
		}
		r.CLVSegment = domain.Segment(segment)
		r.AcquisitionEfficiency = domain.Efficiency(efficiency)
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		if isUndefinedTableError(err) {
			return []*domain.DonorCLV{}, nil
		}
		return nil, fmt.Errorf("iterate donor clv rows: %w", err)
	}
	return result, nil
}
