package memory

import (
	"context"
	"sort"
	"sync"

	"donor-clv/internal/domain"
	"donor-clv/internal/storage"
)

// DonorCLVStore is an in-memory implementation of storage.DonorCLVStore.
type DonorCLVStore struct {
	mu   sync.RWMutex
	rows []*domain.DonorCLV
}

// NewDonorCLVStore creates a new in-memory per-donor result store.
func NewDonorCLVStore() *DonorCLVStore {
	return &DonorCLVStore{}
}

// Compile-time interface check.
var _ storage.DonorCLVStore = (*DonorCLVStore)(nil)

// ReplaceAll swaps the table contents for rows. Nothing changes if validation fails.
func (s *DonorCLVStore) ReplaceAll(_ context.Context, rows []*domain.DonorCLV) error {
	next := make([]*domain.DonorCLV, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			return storage.ErrInvalidInput
		}
		copy := *r
		next = append(next, &copy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = next
	return nil
}

// GetAll retrieves all rows, ordered by donor_id ASC.
func (s *DonorCLVStore) GetAll(_ context.Context) ([]*domain.DonorCLV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.DonorCLV, 0, len(s.rows))
	for _, r := range s.rows {
		copy := *r
		result = append(result, &copy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DonorID < result[j].DonorID
	})
	return result, nil
}
