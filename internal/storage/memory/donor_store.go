package memory

import (
	"context"
	"sort"
	"sync"

	"donor-clv/internal/domain"
	"donor-clv/internal/storage"
)

type donorKey struct {
	year    int
	donorID int64
}

// DonorStore is an in-memory implementation of storage.DonorStore.
type DonorStore struct {
	mu   sync.RWMutex
	data map[donorKey]*domain.DonorRecord
}

// NewDonorStore creates a new in-memory donor store.
func NewDonorStore() *DonorStore {
	return &DonorStore{
		data: make(map[donorKey]*domain.DonorRecord),
	}
}

// Compile-time interface check.
var _ storage.DonorStore = (*DonorStore)(nil)

// InsertBulk adds records for a donation year atomically. Fails entire batch on any duplicate.
func (s *DonorStore) InsertBulk(_ context.Context, donationYear int, records []*domain.DonorRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[donorKey]struct{}, len(records))

	// First pass: check for duplicates (existing + intra-batch)
	for _, r := range records {
		if r == nil {
			return storage.ErrInvalidInput
		}
		key := donorKey{year: donationYear, donorID: r.DonorID}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range records {
		copy := *r
		s.data[donorKey{year: donationYear, donorID: r.DonorID}] = &copy
	}
	return nil
}

// GetByYear retrieves all records for a donation year, ordered by donor_id ASC.
func (s *DonorStore) GetByYear(_ context.Context, donationYear int) ([]*domain.DonorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DonorRecord
	for key, r := range s.data {
		if key.year == donationYear {
			copy := *r
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DonorID < result[j].DonorID
	})
	return result, nil
}
