package memory

import (
	"context"
	"sort"
	"sync"

	"donor-clv/internal/domain"
	"donor-clv/internal/storage"
)

// SegmentSummaryStore is an in-memory implementation of storage.SegmentSummaryStore.
type SegmentSummaryStore struct {
	mu     sync.RWMutex
	runs   map[string][]*domain.SegmentSummary // keyed by run_id
	stamps map[string]domain.RunStamp
}

// NewSegmentSummaryStore creates a new in-memory summary history.
func NewSegmentSummaryStore() *SegmentSummaryStore {
	return &SegmentSummaryStore{
		runs:   make(map[string][]*domain.SegmentSummary),
		stamps: make(map[string]domain.RunStamp),
	}
}

// Compile-time interface check.
var _ storage.SegmentSummaryStore = (*SegmentSummaryStore)(nil)

// InsertRun appends the summaries of one run. Returns ErrDuplicateKey if run_id exists
// and ErrInvalidInput for an empty run.
func (s *SegmentSummaryStore) InsertRun(_ context.Context, stamp domain.RunStamp, summaries []*domain.SegmentSummary) error {
	if stamp.RunID == "" || len(summaries) == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[stamp.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	stored := make([]*domain.SegmentSummary, 0, len(summaries))
	for _, sum := range summaries {
		if sum == nil {
			return storage.ErrInvalidInput
		}
		copy := *sum
		stored = append(stored, &copy)
	}
	s.runs[stamp.RunID] = stored
	s.stamps[stamp.RunID] = stamp
	return nil
}

// GetByRunID retrieves the summaries of a run ordered Low, Medium, High.
func (s *SegmentSummaryStore) GetByRunID(_ context.Context, runID string) ([]*domain.SegmentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.runs[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	result := make([]*domain.SegmentSummary, 0, len(stored))
	for _, sum := range stored {
		copy := *sum
		result = append(result, &copy)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Segment.Rank() < result[j].Segment.Rank()
	})
	return result, nil
}

// GetStamp returns the stamp recorded for a run.
func (s *SegmentSummaryStore) GetStamp(_ context.Context, runID string) (domain.RunStamp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stamp, ok := s.stamps[runID]
	if !ok {
		return domain.RunStamp{}, storage.ErrNotFound
	}
	return stamp, nil
}
