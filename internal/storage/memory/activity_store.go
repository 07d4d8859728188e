package memory

import (
	"context"
	"sort"
	"sync"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/storage"
)

// ActivityStore is an in-memory implementation of storage.ActivityStore.
type ActivityStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TokenActivity // keyed by token_address
}

// NewActivityStore creates a new in-memory activity store.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{
		data: make(map[string]*domain.TokenActivity),
	}
}

// Upsert inserts or replaces the activity record for its token address.
func (s *ActivityStore) Upsert(_ context.Context, t *domain.TokenActivity) error {
	if t == nil || t.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[t.TokenAddress] = t.Clone()
	return nil
}

// UpsertBulk applies Upsert for each record.
func (s *ActivityStore) UpsertBulk(_ context.Context, records []*domain.TokenActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range records {
		if t == nil || t.TokenAddress == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, t := range records {
		s.data[t.TokenAddress] = t.Clone()
	}
	return nil
}

// GetByAddress retrieves one token. Returns ErrNotFound if not exists.
func (s *ActivityStore) GetByAddress(_ context.Context, tokenAddress string) (*domain.TokenActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[tokenAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return t.Clone(), nil
}

// GetByTimeRange retrieves tokens with last_kol_buy within [start, end],
// ordered by last_kol_buy ASC.
func (s *ActivityStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.TokenActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenActivity
	for _, t := range s.data {
		if t.LastKOLBuy >= start && t.LastKOLBuy <= end {
			result = append(result, t.Clone())
		}
	}

	domain.SortActivitiesByLastBuy(result)
	return result, nil
}

// GetRecent retrieves up to limit tokens with last_kol_buy >= since,
// ordered by last_kol_buy DESC.
func (s *ActivityStore) GetRecent(_ context.Context, since int64, limit int) ([]*domain.TokenActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenActivity
	for _, t := range s.data {
		if t.LastKOLBuy >= since {
			result = append(result, t.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].LastKOLBuy != result[j].LastKOLBuy {
			return result[i].LastKOLBuy > result[j].LastKOLBuy
		}
		return result[i].TokenAddress < result[j].TokenAddress
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetAll retrieves every stored token, ordered by last_kol_buy ASC.
func (s *ActivityStore) GetAll(_ context.Context) ([]*domain.TokenActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TokenActivity, 0, len(s.data))
	for _, t := range s.data {
		result = append(result, t.Clone())
	}

	domain.SortActivitiesByLastBuy(result)
	return result, nil
}

var _ storage.ActivityStore = (*ActivityStore)(nil)
