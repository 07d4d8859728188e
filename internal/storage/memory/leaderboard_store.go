package memory

import (
	"context"
	"sort"
	"sync"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/storage"
)

// LeaderboardStore is an in-memory implementation of storage.LeaderboardStore.
type LeaderboardStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WalletAggregate // keyed by wallet_address
}

// NewLeaderboardStore creates a new in-memory leaderboard store.
func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{
		data: make(map[string]*domain.WalletAggregate),
	}
}

// Upsert inserts or replaces the aggregate for its wallet address.
func (s *LeaderboardStore) Upsert(_ context.Context, agg *domain.WalletAggregate) error {
	if agg == nil || agg.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[agg.WalletAddress] = agg.Clone()
	return nil
}

// UpsertBulk applies Upsert for each aggregate.
func (s *LeaderboardStore) UpsertBulk(_ context.Context, aggs []*domain.WalletAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, agg := range aggs {
		if agg == nil || agg.WalletAddress == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, agg := range aggs {
		s.data[agg.WalletAddress] = agg.Clone()
	}
	return nil
}

// Get retrieves one wallet. Returns ErrNotFound if not exists.
func (s *LeaderboardStore) Get(_ context.Context, walletAddress string) (*domain.WalletAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg, exists := s.data[walletAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return agg.Clone(), nil
}

// GetTop retrieves the top n wallets ordered by sortField DESC.
// Unknown sort fields fall back to momentum score. Ties break by wallet
// address ASC for determinism.
func (s *LeaderboardStore) GetTop(_ context.Context, n int, sortField string) ([]*domain.WalletAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.WalletAggregate, 0, len(s.data))
	for _, agg := range s.data {
		result = append(result, agg.Clone())
	}

	key := sortKey(sortField)
	sort.Slice(result, func(i, j int) bool {
		a, b := key(result[i]), key(result[j])
		if a != b {
			return a > b
		}
		return result[i].WalletAddress < result[j].WalletAddress
	})

	if n > 0 && len(result) > n {
		result = result[:n]
	}
	return result, nil
}

func sortKey(sortField string) func(*domain.WalletAggregate) float64 {
	switch sortField {
	case storage.SortByTotalPnl:
		return func(a *domain.WalletAggregate) float64 { return a.TotalRealizedPnlSOL }
	case storage.SortByWinRate:
		return func(a *domain.WalletAggregate) float64 { return a.WinRate }
	case storage.SortByTotalVolume:
		return func(a *domain.WalletAggregate) float64 { return a.TotalVolumeSOL }
	default:
		return func(a *domain.WalletAggregate) float64 { return float64(a.MomentumScore) }
	}
}

var _ storage.LeaderboardStore = (*LeaderboardStore)(nil)
