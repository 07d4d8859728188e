package memory

import (
	"context"
	"sort"
	"sync"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/storage"
)

// SimulationStore is an in-memory implementation of storage.SimulationStore.
type SimulationStore struct {
	mu      sync.RWMutex
	results map[string]*domain.SimulationResult // keyed by simulation_id
	trades  map[string][]*domain.SimulatedTrade // keyed by simulation_id
}

// NewSimulationStore creates a new in-memory simulation store.
func NewSimulationStore() *SimulationStore {
	return &SimulationStore{
		results: make(map[string]*domain.SimulationResult),
		trades:  make(map[string][]*domain.SimulatedTrade),
	}
}

// SaveResult stores the result summary and its full trade ledger.
func (s *SimulationStore) SaveResult(_ context.Context, result *domain.SimulationResult) error {
	if result == nil || result.SimulationID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	summary := *result
	summary.Trades = nil
	s.results[result.SimulationID] = &summary

	ledger := make([]*domain.SimulatedTrade, len(result.Trades))
	for i, tr := range result.Trades {
		cp := *tr
		ledger[i] = &cp
	}
	s.trades[result.SimulationID] = ledger
	return nil
}

// GetResult retrieves a result summary (without the ledger) by simulation ID.
func (s *SimulationStore) GetResult(_ context.Context, simulationID string) (*domain.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.results[simulationID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// GetTrades retrieves the trade ledger for a simulation, ordered by buy_time ASC.
func (s *SimulationStore) GetTrades(_ context.Context, simulationID string) ([]*domain.SimulatedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger, exists := s.trades[simulationID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	result := make([]*domain.SimulatedTrade, len(ledger))
	for i, tr := range ledger {
		cp := *tr
		result[i] = &cp
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].BuyTime != result[j].BuyTime {
			return result[i].BuyTime < result[j].BuyTime
		}
		return result[i].TradeID < result[j].TradeID
	})
	return result, nil
}

var _ storage.SimulationStore = (*SimulationStore)(nil)
