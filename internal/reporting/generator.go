package reporting

import (
	"context"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/storage"
)

// Generator produces reports from stored simulation results.
type Generator struct {
	store storage.SimulationStore
}

// NewGenerator creates a report generator.
func NewGenerator(store storage.SimulationStore) *Generator {
	return &Generator{store: store}
}

// Load retrieves a stored result with its trade ledger reattached,
// ready for rendering.
func (g *Generator) Load(ctx context.Context, simulationID string) (*domain.SimulationResult, error) {
	result, err := g.store.GetResult(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	trades, err := g.store.GetTrades(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	result.Trades = trades
	return result, nil
}

// Markdown loads a stored result and renders the Markdown report.
func (g *Generator) Markdown(ctx context.Context, simulationID string) (string, error) {
	result, err := g.Load(ctx, simulationID)
	if err != nil {
		return "", err
	}
	return RenderMarkdown(result), nil
}

// CSV loads a stored result and renders the trade ledger as CSV.
func (g *Generator) CSV(ctx context.Context, simulationID string) (string, error) {
	trades, err := g.store.GetTrades(ctx, simulationID)
	if err != nil {
		return "", err
	}
	return RenderCSV(trades), nil
}
