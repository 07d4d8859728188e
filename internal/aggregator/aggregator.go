// Package aggregator folds per-token KOL activity into per-wallet lifetime
// statistics and maintains the global wallet leaderboard.
package aggregator

import (
	"context"
	"log"
	"sort"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/observability"
	"kol-sniper-dashboard/internal/scoring"
	"kol-sniper-dashboard/internal/storage"
)

// Aggregator computes wallet aggregates from token activity records.
// Each pass recomputes every aggregate from the full record set it is given,
// so repeated runs over the same input converge to identical values.
type Aggregator struct {
	leaderboard storage.LeaderboardStore // optional; nil skips persistence
	logger      *log.Logger
}

// Options contains configuration for creating an Aggregator.
type Options struct {
	Leaderboard storage.LeaderboardStore
	Logger      *log.Logger
}

// New creates a new aggregator.
func New(opts Options) *Aggregator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{
		leaderboard: opts.Leaderboard,
		logger:      logger,
	}
}

// Aggregate folds the buyer sub-records of every activity record into
// per-wallet aggregates, derives the scoring metrics, and upserts the
// results into the leaderboard store when one is configured.
// Malformed buyer sub-records are skipped and logged; they never abort the
// batch. Wallets absent from this pass are not removed from the store.
func (a *Aggregator) Aggregate(ctx context.Context, records []*domain.TokenActivity) (map[string]*domain.WalletAggregate, error) {
	wallets := make(map[string]*domain.WalletAggregate)

	for _, token := range records {
		if token == nil {
			continue
		}
		if err := token.Validate(); err != nil {
			a.logger.Printf("[aggregator] skipping token: %v", err)
			continue
		}

		for _, buyer := range token.KOLBuyers {
			if err := buyer.Validate(); err != nil {
				a.logger.Printf("[aggregator] skipping buyer on token %s: %v", token.TokenAddress, err)
				continue
			}
			a.fold(wallets, buyer)
		}
	}

	for _, agg := range wallets {
		derive(agg)
	}

	if a.leaderboard != nil {
		if err := a.leaderboard.UpsertBulk(ctx, sortedAggregates(wallets)); err != nil {
			return nil, err
		}
	}

	observability.RecordWalletsAggregated(len(wallets))
	return wallets, nil
}

// fold merges one buyer sub-record into its wallet accumulator.
func (a *Aggregator) fold(wallets map[string]*domain.WalletAggregate, buyer *domain.KOLBuyer) {
	agg, exists := wallets[buyer.WalletAddress]
	if !exists {
		agg = &domain.WalletAggregate{
			WalletAddress: buyer.WalletAddress,
			Name:          buyer.Name,
			Twitter:       buyer.Twitter,
			ProfileImage:  buyer.ProfileImage,
			LastActiveAt:  buyer.FirstBuyAt,
		}
		wallets[buyer.WalletAddress] = agg
	}

	agg.TotalTokensTraded++
	agg.TotalVolumeSOL += buyer.TotalVolumeSOL
	agg.TotalRealizedPnlSOL += buyer.RealizedPnlSOL
	agg.TotalTrades += buyer.TotalBuys + buyer.TotalSells
	agg.PnlSamples = append(agg.PnlSamples, buyer.RealizedPnlPercent)
	agg.HoldTimeSamples = append(agg.HoldTimeSamples, buyer.AvgHoldTimeSeconds)

	if buyer.PositionStatus == domain.PositionHolding {
		agg.CurrentPositions++
	}

	// Last-active is a monotonic max over observed first-buy timestamps.
	if buyer.FirstBuyAt > agg.LastActiveAt {
		agg.LastActiveAt = buyer.FirstBuyAt
	}
}

// derive computes the scoring metrics from the accumulated samples.
func derive(agg *domain.WalletAggregate) {
	agg.WinRate = scoring.WinRate(agg.PnlSamples)
	agg.AvgPnlPercent = scoring.Mean(agg.PnlSamples)
	agg.AvgHoldTimeHours = scoring.AvgHoldTimeHours(agg.HoldTimeSamples)
	agg.MomentumScore = scoring.WalletMomentumScore(agg.WinRate, agg.AvgPnlPercent, agg.AvgHoldTimeHours)
	agg.BestTradePnl = scoring.Max(agg.PnlSamples, 0)
	agg.WorstTradePnl = scoring.Min(agg.PnlSamples, 0)
}

// sortedAggregates returns the aggregates ordered by wallet address for a
// deterministic upsert order.
func sortedAggregates(wallets map[string]*domain.WalletAggregate) []*domain.WalletAggregate {
	result := make([]*domain.WalletAggregate, 0, len(wallets))
	for _, agg := range wallets {
		result = append(result, agg)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].WalletAddress < result[j].WalletAddress
	})
	return result
}
