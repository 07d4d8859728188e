package ingestion

import (
	"context"
	"errors"
	"log"
	"os"
	"sync/atomic"
	"time"

	"kol-sniper-dashboard/internal/aggregator"
	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/observability"
	"kol-sniper-dashboard/internal/scoring"
	"kol-sniper-dashboard/internal/solana"
	"kol-sniper-dashboard/internal/storage"
)

// DefaultPollInterval is how often the poller refreshes the snapshot.
const DefaultPollInterval = 5 * time.Minute

// Poller fetches the full activity snapshot on a fixed interval, derives the
// token-level fields, upserts into the activity store and refreshes the
// wallet leaderboard. Overlapping polls are suppressed by a single-flight
// guard.
type Poller struct {
	client     *Client
	store      storage.ActivityStore
	aggregator *aggregator.Aggregator
	interval   time.Duration
	logger     *log.Logger
	now        func() time.Time

	running atomic.Bool
}

// PollerOptions contains configuration for creating a Poller.
type PollerOptions struct {
	Client     *Client
	Store      storage.ActivityStore
	Aggregator *aggregator.Aggregator // Optional; nil skips the leaderboard refresh
	Interval   time.Duration          // Default: 5m
	Logger     *log.Logger            // Default: stderr
	Now        func() time.Time       // Default: time.Now
}

// NewPoller creates a Poller.
func NewPoller(opts PollerOptions) *Poller {
	interval := opts.Interval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[poller] ", log.LstdFlags)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Poller{
		client:     opts.Client,
		store:      opts.Store,
		aggregator: opts.Aggregator,
		interval:   interval,
		logger:     logger,
		now:        now,
	}
}

// Run starts the polling loop. It blocks until the context is cancelled.
// The first poll runs immediately.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Printf("poller started, interval %v", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if err := p.PollOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Printf("initial poll failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Println("poller stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := p.PollOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Printf("poll failed: %v", err)
			}
		}
	}
}

// ErrPollInFlight is returned when a poll is requested while another one is
// still running.
var ErrPollInFlight = errors.New("poll already in flight")

// PollOnce runs a single fetch-validate-upsert-aggregate cycle.
func (p *Poller) PollOnce(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrPollInFlight
	}
	defer p.running.Store(false)

	start := p.now()

	records, err := p.client.FetchAll(ctx)
	if err != nil {
		observability.RecordPollRun("error", p.now().Sub(start).Seconds())
		return err
	}
	observability.RecordTokensFetched(len(records))
	p.logger.Printf("fetched %d tokens from feed", len(records))

	valid := p.prepare(records)
	if err := p.store.UpsertBulk(ctx, valid); err != nil {
		observability.RecordPollRun("error", p.now().Sub(start).Seconds())
		return err
	}
	observability.RecordTokensUpserted(len(valid))

	if p.aggregator != nil {
		if _, err := p.aggregator.Aggregate(ctx, valid); err != nil {
			observability.RecordPollRun("error", p.now().Sub(start).Seconds())
			return err
		}
	}

	observability.RecordPollRun("ok", p.now().Sub(start).Seconds())
	p.logger.Printf("poll complete: %d tokens upserted, %d rejected", len(valid), len(records)-len(valid))
	return nil
}

// prepare validates fetched records and derives the token-level fields.
// Malformed tokens and buyer sub-records are dropped with a counter bump,
// never failing the batch.
func (p *Poller) prepare(records []*domain.TokenActivity) []*domain.TokenActivity {
	nowMs := p.now().UnixMilli()

	valid := make([]*domain.TokenActivity, 0, len(records))
	for _, token := range records {
		if err := token.Validate(); err != nil {
			observability.RecordRecordRejected("invalid_token")
			p.logger.Printf("dropping token: %v", err)
			continue
		}

		buyers := make([]*domain.KOLBuyer, 0, len(token.KOLBuyers))
		for _, buyer := range token.KOLBuyers {
			if err := buyer.Validate(); err != nil {
				observability.RecordRecordRejected("invalid_buyer")
				p.logger.Printf("dropping buyer on %s: %v", token.TokenAddress, err)
				continue
			}
			if err := solana.ValidateAddress(buyer.WalletAddress); err != nil {
				observability.RecordRecordRejected("invalid_wallet_address")
				p.logger.Printf("dropping buyer on %s: %v", token.TokenAddress, err)
				continue
			}
			// Wallets are ed25519 public keys; off-curve addresses are
			// program-derived and cannot be KOL wallets.
			if !solana.IsOnCurve(buyer.WalletAddress) {
				observability.RecordRecordRejected("off_curve_wallet_address")
				p.logger.Printf("dropping buyer on %s: wallet %s is not on the ed25519 curve",
					token.TokenAddress, buyer.WalletAddress)
				continue
			}
			buyers = append(buyers, buyer)
		}
		token.KOLBuyers = buyers

		deriveTokenFields(token, nowMs)
		valid = append(valid, token)
	}
	return valid
}

// deriveTokenFields fills the fields computed from the buyer sub-records.
func deriveTokenFields(token *domain.TokenActivity, nowMs int64) {
	var volume float64
	pnls := make([]float64, 0, len(token.KOLBuyers))
	for _, buyer := range token.KOLBuyers {
		volume += buyer.TotalVolumeSOL
		pnls = append(pnls, buyer.RealizedPnlPercent)
	}
	token.TotalVolumeSOL = volume
	token.AvgKOLPnl = scoring.Mean(pnls)
	token.MomentumScore = scoring.TokenMomentumScore(
		token.KolsCount, token.AvgKOLPnl, token.TotalVolumeSOL, token.LastKOLBuy, nowMs)
}
