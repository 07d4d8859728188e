// Package alerts matches fresh KOL buys against per-user watch configs
// and fans the resulting events out to notifiers on a fixed interval.
package alerts

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/observability"
)

// DefaultRecencyWindow bounds how old a buy may be and still alert.
const DefaultRecencyWindow = 5 * time.Minute

// Matcher evaluates watch configs against activity snapshots. It keeps a
// de-duplication ledger so the same (user, token, wallet) buy never fires
// twice within the recency window. Safe for concurrent use.
type Matcher struct {
	logger *log.Logger

	mu   sync.Mutex
	seen map[string]time.Time // dedupe key -> suppression expiry
}

// MatcherOptions configures a Matcher.
type MatcherOptions struct {
	// Logger for skip/emit output. Defaults to stderr.
	Logger *log.Logger
}

// NewMatcher creates a Matcher.
func NewMatcher(opts MatcherOptions) *Matcher {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[alerts] ", log.LstdFlags)
	}
	return &Matcher{
		logger: logger,
		seen:   make(map[string]time.Time),
	}
}

// Check runs one matching pass: every active config is evaluated against
// every record, and events are returned for buys inside the recency window
// that pass all configured thresholds. The pass is a pure function of
// (configs, records, now) apart from the de-duplication ledger.
func (m *Matcher) Check(configs []*domain.WatchConfig, records []*domain.TokenActivity, now time.Time) []*domain.AlertEvent {
	observability.RecordAlertCheck()

	var events []*domain.AlertEvent
	for _, cfg := range configs {
		if !cfg.Active || len(cfg.Wallets) == 0 {
			continue
		}
		events = append(events, m.checkConfig(cfg, records, now)...)
	}
	return events
}

func (m *Matcher) checkConfig(cfg *domain.WatchConfig, records []*domain.TokenActivity, now time.Time) []*domain.AlertEvent {
	window := cfg.RecencyWindow
	if window <= 0 {
		window = DefaultRecencyWindow
	}
	cutoff := now.Add(-window).UnixMilli()

	watched := make(map[string]bool, len(cfg.Wallets))
	for _, name := range cfg.Wallets {
		watched[name] = true
	}

	var events []*domain.AlertEvent
	for _, token := range records {
		if token.LastKOLBuy < cutoff {
			continue
		}
		for _, buyer := range token.KOLBuyers {
			if !watched[buyer.Name] {
				continue
			}
			if buyer.FirstBuyAt < cutoff {
				continue
			}
			if cfg.MinKolsCount > 0 && token.KolsCount < cfg.MinKolsCount {
				continue
			}
			if cfg.MinPnlPercent != nil && buyer.RealizedPnlPercent < *cfg.MinPnlPercent {
				continue
			}
			if cfg.PositionStatus != nil && buyer.PositionStatus != *cfg.PositionStatus {
				continue
			}
			if !m.markFired(cfg.UserID, token.TokenAddress, buyer.WalletAddress, now, window) {
				continue
			}

			event := buildEvent(cfg.UserID, token, buyer, now)
			observability.RecordAlertEmitted(string(event.Priority))
			events = append(events, event)
		}
	}
	return events
}

// markFired records the (user, token, wallet) tuple and reports whether the
// alert may fire. A tuple that fired within its config's window is suppressed.
// Each entry carries its own expiry so configs with different windows can
// share the ledger without a short-window pass evicting longer suppressions.
func (m *Matcher) markFired(userID, tokenAddress, walletAddress string, now time.Time, window time.Duration) bool {
	key := userID + "|" + tokenAddress + "|" + walletAddress

	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, ok := m.seen[key]; ok && now.Before(expiry) {
		return false
	}

	// Prune expired entries so the ledger does not grow unbounded.
	for k, expiry := range m.seen {
		if !now.Before(expiry) {
			delete(m.seen, k)
		}
	}

	m.seen[key] = now.Add(window)
	return true
}

func buildEvent(userID string, token *domain.TokenActivity, buyer *domain.KOLBuyer, now time.Time) *domain.AlertEvent {
	return &domain.AlertEvent{
		ID:     fmt.Sprintf("%s-%s-%s-%d", userID, token.TokenAddress, buyer.WalletAddress, now.UnixMilli()),
		UserID: userID,
		Type:   domain.AlertTypeKOLBuy,

		Title: fmt.Sprintf("%s bought %s", buyer.Name, token.Symbol),
		Message: fmt.Sprintf("%s just bought %s at %.8f. %d KOLs active.",
			buyer.Name, token.Symbol, buyer.AvgBuyPrice, token.KolsCount),

		TokenAddress:  token.TokenAddress,
		TokenName:     token.Name,
		TokenSymbol:   token.Symbol,
		KOLName:       buyer.Name,
		WalletAddress: buyer.WalletAddress,

		PnlPercent: buyer.RealizedPnlPercent,
		KolsCount:  token.KolsCount,

		Timestamp: now,
		Priority:  classifyPriority(buyer.RealizedPnlPercent, token.KolsCount),
	}
}

// classifyPriority ranks an alert by how hot the signal looks.
func classifyPriority(pnlPercent float64, kolsCount int) domain.AlertPriority {
	switch {
	case pnlPercent > 1000 || kolsCount > 10:
		return domain.PriorityUrgent
	case pnlPercent > 500 || kolsCount > 5:
		return domain.PriorityHigh
	case pnlPercent > 100 || kolsCount > 2:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}
