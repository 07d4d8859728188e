package alerts

import (
	"context"
	"log"
	"os"
	"sync/atomic"
	"time"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/storage"
)

// DefaultCheckInterval is how often the scheduler runs a matching pass.
const DefaultCheckInterval = 30 * time.Second

// ConfigSource supplies the active watch configs for each pass.
type ConfigSource interface {
	ActiveConfigs(ctx context.Context) ([]*domain.WatchConfig, error)
}

// StaticConfigs is a ConfigSource backed by a fixed slice.
type StaticConfigs []*domain.WatchConfig

// ActiveConfigs implements ConfigSource.
func (s StaticConfigs) ActiveConfigs(_ context.Context) ([]*domain.WatchConfig, error) {
	return s, nil
}

// Scheduler runs the matcher on a fixed interval and fans fired events out
// to notifiers. Overlapping passes are suppressed by a single-flight guard.
type Scheduler struct {
	matcher   *Matcher
	store     storage.ActivityStore
	configs   ConfigSource
	notifiers []Notifier
	interval  time.Duration
	logger    *log.Logger
	now       func() time.Time

	running atomic.Bool
}

// SchedulerOptions contains configuration for creating a Scheduler.
type SchedulerOptions struct {
	Matcher   *Matcher
	Store     storage.ActivityStore
	Configs   ConfigSource
	Notifiers []Notifier            // Default: one LogNotifier
	Interval  time.Duration         // Default: 30s
	Logger    *log.Logger           // Default: stderr
	Now       func() time.Time      // Default: time.Now
}

// NewScheduler creates a Scheduler.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	interval := opts.Interval
	if interval == 0 {
		interval = DefaultCheckInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[alerts] ", log.LstdFlags)
	}
	matcher := opts.Matcher
	if matcher == nil {
		matcher = NewMatcher(MatcherOptions{Logger: logger})
	}
	notifiers := opts.Notifiers
	if len(notifiers) == 0 {
		notifiers = []Notifier{NewLogNotifier(logger)}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		matcher:   matcher,
		store:     opts.Store,
		configs:   opts.Configs,
		notifiers: notifiers,
		interval:  interval,
		logger:    logger,
		now:       now,
	}
}

// Run starts the periodic matching loop. It blocks until the context is
// cancelled. The first pass runs immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Printf("alert scheduler started, interval %v", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.CheckOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Println("alert scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			s.CheckOnce(ctx)
		}
	}
}

// CheckOnce runs a single matching pass. Returns the number of alerts
// fired, or -1 when another pass is already in flight.
func (s *Scheduler) CheckOnce(ctx context.Context) int {
	if !s.running.CompareAndSwap(false, true) {
		return -1
	}
	defer s.running.Store(false)

	configs, err := s.configs.ActiveConfigs(ctx)
	if err != nil {
		s.logger.Printf("loading watch configs: %v", err)
		return 0
	}
	if len(configs) == 0 {
		return 0
	}

	now := s.now()
	records, err := s.recentRecords(ctx, configs, now)
	if err != nil {
		s.logger.Printf("loading recent activity: %v", err)
		return 0
	}

	events := s.matcher.Check(configs, records, now)
	for _, event := range events {
		s.dispatch(ctx, event)
	}
	if len(events) > 0 {
		s.logger.Printf("fired %d alerts for %d configs", len(events), len(configs))
	}
	return len(events)
}

// recentRecords fetches activity fresh enough for the widest configured
// recency window.
func (s *Scheduler) recentRecords(ctx context.Context, configs []*domain.WatchConfig, now time.Time) ([]*domain.TokenActivity, error) {
	window := DefaultRecencyWindow
	for _, cfg := range configs {
		if cfg.RecencyWindow > window {
			window = cfg.RecencyWindow
		}
	}
	since := now.Add(-window).UnixMilli()
	return s.store.GetRecent(ctx, since, 50)
}

func (s *Scheduler) dispatch(ctx context.Context, event *domain.AlertEvent) {
	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			s.logger.Printf("notifier %s failed for alert %s: %v", notifier.Name(), event.ID, err)
		}
	}
}
