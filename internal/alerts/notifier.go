package alerts

import (
	"context"
	"log"
	"os"

	"kol-sniper-dashboard/internal/domain"
)

// Notifier delivers a fired alert to one channel.
type Notifier interface {
	// Notify delivers the event. Delivery failures are per-event; the
	// scheduler logs them and continues with the remaining notifiers.
	Notify(ctx context.Context, event *domain.AlertEvent) error

	// Name returns the channel identifier for logging.
	Name() string
}

// LogNotifier writes alerts to a logger. Used as the default channel and
// in tests.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger defaults to stderr.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.New(os.Stderr, "[alerts] ", log.LstdFlags)
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, event *domain.AlertEvent) error {
	n.logger.Printf("[%s] %s: %s", event.Priority, event.Title, event.Message)
	return nil
}

// Name implements Notifier.
func (n *LogNotifier) Name() string { return "log" }

var _ Notifier = (*LogNotifier)(nil)
