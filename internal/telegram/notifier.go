// Package telegram delivers fired alerts to a Telegram chat.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kol-sniper-dashboard/internal/alerts"
	"kol-sniper-dashboard/internal/domain"
)

// sender is the slice of the bot API the notifier needs. Satisfied by
// *tgbotapi.BotAPI.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier sends alert events as Telegram messages to one chat.
type Notifier struct {
	api    sender
	chatID int64
}

// NewNotifier creates a Notifier from a bot token.
func NewNotifier(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Notifier{api: bot, chatID: chatID}, nil
}

// Notify implements alerts.Notifier.
func (n *Notifier) Notify(_ context.Context, event *domain.AlertEvent) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatAlert(event))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("sending telegram alert %s: %w", event.ID, err)
	}
	return nil
}

// Name implements alerts.Notifier.
func (n *Notifier) Name() string { return "telegram" }

var _ alerts.Notifier = (*Notifier)(nil)

// FormatAlert renders an alert event as a Telegram Markdown message.
func FormatAlert(event *domain.AlertEvent) string {
	icon := priorityIcon(event.Priority)
	return fmt.Sprintf("%s *%s*\n%s\n\nToken: `%s`\nKOL P&L: %.1f%%\nPriority: %s",
		icon, event.Title, event.Message,
		event.TokenAddress, event.PnlPercent, event.Priority)
}

func priorityIcon(priority domain.AlertPriority) string {
	switch priority {
	case domain.PriorityUrgent:
		return "🚨"
	case domain.PriorityHigh:
		return "🔥"
	case domain.PriorityMedium:
		return "📈"
	default:
		return "ℹ️"
	}
}
