package telegram

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kol-sniper-dashboard/internal/domain"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func sampleEvent() *domain.AlertEvent {
	return &domain.AlertEvent{
		ID:           "u1-tok1-w1-1",
		UserID:       "u1",
		Type:         domain.AlertTypeKOLBuy,
		Title:        "alpha bought TK",
		Message:      "alpha just bought TK at 0.00010000. 3 KOLs active.",
		TokenAddress: "tok1",
		TokenName:    "Token tok1",
		TokenSymbol:  "TK",
		KOLName:      "alpha",
		PnlPercent:   150,
		KolsCount:    3,
		Timestamp:    time.UnixMilli(1_700_000_000_000),
		Priority:     domain.PriorityMedium,
	}
}

func TestNotify_SendsMessage(t *testing.T) {
	sender := &fakeSender{}
	n := &Notifier{api: sender, chatID: 42}

	if err := n.Notify(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 message sent, got %d", len(sender.sent))
	}
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("expected a MessageConfig, got %T", sender.sent[0])
	}
	if msg.ChatID != 42 {
		t.Errorf("expected chat 42, got %d", msg.ChatID)
	}
	if !strings.Contains(msg.Text, "alpha bought TK") {
		t.Errorf("message missing title: %q", msg.Text)
	}
}

func TestFormatAlert(t *testing.T) {
	text := FormatAlert(sampleEvent())

	for _, want := range []string{"📈", "alpha bought TK", "`tok1`", "150.0%", "medium"} {
		if !strings.Contains(text, want) {
			t.Errorf("formatted alert missing %q:\n%s", want, text)
		}
	}

	urgent := sampleEvent()
	urgent.Priority = domain.PriorityUrgent
	if !strings.Contains(FormatAlert(urgent), "🚨") {
		t.Error("urgent alerts should carry the urgent icon")
	}
}
