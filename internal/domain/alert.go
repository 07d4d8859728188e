package domain

import "time"

// AlertPriority classifies how loudly an alert should be delivered.
type AlertPriority string

// AlertPriority constants.
const (
	PriorityUrgent AlertPriority = "urgent"
	PriorityHigh   AlertPriority = "high"
	PriorityMedium AlertPriority = "medium"
	PriorityLow    AlertPriority = "low"
)

// Alert type constants.
const (
	AlertTypeKOLBuy = "kol_buy"
)

// WatchConfig is one user's alert thresholds.
type WatchConfig struct {
	UserID  string
	Wallets []string // KOL display names to watch

	MinKolsCount   int             // 0 disables the filter
	MinPnlPercent  *float64        // nil disables the filter
	PositionStatus *PositionStatus // nil disables the filter

	RecencyWindow time.Duration // 0 means the matcher default
	Active        bool
}

// AlertEvent is one fired notification.
type AlertEvent struct {
	ID     string
	UserID string
	Type   string

	Title   string
	Message string

	TokenAddress  string
	TokenName     string
	TokenSymbol   string
	KOLName       string
	WalletAddress string

	PnlPercent float64
	KolsCount  int

	Timestamp time.Time
	Priority  AlertPriority
}
