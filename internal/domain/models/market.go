package models

import "time"

// Quote is the last-known snapshot for a symbol. Quotes are immutable:
// a newer quote replaces the old one, entries are never mutated in place.
type Quote struct {
	Symbol        string    `json:"symbol"`
	LTP           float64   `json:"ltp"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        int64     `json:"volume"`
	OpenInterest  int64     `json:"oi"`
	Degraded      bool      `json:"degraded,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// AccountSnapshot is fetched on demand for a single risk check and
// never cached beyond it.
type AccountSnapshot struct {
	Balance         float64 `json:"balance"`
	AvailableMargin float64 `json:"available_margin"`
	UsedMargin      float64 `json:"used_margin"`
	RealizedPnL     float64 `json:"realized_pnl"`
}

// AlertDirection says which way a price alert triggers.
type AlertDirection string

const (
	AlertAbove AlertDirection = "above"
	AlertBelow AlertDirection = "below"
)

// PriceAlert fires once when the symbol's LTP crosses the target.
type PriceAlert struct {
	ID          string         `json:"id"`
	Symbol      string         `json:"symbol"`
	Direction   AlertDirection `json:"direction"`
	TargetPrice float64        `json:"target_price"`
	Message     string         `json:"message,omitempty"`
	Triggered   bool           `json:"triggered"`
	CreatedAt   time.Time      `json:"created_at"`
	TriggeredAt *time.Time     `json:"triggered_at,omitempty"`
}
