package repository

import (
	"context"
	"time"

	"PulseTrade/internal/domain/models"
)

// MarketDataProvider fetches live quotes for a batch of symbols. The result
// map may omit symbols that individually failed; a nil map with a non-nil
// error means the provider is fully unavailable this call. Callers decide
// fallback policy, the provider never fabricates data.
type MarketDataProvider interface {
	FetchQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error)
}

// StrategyStore is the durable registry of strategy definitions.
// SetStatus must be atomic with respect to concurrent scheduler ticks.
type StrategyStore interface {
	ListActive(ctx context.Context) ([]*models.Strategy, error)
	SetStatus(ctx context.Context, id string, status models.StrategyStatus) error
}

// OrderGateway places an approved order with the upstream broker.
type OrderGateway interface {
	PlaceOrder(ctx context.Context, req *models.OrderRequest) (*models.Order, error)
}

// AccountService exposes the broker account state for risk checks.
type AccountService interface {
	Snapshot(ctx context.Context) (*models.AccountSnapshot, error)
}

// QuoteHistory persists broadcast quotes for the dashboard's charts.
type QuoteHistory interface {
	Store(ctx context.Context, q *models.Quote) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Quote, error)
	Health(ctx context.Context) error
	Close() error
}

// SignalPublisher records every signal verdict on the audit trail.
type SignalPublisher interface {
	PublishVerdict(ctx context.Context, sig *models.Signal, approved bool, reason string) error
	Close() error
}

// Metrics abstracts the metrics backend so packages don't import prometheus.
type Metrics interface {
	RecordBroadcast(symbol string)
	RecordQuoteFetch(source string, hit bool)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordSignal(outcome string)
	SetConnections(n int)
	SetHotSymbols(n int)
}
