package repository

import (
	"context"
	"fmt"
	"time"

	"PulseTrade/internal/domain/models"
	"PulseTrade/pkg/clickhouse"
)

var quoteHistorySchema = []string{
	`CREATE TABLE IF NOT EXISTS quote_history (
		symbol         LowCardinality(String),
		ltp            Float64,
		change         Float64,
		change_percent Float64,
		volume         Int64,
		oi             Int64,
		degraded       UInt8,
		ts             DateTime
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMMDD(ts)
	ORDER BY (symbol, ts)
	TTL ts + INTERVAL 30 DAY`,
}

// ClickHouseQuoteHistory persists every broadcast quote for the
// dashboard's historical charts.
type ClickHouseQuoteHistory struct {
	client *clickhouse.Client
}

func NewClickHouseQuoteHistory(client *clickhouse.Client) (*ClickHouseQuoteHistory, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, quoteHistorySchema); err != nil {
		return nil, err
	}
	return &ClickHouseQuoteHistory{client: client}, nil
}

func (h *ClickHouseQuoteHistory) Store(ctx context.Context, q *models.Quote) error {
	degraded := uint8(0)
	if q.Degraded {
		degraded = 1
	}
	_, err := h.client.DB().ExecContext(ctx,
		`INSERT INTO quote_history (symbol, ltp, change, change_percent, volume, oi, degraded, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Symbol, q.LTP, q.Change, q.ChangePercent, q.Volume, q.OpenInterest, degraded, q.Timestamp)
	if err != nil {
		return fmt.Errorf("store quote %s: %w", q.Symbol, err)
	}
	return nil
}

func (h *ClickHouseQuoteHistory) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Quote, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := h.client.DB().QueryContext(ctx,
		`SELECT symbol, ltp, change, change_percent, volume, oi, degraded, ts
		 FROM quote_history
		 WHERE symbol = ? AND ts >= ? AND ts <= ?
		 ORDER BY ts DESC
		 LIMIT ?`,
		symbol, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query quote history %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []*models.Quote
	for rows.Next() {
		var q models.Quote
		var degraded uint8
		if err := rows.Scan(&q.Symbol, &q.LTP, &q.Change, &q.ChangePercent,
			&q.Volume, &q.OpenInterest, &degraded, &q.Timestamp); err != nil {
			return nil, fmt.Errorf("scan quote history: %w", err)
		}
		q.Degraded = degraded == 1
		out = append(out, &q)
	}
	return out, rows.Err()
}

func (h *ClickHouseQuoteHistory) Health(ctx context.Context) error {
	return h.client.Health(ctx)
}

func (h *ClickHouseQuoteHistory) Close() error {
	return h.client.Close()
}
