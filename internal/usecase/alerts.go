package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"PulseTrade/internal/domain/models"
	"PulseTrade/internal/hub"
	"PulseTrade/pkg/logger"
)

// AlertManager holds price alerts and fires them against fresh quotes.
// A triggered alert is broadcast once to the symbol's subscribers and
// never re-fires.
type AlertManager struct {
	mu     sync.Mutex
	alerts map[string]*models.PriceAlert
	seq    uint64

	hub *hub.Hub
	log *logger.Logger
}

func NewAlertManager(h *hub.Hub, log *logger.Logger) *AlertManager {
	return &AlertManager{
		alerts: make(map[string]*models.PriceAlert),
		hub:    h,
		log:    log,
	}
}

// Add registers a price alert and returns its id.
func (m *AlertManager) Add(symbol string, dir models.AlertDirection, target float64, message string) (string, error) {
	if symbol == "" {
		return "", fmt.Errorf("alert symbol is required")
	}
	if dir != models.AlertAbove && dir != models.AlertBelow {
		return "", fmt.Errorf("alert direction must be above or below, got %q", dir)
	}
	if target <= 0 {
		return "", fmt.Errorf("alert target price must be positive, got %v", target)
	}

	id := fmt.Sprintf("alert-%d", atomic.AddUint64(&m.seq, 1))
	m.mu.Lock()
	m.alerts[id] = &models.PriceAlert{
		ID:          id,
		Symbol:      symbol,
		Direction:   dir,
		TargetPrice: target,
		Message:     message,
		CreatedAt:   time.Now(),
	}
	m.mu.Unlock()
	return id, nil
}

// List returns a snapshot of all alerts.
func (m *AlertManager) List() []*models.PriceAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.PriceAlert, 0, len(m.alerts))
	for _, a := range m.alerts {
		copied := *a
		out = append(out, &copied)
	}
	return out
}

// Remove deletes an alert; unknown ids are a no-op.
func (m *AlertManager) Remove(id string) {
	m.mu.Lock()
	delete(m.alerts, id)
	m.mu.Unlock()
}

// Run re-checks alerts on their own interval, independent of the poll
// tick, so alerts on symbols nobody subscribes to still fire. Blocks
// until ctx is cancelled.
func (m *AlertManager) Run(ctx context.Context, interval time.Duration, quotes QuoteSource) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.log.Info("alert checker started", logger.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			m.log.Info("alert checker stopped")
			return
		case <-ticker.C:
			m.CheckNow(ctx, quotes)
		}
	}
}

// CheckNow fetches a quote for every symbol with a pending alert and
// fires the ones whose condition holds. Lookup failures skip the symbol
// until the next round.
func (m *AlertManager) CheckNow(ctx context.Context, quotes QuoteSource) {
	for _, sym := range m.pendingSymbols() {
		q, err := quotes.Quote(ctx, sym)
		if err != nil || q == nil {
			continue
		}
		m.Check(q)
	}
}

func (m *AlertManager) pendingSymbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, a := range m.alerts {
		if a.Triggered {
			continue
		}
		if _, ok := seen[a.Symbol]; ok {
			continue
		}
		seen[a.Symbol] = struct{}{}
		out = append(out, a.Symbol)
	}
	return out
}

// Check fires untriggered alerts whose condition the quote satisfies.
func (m *AlertManager) Check(q *models.Quote) {
	now := time.Now()

	m.mu.Lock()
	var fired []*models.PriceAlert
	for _, a := range m.alerts {
		if a.Triggered || a.Symbol != q.Symbol {
			continue
		}
		hit := (a.Direction == models.AlertAbove && q.LTP >= a.TargetPrice) ||
			(a.Direction == models.AlertBelow && q.LTP <= a.TargetPrice)
		if !hit {
			continue
		}
		a.Triggered = true
		a.TriggeredAt = &now
		copied := *a
		fired = append(fired, &copied)
	}
	m.mu.Unlock()

	for _, a := range fired {
		m.log.Info("price alert triggered",
			logger.String("alert", a.ID),
			logger.String("symbol", a.Symbol),
			logger.Float64("ltp", q.LTP))
		msg, err := models.NewAlertMessage(a)
		if err != nil {
			continue
		}
		m.hub.Broadcast(a.Symbol, msg)
	}
}
