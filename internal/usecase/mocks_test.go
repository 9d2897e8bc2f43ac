package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"PulseTrade/internal/domain/models"
	"PulseTrade/internal/hub"
	"PulseTrade/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordBroadcast(string)          {}
func (nopMetrics) RecordQuoteFetch(string, bool)   {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}
func (nopMetrics) RecordSignal(string)             {}
func (nopMetrics) SetConnections(int)              {}
func (nopMetrics) SetHotSymbols(int)               {}

// captureMetrics records signal outcomes and ignores everything else.
type captureMetrics struct {
	nopMetrics
	mu      sync.Mutex
	signals []string
}

func (m *captureMetrics) RecordSignal(outcome string) {
	m.mu.Lock()
	m.signals = append(m.signals, outcome)
	m.mu.Unlock()
}

func (m *captureMetrics) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.signals...)
}

type mockConn struct {
	id   string
	mu   sync.Mutex
	msgs []*models.ServerMessage
}

func newMockConn(id string) *mockConn { return &mockConn{id: id} }

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(msg *models.ServerMessage) error {
	m.mu.Lock()
	m.msgs = append(m.msgs, msg)
	m.mu.Unlock()
	return nil
}

func (m *mockConn) Close() {}

func (m *mockConn) received() []*models.ServerMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.ServerMessage(nil), m.msgs...)
}

// mockProvider serves canned quotes and optionally fails per symbol or
// entirely.
type mockProvider struct {
	mu      sync.Mutex
	quotes  map[string]*models.Quote
	failAll bool
	calls   int
	fetched []string
}

func newMockProvider(quotes ...*models.Quote) *mockProvider {
	p := &mockProvider{quotes: make(map[string]*models.Quote)}
	for _, q := range quotes {
		p.quotes[q.Symbol] = q
	}
	return p
}

func (p *mockProvider) FetchQuotes(_ context.Context, symbols []string) (map[string]*models.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.fetched = append(p.fetched, symbols...)
	if p.failAll {
		return nil, errors.New("provider outage")
	}
	out := make(map[string]*models.Quote)
	for _, s := range symbols {
		if q, ok := p.quotes[s]; ok {
			out[s] = q
		}
	}
	return out, nil
}

func (p *mockProvider) fetchCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// mockStrategyStore is an in-memory StrategyStore.
type mockStrategyStore struct {
	mu         sync.Mutex
	strategies map[string]*models.Strategy
	listErr    error
}

func newMockStrategyStore(strategies ...*models.Strategy) *mockStrategyStore {
	s := &mockStrategyStore{strategies: make(map[string]*models.Strategy)}
	for _, st := range strategies {
		s.strategies[st.ID] = st
	}
	return s
}

func (s *mockStrategyStore) ListActive(_ context.Context) ([]*models.Strategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*models.Strategy
	for _, st := range s.strategies {
		if st.Status == models.StrategyActive {
			copied := *st
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *mockStrategyStore) SetStatus(_ context.Context, id string, status models.StrategyStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.strategies[id]
	if !ok {
		return fmt.Errorf("strategy %s not found", id)
	}
	st.Status = status
	return nil
}

func (s *mockStrategyStore) status(id string) models.StrategyStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategies[id].Status
}

type mockAccount struct {
	snapshot *models.AccountSnapshot
	err      error
}

func (a *mockAccount) Snapshot(context.Context) (*models.AccountSnapshot, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.snapshot, nil
}

type mockOrderGateway struct {
	mu     sync.Mutex
	placed []*models.OrderRequest
	err    error
	reject string // broker-side rejection reason
}

func (g *mockOrderGateway) PlaceOrder(_ context.Context, req *models.OrderRequest) (*models.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.placed = append(g.placed, req)
	if g.reject != "" {
		return &models.Order{
			Symbol: req.Symbol,
			Side:   req.Side,
			Status: models.OrderRejected,
			Reason: g.reject,
		}, nil
	}
	return &models.Order{
		ID:     fmt.Sprintf("ord-%d", len(g.placed)),
		Symbol: req.Symbol,
		Side:   req.Side,
		Status: models.OrderPlaced,
	}, nil
}

func (g *mockOrderGateway) orders() []*models.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*models.OrderRequest(nil), g.placed...)
}

type verdictRecord struct {
	sig      *models.Signal
	approved bool
	reason   string
}

type mockSignalPublisher struct {
	mu       sync.Mutex
	verdicts []verdictRecord
}

func (p *mockSignalPublisher) PublishVerdict(_ context.Context, sig *models.Signal, approved bool, reason string) error {
	p.mu.Lock()
	p.verdicts = append(p.verdicts, verdictRecord{sig: sig, approved: approved, reason: reason})
	p.mu.Unlock()
	return nil
}

func (p *mockSignalPublisher) Close() error { return nil }

func (p *mockSignalPublisher) records() []verdictRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]verdictRecord(nil), p.verdicts...)
}

type mockHistory struct {
	mu     sync.Mutex
	quotes []*models.Quote
}

func (h *mockHistory) Store(_ context.Context, q *models.Quote) error {
	h.mu.Lock()
	h.quotes = append(h.quotes, q)
	h.mu.Unlock()
	return nil
}

func (h *mockHistory) Query(context.Context, string, time.Time, time.Time, int) ([]*models.Quote, error) {
	return nil, nil
}

func (h *mockHistory) Health(context.Context) error { return nil }

func (h *mockHistory) Close() error { return nil }

func (h *mockHistory) stored() []*models.Quote {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*models.Quote(nil), h.quotes...)
}

func newTestHub() *hub.Hub {
	return hub.New(logger.Nop(), nopMetrics{})
}
