package hub

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"PulseTrade/internal/domain/models"
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

type mockConn struct {
	id     string
	mu     sync.Mutex
	msgs   []*models.ServerMessage
	failAt int // fail every send once >0 messages received, -1 = never
	closed bool
}

func newMockConn(id string) *mockConn {
	return &mockConn{id: id, failAt: -1}
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(msg *models.ServerMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAt >= 0 && len(m.msgs) >= m.failAt {
		return errors.New("broken pipe")
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *mockConn) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

func (m *mockConn) received() []*models.ServerMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.ServerMessage(nil), m.msgs...)
}

func newTestHub() *Hub {
	return New(logger.Nop(), nopMetrics{})
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := newTestHub()
	c := newMockConn("c1")

	id := h.Register(c)
	assert.Equal(t, "c1", id)
	assert.Equal(t, 1, h.Connections())

	h.Unregister(id)
	assert.Equal(t, 0, h.Connections())
	assert.True(t, c.closed)

	// second unregister is a no-op
	h.Unregister(id)
	assert.Equal(t, 0, h.Connections())
}

func TestHub_SubscribeIdempotent(t *testing.T) {
	h := newTestHub()
	h.Register(newMockConn("c1"))

	h.Subscribe("c1", "NIFTY")
	h.Subscribe("c1", "NIFTY")

	assert.Equal(t, 1, h.Subscribers("NIFTY"))
}

func TestHub_SubscribeUnknownConnectionIgnored(t *testing.T) {
	h := newTestHub()
	h.Subscribe("ghost", "NIFTY")
	assert.Equal(t, 0, h.Subscribers("NIFTY"))
}

func TestHub_BroadcastReachesSubscribersOnly(t *testing.T) {
	h := newTestHub()
	sub1 := newMockConn("c1")
	sub2 := newMockConn("c2")
	other := newMockConn("c3")
	h.Register(sub1)
	h.Register(sub2)
	h.Register(other)
	h.Subscribe("c1", "NIFTY")
	h.Subscribe("c2", "NIFTY")
	h.Subscribe("c3", "BANKNIFTY")

	msg := &models.ServerMessage{Type: models.WSTypeMarketData, Symbol: "NIFTY"}
	h.Broadcast("NIFTY", msg)

	assert.Len(t, sub1.received(), 1)
	assert.Len(t, sub2.received(), 1)
	assert.Empty(t, other.received())
}

func TestHub_UnsubscribedBeforeBroadcastMissesIt(t *testing.T) {
	h := newTestHub()
	c := newMockConn("c1")
	h.Register(c)
	h.Subscribe("c1", "NIFTY")
	h.Unsubscribe("c1", "NIFTY")

	h.Broadcast("NIFTY", &models.ServerMessage{Type: models.WSTypeMarketData})

	assert.Empty(t, c.received())
}

func TestHub_BroadcastFIFOPerSymbol(t *testing.T) {
	h := newTestHub()
	c := newMockConn("c1")
	h.Register(c)
	h.Subscribe("c1", "NIFTY")

	for i := 0; i < 5; i++ {
		h.Broadcast("NIFTY", &models.ServerMessage{Type: models.WSTypeMarketData, Timestamp: int64(i)})
	}

	got := c.received()
	assert.Len(t, got, 5)
	for i, msg := range got {
		assert.Equal(t, int64(i), msg.Timestamp)
	}
}

func TestHub_SendFailureDisconnects(t *testing.T) {
	h := newTestHub()
	c := newMockConn("c1")
	c.failAt = 0
	h.Register(c)
	h.Subscribe("c1", "NIFTY")

	h.SendTo("c1", &models.ServerMessage{Type: models.WSTypeMarketData})

	assert.Equal(t, 0, h.Connections())
	assert.Equal(t, 0, h.Subscribers("NIFTY"))
}

func TestHub_DisconnectMidBroadcast(t *testing.T) {
	h := newTestHub()
	healthy := newMockConn("c1")
	dying := newMockConn("c2")
	dying.failAt = 0
	h.Register(healthy)
	h.Register(dying)
	h.Subscribe("c1", "NIFTY")
	h.Subscribe("c2", "NIFTY")

	h.Broadcast("NIFTY", &models.ServerMessage{Type: models.WSTypeMarketData})

	// broadcast completed for the healthy connection
	assert.Len(t, healthy.received(), 1)
	// the dead one is gone from the next snapshot
	assert.Equal(t, 1, h.Subscribers("NIFTY"))
	assert.Equal(t, 1, h.Connections())
}

func TestHub_HotSymbols(t *testing.T) {
	h := newTestHub()
	h.Register(newMockConn("c1"))
	h.Register(newMockConn("c2"))
	h.Subscribe("c1", "NIFTY")
	h.Subscribe("c2", "BANKNIFTY")

	hot := h.HotSymbols([]string{"SENSEX", "NIFTY"})
	assert.Equal(t, []string{"BANKNIFTY", "NIFTY", "SENSEX"}, hot)

	// dropping the only subscriber removes the symbol
	h.Unsubscribe("c2", "BANKNIFTY")
	hot = h.HotSymbols(nil)
	assert.Equal(t, []string{"NIFTY"}, hot)
}

func TestHub_UnregisterClearsSubscriptions(t *testing.T) {
	h := newTestHub()
	h.Register(newMockConn("c1"))
	h.Subscribe("c1", "NIFTY")
	h.Subscribe("c1", "BANKNIFTY")

	h.Unregister("c1")

	assert.Empty(t, h.HotSymbols(nil))
}

func TestHub_Shutdown(t *testing.T) {
	h := newTestHub()
	c1 := newMockConn("c1")
	c2 := newMockConn("c2")
	h.Register(c1)
	h.Register(c2)
	h.Subscribe("c1", "NIFTY")

	h.Shutdown()

	assert.Equal(t, 0, h.Connections())
	assert.Empty(t, h.HotSymbols(nil))
	assert.True(t, c1.closed)
	assert.True(t, c2.closed)
}
