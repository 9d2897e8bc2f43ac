package hub

import (
	"sort"
	"sync"

	"PulseTrade/internal/domain/models"
	drepo "PulseTrade/internal/domain/repository"
	"PulseTrade/pkg/logger"
)

// Conn is the transport-facing side of a live client connection. The hub
// owns the connection set; a Send error is treated as a disconnect.
type Conn interface {
	ID() string
	Send(msg *models.ServerMessage) error
	Close()
}

// Hub owns the set of live connections and the symbol subscription
// relation. All map mutation happens under h.mu; broadcasts snapshot their
// targets first so no lock is held across sends.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]Conn
	subs     map[string]map[string]struct{} // symbol -> connection ids
	connSubs map[string]map[string]struct{} // connection id -> symbols

	log     *logger.Logger
	metrics drepo.Metrics
}

func New(log *logger.Logger, metrics drepo.Metrics) *Hub {
	return &Hub{
		conns:    make(map[string]Conn),
		subs:     make(map[string]map[string]struct{}),
		connSubs: make(map[string]map[string]struct{}),
		log:      log,
		metrics:  metrics,
	}
}

// Register adds a connection to the active set and returns its id.
func (h *Hub) Register(c Conn) string {
	h.mu.Lock()
	h.conns[c.ID()] = c
	n := len(h.conns)
	h.mu.Unlock()

	h.metrics.SetConnections(n)
	h.log.Info("connection registered", logger.String("conn", c.ID()))
	return c.ID()
}

// Unregister removes a connection and all its subscriptions. Safe to call
// multiple times; a second call is a no-op.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	c, ok := h.conns[id]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, id)
	for sym := range h.connSubs[id] {
		delete(h.subs[sym], id)
		if len(h.subs[sym]) == 0 {
			delete(h.subs, sym)
		}
	}
	delete(h.connSubs, id)
	n := len(h.conns)
	h.mu.Unlock()

	c.Close()
	h.metrics.SetConnections(n)
	h.log.Info("connection unregistered", logger.String("conn", id))
}

// Subscribe adds the (connection, symbol) relation. Duplicate subscribes
// are idempotent. Unknown connections are ignored.
func (h *Hub) Subscribe(id, symbol string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[id]; !ok {
		return
	}
	if h.subs[symbol] == nil {
		h.subs[symbol] = make(map[string]struct{})
	}
	h.subs[symbol][id] = struct{}{}
	if h.connSubs[id] == nil {
		h.connSubs[id] = make(map[string]struct{})
	}
	h.connSubs[id][symbol] = struct{}{}
}

// Unsubscribe removes the (connection, symbol) relation.
func (h *Hub) Unsubscribe(id, symbol string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subs[symbol]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(h.subs, symbol)
		}
	}
	if set, ok := h.connSubs[id]; ok {
		delete(set, symbol)
	}
}

// SendTo delivers a message to one connection. A transport failure
// unregisters the connection; a failed send is never retried.
func (h *Hub) SendTo(id string, msg *models.ServerMessage) {
	h.mu.RLock()
	c, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := c.Send(msg); err != nil {
		h.log.Warn("send failed, dropping connection",
			logger.String("conn", id), logger.Error(err))
		h.metrics.RecordError("ws_send")
		h.Unregister(id)
	}
}

// Broadcast delivers a message to every connection subscribed to symbol at
// call time. The subscriber set is snapshotted first: connections added
// afterwards do not receive this message, connections that died during
// delivery are skipped and unregistered.
func (h *Hub) Broadcast(symbol string, msg *models.ServerMessage) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.subs[symbol]))
	for id := range h.subs[symbol] {
		if c, ok := h.conns[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	var dead []string
	for _, c := range targets {
		if err := c.Send(msg); err != nil {
			dead = append(dead, c.ID())
		}
	}
	for _, id := range dead {
		h.log.Warn("broadcast send failed, dropping connection", logger.String("conn", id))
		h.metrics.RecordError("ws_send")
		h.Unregister(id)
	}
	h.metrics.RecordBroadcast(symbol)
}

// HotSymbols is the union of subscribed symbols and the extra symbols
// required by active strategies, sorted for deterministic tick order.
func (h *Hub) HotSymbols(extra []string) []string {
	h.mu.RLock()
	set := make(map[string]struct{}, len(h.subs)+len(extra))
	for sym, conns := range h.subs {
		if len(conns) > 0 {
			set[sym] = struct{}{}
		}
	}
	h.mu.RUnlock()

	for _, sym := range extra {
		set[sym] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for sym := range set {
		out = append(out, sym)
	}
	sort.Strings(out)

	h.metrics.SetHotSymbols(len(out))
	return out
}

// Subscribers returns the current subscriber count for a symbol.
func (h *Hub) Subscribers(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[symbol])
}

// Connections returns the current live connection count.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Shutdown closes every connection and clears all subscriptions.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	conns := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[string]Conn)
	h.subs = make(map[string]map[string]struct{})
	h.connSubs = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	h.metrics.SetConnections(0)
}
