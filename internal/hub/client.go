package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"PulseTrade/internal/domain/models"
	"PulseTrade/pkg/logger"
)

const (
	sendBufferSize = 256
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 4096
)

var errSendBufferFull = errors.New("send buffer full")

var connSeq uint64

// Client adapts a gorilla websocket connection to the hub's Conn interface.
// A read pump parses subscribe/unsubscribe commands, a write pump drains
// the buffered send channel; a full buffer fails the send, which the hub
// treats as a disconnect.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub
	log  *logger.Logger

	send      chan *models.ServerMessage
	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(conn *websocket.Conn, h *Hub, log *logger.Logger) *Client {
	seq := atomic.AddUint64(&connSeq, 1)
	return &Client{
		id:   fmt.Sprintf("%s#%d", conn.RemoteAddr().String(), seq),
		conn: conn,
		hub:  h,
		log:  log,
		send: make(chan *models.ServerMessage, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// Start registers the client with the hub and launches both pumps.
func (c *Client) Start() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

// Send enqueues a message for the write pump. It fails when the client is
// gone or its buffer is full; the hub turns that into an unregister.
func (c *Client) Send(msg *models.ServerMessage) error {
	select {
	case <-c.done:
		return errors.New("connection closed")
	default:
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close stops the pumps and the underlying connection. Idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) readPump() {
	defer c.hub.Unregister(c.id)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var req models.ClientMessage
		if err := json.Unmarshal(payload, &req); err != nil {
			// malformed payload: answer in-band, keep the connection
			_ = c.Send(models.NewErrorMessage("invalid JSON payload"))
			continue
		}
		c.handle(req)
	}
}

func (c *Client) handle(req models.ClientMessage) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

	switch req.Type {
	case models.WSTypeSubscribe:
		if symbol == "" {
			_ = c.Send(models.NewErrorMessage("subscribe requires a symbol"))
			return
		}
		c.hub.Subscribe(c.id, symbol)
		_ = c.Send(models.NewAckMessage(symbol, "subscribed"))
	case models.WSTypeUnsubscribe:
		if symbol == "" {
			_ = c.Send(models.NewErrorMessage("unsubscribe requires a symbol"))
			return
		}
		c.hub.Unsubscribe(c.id, symbol)
		_ = c.Send(models.NewAckMessage(symbol, "unsubscribed"))
	default:
		_ = c.Send(models.NewErrorMessage("unknown message type: " + req.Type))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.hub.Unregister(c.id)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.Unregister(c.id)
				return
			}
		}
	}
}
