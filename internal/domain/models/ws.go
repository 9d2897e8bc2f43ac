package models

import (
	"encoding/json"
	"time"
)

// Client -> server message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
)

// Server -> client message types.
const (
	WSTypeMarketData = "market_data"
	WSTypeAlert      = "alert"
	WSTypeAck        = "ack"
	WSTypeError      = "error"
)

// ClientMessage is what a websocket client sends.
type ClientMessage struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// ServerMessage is the envelope for everything the hub emits.
type ServerMessage struct {
	Type      string          `json:"type"`
	Symbol    string          `json:"symbol,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Message   string          `json:"message,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// NewMarketDataMessage wraps a quote for broadcast.
func NewMarketDataMessage(q *Quote) (*ServerMessage, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return &ServerMessage{
		Type:      WSTypeMarketData,
		Symbol:    q.Symbol,
		Data:      data,
		Timestamp: q.Timestamp.Unix(),
	}, nil
}

// NewAlertMessage wraps a triggered alert for broadcast.
func NewAlertMessage(a *PriceAlert) (*ServerMessage, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return &ServerMessage{
		Type:      WSTypeAlert,
		Symbol:    a.Symbol,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}, nil
}

// NewErrorMessage builds an in-band error reply. Malformed client payloads
// are answered with this and never close the connection.
func NewErrorMessage(msg string) *ServerMessage {
	return &ServerMessage{Type: WSTypeError, Message: msg, Timestamp: time.Now().Unix()}
}

// NewAckMessage acknowledges a subscribe/unsubscribe command.
func NewAckMessage(symbol, msg string) *ServerMessage {
	return &ServerMessage{Type: WSTypeAck, Symbol: symbol, Message: msg, Timestamp: time.Now().Unix()}
}
