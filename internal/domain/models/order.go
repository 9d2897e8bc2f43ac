package models

import "time"

// OrderStatus mirrors the broker-side lifecycle; the gateway owns it.
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderPlaced   OrderStatus = "placed"
	OrderRejected OrderStatus = "rejected"
)

// OrderRequest is what the scheduler hands to the order gateway after a
// risk approval.
type OrderRequest struct {
	Symbol    string  `json:"symbol" validate:"required"`
	Side      Side    `json:"side" validate:"required,oneof=buy sell"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	Price     float64 `json:"price" validate:"gte=0"`
	OrderType string  `json:"order_type" validate:"required,oneof=market limit" default:"market"`
}

// Order is the broker's record of a placed order.
type Order struct {
	ID        string      `json:"id"`
	Symbol    string      `json:"symbol"`
	Side      Side        `json:"side"`
	Quantity  float64     `json:"quantity"`
	Price     float64     `json:"price"`
	Status    OrderStatus `json:"status"`
	Reason    string      `json:"reason,omitempty"`
	PlacedAt  time.Time   `json:"placed_at"`
}
