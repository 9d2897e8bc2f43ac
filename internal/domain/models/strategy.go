package models

import "encoding/json"

// StrategyStatus is the lifecycle state of a strategy definition.
type StrategyStatus string

const (
	StrategyActive   StrategyStatus = "active"
	StrategyInactive StrategyStatus = "inactive"
	// StrategyError is set by the scheduler after repeated execution
	// failures; the strategy stops being scheduled until reset.
	StrategyError StrategyStatus = "error"
)

// StrategyType selects a built-in rule evaluator. Strategies are data-only:
// type plus parameters, interpreted by the host, never arbitrary code.
type StrategyType string

const (
	StrategyThreshold StrategyType = "threshold"
	StrategyMomentum  StrategyType = "momentum"
)

// Strategy is a stored strategy definition. Params is interpreted by the
// evaluator selected by Type.
type Strategy struct {
	ID     string          `json:"id"`
	Symbol string          `json:"symbol"`
	Type   StrategyType    `json:"type"`
	Params json.RawMessage `json:"params"`
	Status StrategyStatus  `json:"status"`
}

// Side is the direction of a proposed trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Signal is the ephemeral output of one strategy evaluation. It is either
// approved by the risk gate and submitted, or rejected and discarded.
type Signal struct {
	StrategyID string  `json:"strategy_id"`
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	OrderType  string  `json:"order_type"`
}

// Notional is the rupee value of the proposed trade.
func (s *Signal) Notional() float64 {
	return s.Quantity * s.Price
}
