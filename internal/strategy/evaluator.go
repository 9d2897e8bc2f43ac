package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"PulseTrade/internal/domain/models"
)

// Evaluator turns a fresh quote into at most one trade signal. Evaluators
// are data-only rules interpreted by the host: no user code runs here, and
// the scheduler wraps every call in a timeout and panic recovery.
type Evaluator interface {
	Evaluate(ctx context.Context, q *models.Quote) (*models.Signal, error)
}

// Factory builds an evaluator from a strategy's JSON parameters.
type Factory func(*models.Strategy) (Evaluator, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[models.StrategyType]Factory{
		models.StrategyThreshold: func(s *models.Strategy) (Evaluator, error) {
			var p ThresholdParams
			if err := json.Unmarshal(s.Params, &p); err != nil {
				return nil, fmt.Errorf("threshold params: %w", err)
			}
			return NewThreshold(s, p)
		},
		models.StrategyMomentum: func(s *models.Strategy) (Evaluator, error) {
			var p MomentumParams
			if err := json.Unmarshal(s.Params, &p); err != nil {
				return nil, fmt.Errorf("momentum params: %w", err)
			}
			return NewMomentum(s, p)
		},
	}
)

// Register installs an evaluator factory for a rule type, replacing any
// previous registration. Call before the scheduler starts ticking.
func Register(typ models.StrategyType, f Factory) {
	factoriesMu.Lock()
	factories[typ] = f
	factoriesMu.Unlock()
}

// ForStrategy builds the evaluator selected by the strategy's type from its
// JSON parameters. Unknown types and malformed parameters are execution
// faults that count against the strategy's failure threshold.
func ForStrategy(s *models.Strategy) (Evaluator, error) {
	factoriesMu.RLock()
	f, ok := factories[s.Type]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown strategy type %q", s.Type)
	}
	return f(s)
}

// ThresholdParams configures a price-cross rule: emit a signal once the
// LTP crosses the level in the configured direction.
type ThresholdParams struct {
	Level     float64 `json:"level"`
	Direction string  `json:"direction"` // "above" or "below"
	Side      string  `json:"side"`      // "buy" or "sell"
	Quantity  float64 `json:"quantity"`
}

type Threshold struct {
	strategy *models.Strategy
	params   ThresholdParams
}

func NewThreshold(s *models.Strategy, p ThresholdParams) (*Threshold, error) {
	if p.Level <= 0 {
		return nil, fmt.Errorf("threshold level must be positive, got %v", p.Level)
	}
	if p.Direction != "above" && p.Direction != "below" {
		return nil, fmt.Errorf("threshold direction must be above or below, got %q", p.Direction)
	}
	if p.Side != string(models.SideBuy) && p.Side != string(models.SideSell) {
		return nil, fmt.Errorf("threshold side must be buy or sell, got %q", p.Side)
	}
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("threshold quantity must be positive, got %v", p.Quantity)
	}
	return &Threshold{strategy: s, params: p}, nil
}

func (t *Threshold) Evaluate(_ context.Context, q *models.Quote) (*models.Signal, error) {
	if q == nil {
		return nil, fmt.Errorf("no quote for %s", t.strategy.Symbol)
	}
	crossed := (t.params.Direction == "above" && q.LTP > t.params.Level) ||
		(t.params.Direction == "below" && q.LTP < t.params.Level)
	if !crossed {
		return nil, nil
	}
	return &models.Signal{
		StrategyID: t.strategy.ID,
		Symbol:     t.strategy.Symbol,
		Side:       models.Side(t.params.Side),
		Quantity:   t.params.Quantity,
		Price:      q.LTP,
		OrderType:  "market",
	}, nil
}

// MomentumParams configures a change-percent band rule: buy when the day
// change crosses above the band, sell when it drops below the negative band.
type MomentumParams struct {
	BandPercent float64 `json:"band_percent"`
	Quantity    float64 `json:"quantity"`
}

type Momentum struct {
	strategy *models.Strategy
	params   MomentumParams
}

func NewMomentum(s *models.Strategy, p MomentumParams) (*Momentum, error) {
	if p.BandPercent <= 0 {
		return nil, fmt.Errorf("momentum band must be positive, got %v", p.BandPercent)
	}
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("momentum quantity must be positive, got %v", p.Quantity)
	}
	return &Momentum{strategy: s, params: p}, nil
}

func (m *Momentum) Evaluate(_ context.Context, q *models.Quote) (*models.Signal, error) {
	if q == nil {
		return nil, fmt.Errorf("no quote for %s", m.strategy.Symbol)
	}

	var side models.Side
	switch {
	case q.ChangePercent >= m.params.BandPercent:
		side = models.SideBuy
	case q.ChangePercent <= -m.params.BandPercent:
		side = models.SideSell
	default:
		return nil, nil
	}
	return &models.Signal{
		StrategyID: m.strategy.ID,
		Symbol:     m.strategy.Symbol,
		Side:       side,
		Quantity:   m.params.Quantity,
		Price:      q.LTP,
		OrderType:  "market",
	}, nil
}
