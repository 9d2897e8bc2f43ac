package risk

import (
	"fmt"

	"PulseTrade/internal/domain/models"
)

// Limits are the static risk bounds, injected from configuration.
type Limits struct {
	MaxPositionSize float64
	MaxRiskPercent  float64 // percent of account balance a single trade may risk
	DailyLossLimit  float64
}

// Verdict is the outcome of one risk check. Approved verdicts carry no
// side effect; the caller forwards to the order gateway.
type Verdict struct {
	Approved bool
	Reason   string
}

func approve() Verdict { return Verdict{Approved: true} }

func reject(format string, a ...interface{}) Verdict {
	return Verdict{Approved: false, Reason: fmt.Sprintf(format, a...)}
}

// Gate validates prospective trades against account state and limits.
type Gate struct {
	limits Limits
}

func NewGate(limits Limits) *Gate {
	return &Gate{limits: limits}
}

// Validate runs the checks in order and short-circuits on the first
// failure: position size, risk percentage of balance, available margin,
// then the daily loss limit. Rejections are final, never retried.
func (g *Gate) Validate(sig *models.Signal, acct *models.AccountSnapshot) Verdict {
	if sig.Quantity <= 0 {
		return reject("quantity must be positive, got %v", sig.Quantity)
	}
	if sig.Quantity > g.limits.MaxPositionSize {
		return reject("position size %v exceeds max %v", sig.Quantity, g.limits.MaxPositionSize)
	}

	notional := sig.Notional()
	riskCap := acct.Balance * g.limits.MaxRiskPercent / 100
	if notional > riskCap {
		return reject("notional %.2f exceeds risk cap %.2f (%.1f%% of balance)",
			notional, riskCap, g.limits.MaxRiskPercent)
	}
	if notional > acct.AvailableMargin {
		return reject("notional %.2f exceeds available margin %.2f", notional, acct.AvailableMargin)
	}
	if g.limits.DailyLossLimit > 0 && acct.RealizedPnL <= -g.limits.DailyLossLimit {
		return reject("daily loss limit %.2f reached (realized pnl %.2f)",
			g.limits.DailyLossLimit, acct.RealizedPnL)
	}
	return approve()
}
