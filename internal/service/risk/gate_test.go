package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"PulseTrade/internal/domain/models"
)

func defaultLimits() Limits {
	return Limits{MaxPositionSize: 100, MaxRiskPercent: 5, DailyLossLimit: 10000}
}

func account() *models.AccountSnapshot {
	return &models.AccountSnapshot{Balance: 100000, AvailableMargin: 50000, UsedMargin: 0}
}

func signal(qty, price float64) *models.Signal {
	return &models.Signal{
		StrategyID: "s1",
		Symbol:     "NIFTY",
		Side:       models.SideBuy,
		Quantity:   qty,
		Price:      price,
		OrderType:  "market",
	}
}

func TestGate_ApprovesWithinAllLimits(t *testing.T) {
	g := NewGate(defaultLimits())

	v := g.Validate(signal(10, 400), account()) // notional 4000 < 5000 cap
	assert.True(t, v.Approved)
	assert.Empty(t, v.Reason)
}

func TestGate_RejectsOversizedPosition(t *testing.T) {
	g := NewGate(defaultLimits())

	v := g.Validate(signal(101, 1), account())
	assert.False(t, v.Approved)
	assert.Contains(t, v.Reason, "position size")
}

func TestGate_RejectsNotionalOverRiskCap(t *testing.T) {
	g := NewGate(defaultLimits())

	// balance 100000, max risk 5% -> cap 5000; notional 6000
	v := g.Validate(signal(10, 600), account())
	assert.False(t, v.Approved)
	assert.Contains(t, v.Reason, "risk cap")
}

func TestGate_RejectsNotionalOverMargin(t *testing.T) {
	g := NewGate(Limits{MaxPositionSize: 100, MaxRiskPercent: 90})
	acct := &models.AccountSnapshot{Balance: 100000, AvailableMargin: 3000}

	// notional 4000 passes the 90% risk cap but exceeds margin,
	// so it is rejected regardless of the other limits
	v := g.Validate(signal(10, 400), acct)
	assert.False(t, v.Approved)
	assert.Contains(t, v.Reason, "available margin")
}

func TestGate_RejectsAfterDailyLossLimit(t *testing.T) {
	g := NewGate(defaultLimits())
	acct := account()
	acct.RealizedPnL = -10000

	v := g.Validate(signal(10, 400), acct)
	assert.False(t, v.Approved)
	assert.Contains(t, v.Reason, "daily loss limit")
}

func TestGate_ChecksShortCircuitInOrder(t *testing.T) {
	g := NewGate(defaultLimits())

	// violates both position size and risk cap; position size wins
	v := g.Validate(signal(200, 600), account())
	assert.False(t, v.Approved)
	assert.Contains(t, v.Reason, "position size")
}

func TestGate_RejectsNonPositiveQuantity(t *testing.T) {
	g := NewGate(defaultLimits())

	v := g.Validate(signal(0, 100), account())
	assert.False(t, v.Approved)
}
