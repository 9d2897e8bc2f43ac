package strategy

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PulseTrade/internal/domain/models"
)

func strat(typ models.StrategyType, params string) *models.Strategy {
	return &models.Strategy{
		ID:     "s1",
		Symbol: "NIFTY",
		Type:   typ,
		Params: json.RawMessage(params),
		Status: models.StrategyActive,
	}
}

func quoteAt(ltp, chp float64) *models.Quote {
	return &models.Quote{Symbol: "NIFTY", LTP: ltp, ChangePercent: chp, Timestamp: time.Now()}
}

func TestThreshold_FiresAboveLevel(t *testing.T) {
	ev, err := ForStrategy(strat(models.StrategyThreshold,
		`{"level":19800,"direction":"above","side":"buy","quantity":10}`))
	require.NoError(t, err)

	sig, err := ev.Evaluate(context.Background(), quoteAt(19850.5, 0))
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, models.SideBuy, sig.Side)
	assert.Equal(t, 19850.5, sig.Price)
	assert.Equal(t, "s1", sig.StrategyID)
}

func TestThreshold_QuietBelowLevel(t *testing.T) {
	ev, err := ForStrategy(strat(models.StrategyThreshold,
		`{"level":19900,"direction":"above","side":"buy","quantity":10}`))
	require.NoError(t, err)

	sig, err := ev.Evaluate(context.Background(), quoteAt(19850.5, 0))
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestThreshold_RejectsBadParams(t *testing.T) {
	cases := []string{
		`{"level":-1,"direction":"above","side":"buy","quantity":10}`,
		`{"level":19800,"direction":"sideways","side":"buy","quantity":10}`,
		`{"level":19800,"direction":"above","side":"hold","quantity":10}`,
		`{"level":19800,"direction":"above","side":"buy","quantity":0}`,
		`{not json`,
	}
	for _, params := range cases {
		_, err := ForStrategy(strat(models.StrategyThreshold, params))
		assert.Error(t, err, "params: %s", params)
	}
}

func TestMomentum_BuyAndSellBands(t *testing.T) {
	ev, err := ForStrategy(strat(models.StrategyMomentum, `{"band_percent":1.5,"quantity":5}`))
	require.NoError(t, err)

	sig, err := ev.Evaluate(context.Background(), quoteAt(19850.5, 2.0))
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, models.SideBuy, sig.Side)

	sig, err = ev.Evaluate(context.Background(), quoteAt(19850.5, -2.0))
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, models.SideSell, sig.Side)

	sig, err = ev.Evaluate(context.Background(), quoteAt(19850.5, 0.5))
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestForStrategy_UnknownType(t *testing.T) {
	_, err := ForStrategy(strat("genetic_algo", `{}`))
	assert.Error(t, err)
}

func TestEvaluate_NilQuoteIsAFault(t *testing.T) {
	ev, err := ForStrategy(strat(models.StrategyMomentum, `{"band_percent":1,"quantity":1}`))
	require.NoError(t, err)

	_, err = ev.Evaluate(context.Background(), nil)
	assert.Error(t, err)
}

type fixedEvaluator struct{ sig *models.Signal }

func (f fixedEvaluator) Evaluate(context.Context, *models.Quote) (*models.Signal, error) {
	return f.sig, nil
}

func TestRegister_InstallsCustomRuleType(t *testing.T) {
	typ := models.StrategyType("custom-rule")
	Register(typ, func(s *models.Strategy) (Evaluator, error) {
		return fixedEvaluator{sig: &models.Signal{StrategyID: s.ID}}, nil
	})

	ev, err := ForStrategy(strat(typ, `{}`))
	require.NoError(t, err)

	sig, err := ev.Evaluate(context.Background(), quoteAt(100, 0))
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, "s1", sig.StrategyID)
}
