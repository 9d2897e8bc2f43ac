package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PulseTrade/internal/domain/models"
	"PulseTrade/pkg/logger"
)

func newTestAlertManager(t *testing.T) (*AlertManager, *mockConn) {
	t.Helper()
	h := newTestHub()
	conn := newMockConn("c1")
	h.Register(conn)
	h.Subscribe(conn.ID(), "NIFTY")
	return NewAlertManager(h, logger.Nop()), conn
}

func TestAlertManager_AddValidation(t *testing.T) {
	m, _ := newTestAlertManager(t)

	_, err := m.Add("", models.AlertAbove, 19900, "")
	assert.Error(t, err)

	_, err = m.Add("NIFTY", "sideways", 19900, "")
	assert.Error(t, err)

	_, err = m.Add("NIFTY", models.AlertAbove, 0, "")
	assert.Error(t, err)

	id, err := m.Add("NIFTY", models.AlertAbove, 19900, "breakout watch")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Len(t, m.List(), 1)
}

func TestAlertManager_FiresOnceAbove(t *testing.T) {
	m, conn := newTestAlertManager(t)
	id, err := m.Add("NIFTY", models.AlertAbove, 19900, "")
	require.NoError(t, err)

	m.Check(&models.Quote{Symbol: "NIFTY", LTP: 19850.5})
	assert.Empty(t, conn.received(), "below the target, must not fire")

	m.Check(&models.Quote{Symbol: "NIFTY", LTP: 19910.0})
	msgs := conn.received()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.WSTypeAlert, msgs[0].Type)
	assert.Equal(t, "NIFTY", msgs[0].Symbol)

	// re-crossing never re-fires
	m.Check(&models.Quote{Symbol: "NIFTY", LTP: 19950.0})
	assert.Len(t, conn.received(), 1)

	alerts := m.List()
	require.Len(t, alerts, 1)
	assert.Equal(t, id, alerts[0].ID)
	assert.True(t, alerts[0].Triggered)
	require.NotNil(t, alerts[0].TriggeredAt)
}

func TestAlertManager_FiresBelow(t *testing.T) {
	m, conn := newTestAlertManager(t)
	_, err := m.Add("NIFTY", models.AlertBelow, 19800, "")
	require.NoError(t, err)

	m.Check(&models.Quote{Symbol: "NIFTY", LTP: 19750.0})
	assert.Len(t, conn.received(), 1)
}

func TestAlertManager_IgnoresOtherSymbols(t *testing.T) {
	m, conn := newTestAlertManager(t)
	_, err := m.Add("BANKNIFTY", models.AlertAbove, 44000, "")
	require.NoError(t, err)

	m.Check(&models.Quote{Symbol: "NIFTY", LTP: 99999})
	assert.Empty(t, conn.received())

	alerts := m.List()
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].Triggered)
}

func TestAlertManager_Remove(t *testing.T) {
	m, conn := newTestAlertManager(t)
	id, err := m.Add("NIFTY", models.AlertAbove, 19900, "")
	require.NoError(t, err)

	m.Remove(id)
	m.Remove("no-such-alert")
	assert.Empty(t, m.List())

	m.Check(&models.Quote{Symbol: "NIFTY", LTP: 19950.0})
	assert.Empty(t, conn.received())
}

func TestAlertManager_CheckNowFiresPendingAlerts(t *testing.T) {
	m, conn := newTestAlertManager(t)
	_, err := m.Add("NIFTY", models.AlertAbove, 19800, "breakout")
	require.NoError(t, err)
	_, err = m.Add("NIFTY", models.AlertBelow, 19000, "")
	require.NoError(t, err)

	quotes := &mockQuoteSource{quotes: map[string]*models.Quote{
		"NIFTY": {Symbol: "NIFTY", LTP: 19850.5},
	}}
	m.CheckNow(context.Background(), quotes)

	// only the satisfied alert fires; the other stays pending
	require.Len(t, conn.received(), 1)
	assert.Equal(t, "NIFTY", conn.received()[0].Symbol)

	// a fired alert drops out of the pending set and never re-fires
	m.CheckNow(context.Background(), quotes)
	assert.Len(t, conn.received(), 1)
}
