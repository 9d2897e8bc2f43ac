package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"PulseTrade/internal/domain/models"
)

func quote(symbol string, ltp float64) *models.Quote {
	return &models.Quote{Symbol: symbol, LTP: ltp, Timestamp: time.Now()}
}

func TestQuoteCache_GetWithinTTL(t *testing.T) {
	c := NewQuoteCache(time.Second)
	q := quote("NIFTY", 19850.5)
	c.Put("NIFTY", q)

	got, ok := c.Get("NIFTY")
	assert.True(t, ok)
	assert.Equal(t, q, got)
}

func TestQuoteCache_MissAfterTTL(t *testing.T) {
	c := NewQuoteCache(20 * time.Millisecond)
	c.Put("NIFTY", quote("NIFTY", 19850.5))

	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get("NIFTY")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestQuoteCache_MissUnknownSymbol(t *testing.T) {
	c := NewQuoteCache(time.Second)
	_, ok := c.Get("BANKNIFTY")
	assert.False(t, ok)
}

func TestQuoteCache_PutOverwrites(t *testing.T) {
	c := NewQuoteCache(time.Second)
	c.Put("NIFTY", quote("NIFTY", 19800))
	c.Put("NIFTY", quote("NIFTY", 19900))

	got, ok := c.Get("NIFTY")
	assert.True(t, ok)
	assert.Equal(t, 19900.0, got.LTP)
}

func TestQuoteCache_DisabledAlwaysMisses(t *testing.T) {
	c := NewQuoteCache(0)
	c.Put("NIFTY", quote("NIFTY", 19850.5))

	_, ok := c.Get("NIFTY")
	assert.False(t, ok)
}
