package fyers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PulseTrade/internal/domain/models"
	"PulseTrade/pkg/logger"
)

func quotesServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data-rest/v2/quotes/", r.URL.Path)
		assert.Equal(t, "app:token", r.Header.Get("Authorization"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestClient_FetchQuotes(t *testing.T) {
	srv := quotesServer(t, `{"s":"ok","d":[
		{"n":"NIFTY","s":"ok","v":{"lp":19850.5,"ch":120.3,"chp":0.61,"volume":1000,"oi":500,"tt":1700000000}},
		{"n":"BANKNIFTY","s":"error","v":{}}
	]}`, http.StatusOK)
	defer srv.Close()

	c := New("app", "token", srv.URL)
	quotes, err := c.FetchQuotes(context.Background(), []string{"NIFTY", "BANKNIFTY"})
	require.NoError(t, err)

	// the failed symbol is omitted, not an error
	require.Len(t, quotes, 1)
	q := quotes["NIFTY"]
	require.NotNil(t, q)
	assert.Equal(t, 19850.5, q.LTP)
	assert.Equal(t, 0.61, q.ChangePercent)
	assert.Equal(t, int64(500), q.OpenInterest)
	assert.False(t, q.Degraded)
	assert.Equal(t, int64(1700000000), q.Timestamp.Unix())
}

func TestClient_FetchQuotesEnvelopeError(t *testing.T) {
	srv := quotesServer(t, `{"s":"error","message":"invalid token"}`, http.StatusOK)
	defer srv.Close()

	c := New("app", "token", srv.URL)
	_, err := c.FetchQuotes(context.Background(), []string{"NIFTY"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestClient_FetchQuotesUpstreamStatus(t *testing.T) {
	srv := quotesServer(t, `unavailable`, http.StatusServiceUnavailable)
	defer srv.Close()

	c := New("app", "token", srv.URL)
	_, err := c.FetchQuotes(context.Background(), []string{"NIFTY"})
	require.Error(t, err)
}

func TestClient_FetchQuotesEmptySymbols(t *testing.T) {
	c := New("app", "token", "http://localhost:0")
	quotes, err := c.FetchQuotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

type stubProvider struct {
	quotes map[string]*models.Quote
	err    error
}

func (s *stubProvider) FetchQuotes(_ context.Context, symbols []string) (map[string]*models.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]*models.Quote)
	for _, sym := range symbols {
		if q, ok := s.quotes[sym]; ok {
			out[sym] = q
		}
	}
	return out, nil
}

func TestFallbackProvider_MarksDegraded(t *testing.T) {
	primary := &stubProvider{err: errors.New("primary down")}
	secondary := &stubProvider{quotes: map[string]*models.Quote{
		"NIFTY": {Symbol: "NIFTY", LTP: 19850.5},
	}}

	f := NewFallbackProvider(primary, secondary, logger.Nop())
	quotes, err := f.FetchQuotes(context.Background(), []string{"NIFTY"})
	require.NoError(t, err)
	require.NotNil(t, quotes["NIFTY"])
	assert.True(t, quotes["NIFTY"].Degraded, "fallback data must be flagged")
}

func TestFallbackProvider_PrimaryDataNotFlagged(t *testing.T) {
	primary := &stubProvider{quotes: map[string]*models.Quote{
		"NIFTY": {Symbol: "NIFTY", LTP: 19850.5},
	}}
	secondary := &stubProvider{err: errors.New("should not be called")}

	f := NewFallbackProvider(primary, secondary, logger.Nop())
	quotes, err := f.FetchQuotes(context.Background(), []string{"NIFTY"})
	require.NoError(t, err)
	assert.False(t, quotes["NIFTY"].Degraded)
}

func TestFallbackProvider_BothDown(t *testing.T) {
	primary := &stubProvider{err: errors.New("primary down")}
	secondary := &stubProvider{err: errors.New("secondary down")}

	f := NewFallbackProvider(primary, secondary, logger.Nop())
	_, err := f.FetchQuotes(context.Background(), []string{"NIFTY"})
	require.Error(t, err)
}

func TestFallbackProvider_FillsMissingSymbols(t *testing.T) {
	primary := &stubProvider{quotes: map[string]*models.Quote{
		"NIFTY": {Symbol: "NIFTY", LTP: 19850.5},
	}}
	secondary := &stubProvider{quotes: map[string]*models.Quote{
		"SENSEX": {Symbol: "SENSEX", LTP: 65875.25},
	}}

	f := NewFallbackProvider(primary, secondary, logger.Nop())
	quotes, err := f.FetchQuotes(context.Background(), []string{"NIFTY", "SENSEX"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.False(t, quotes["NIFTY"].Degraded)
	assert.True(t, quotes["SENSEX"].Degraded)
}
