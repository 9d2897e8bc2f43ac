package fyers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"PulseTrade/internal/domain/models"
	"PulseTrade/internal/service/ratelimit"
	xhttp "PulseTrade/pkg/http"
)

// Client implements MarketDataProvider against the Fyers quotes REST API.
type Client struct {
	appID       string
	accessToken string
	baseURL     string
	timeout     time.Duration

	http    *xhttp.Client
	limiter *ratelimit.Limiter
	maxRPS  float64
}

type Option func(*Client)

// WithMaxRPS bounds outbound request rate; 0 disables the limiter.
func WithMaxRPS(rps float64) Option {
	return func(c *Client) { c.maxRPS = rps }
}

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func New(appID, accessToken, baseURL string, opts ...Option) *Client {
	c := &Client{
		appID:       appID,
		accessToken: accessToken,
		baseURL:     strings.TrimRight(baseURL, "/"),
		timeout:     3 * time.Second,
		limiter:     ratelimit.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = xhttp.NewClient(xhttp.WithTimeout(c.timeout))
	return c
}

type quoteValue struct {
	LP     float64 `json:"lp"`
	Ch     float64 `json:"ch"`
	Chp    float64 `json:"chp"`
	Volume int64   `json:"volume"`
	OI     int64   `json:"oi"`
	TT     int64   `json:"tt"`
}

type quoteEntry struct {
	N string     `json:"n"`
	S string     `json:"s"`
	V quoteValue `json:"v"`
}

type quotesResponse struct {
	S       string       `json:"s"`
	Message string       `json:"message"`
	D       []quoteEntry `json:"d"`
}

// FetchQuotes asks Fyers for the latest snapshot of every symbol in one
// call. Symbols the upstream reports as failed are omitted from the result;
// a non-"ok" envelope is a total outage for this call.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error) {
	if len(symbols) == 0 {
		return map[string]*models.Quote{}, nil
	}
	if c.maxRPS > 0 && !c.limiter.Allow("quotes", c.maxRPS, c.maxRPS) {
		return nil, fmt.Errorf("fyers quotes: rate limited")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp quotesResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/data-rest/v2/quotes/",
		Headers: map[string]string{
			"Authorization": c.appID + ":" + c.accessToken,
		},
		QueryParams: map[string][]string{
			"symbols": {strings.Join(symbols, ",")},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fyers quotes: %w", err)
	}
	if resp.S != "ok" {
		return nil, fmt.Errorf("fyers quotes: upstream status %q: %s", resp.S, resp.Message)
	}

	quotes := make(map[string]*models.Quote, len(resp.D))
	for _, e := range resp.D {
		if e.S != "ok" {
			// per-symbol failure; the caller skips it this tick
			continue
		}
		ts := time.Now()
		if e.V.TT > 0 {
			ts = time.Unix(e.V.TT, 0)
		}
		quotes[e.N] = &models.Quote{
			Symbol:        e.N,
			LTP:           e.V.LP,
			Change:        e.V.Ch,
			ChangePercent: e.V.Chp,
			Volume:        e.V.Volume,
			OpenInterest:  e.V.OI,
			Timestamp:     ts,
		}
	}
	return quotes, nil
}
