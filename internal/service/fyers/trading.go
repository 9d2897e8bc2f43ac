package fyers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"PulseTrade/internal/domain/models"
	xhttp "PulseTrade/pkg/http"
)

// TradingClient implements OrderGateway and AccountService against the
// Fyers trading REST API. It shares the quote client's credential scheme
// but talks to the order/funds endpoints.
type TradingClient struct {
	appID       string
	accessToken string
	baseURL     string
	timeout     time.Duration

	http *xhttp.Client
}

func NewTrading(appID, accessToken, baseURL string, timeout time.Duration) *TradingClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	t := &TradingClient{
		appID:       appID,
		accessToken: accessToken,
		baseURL:     strings.TrimRight(baseURL, "/"),
		timeout:     timeout,
	}
	t.http = xhttp.NewClient(xhttp.WithTimeout(timeout))
	return t
}

func (t *TradingClient) authHeader() map[string]string {
	return map[string]string{"Authorization": t.appID + ":" + t.accessToken}
}

type orderPayload struct {
	Symbol      string  `json:"symbol"`
	Qty         float64 `json:"qty"`
	Type        int     `json:"type"` // 1 = limit, 2 = market
	Side        int     `json:"side"` // 1 = buy, -1 = sell
	ProductType string  `json:"productType"`
	LimitPrice  float64 `json:"limitPrice,omitempty"`
	Validity    string  `json:"validity"`
}

type orderResponse struct {
	S       string `json:"s"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// PlaceOrder validates the request and submits it. A broker-side
// rejection comes back as an Order with rejected status, not an error;
// errors mean the order never reached the broker.
func (t *TradingClient) PlaceOrder(ctx context.Context, req *models.OrderRequest) (*models.Order, error) {
	if err := xhttp.ValidateStruct(ctx, req); err != nil {
		return nil, fmt.Errorf("order request: %w", err)
	}

	payload := orderPayload{
		Symbol:      req.Symbol,
		Qty:         req.Quantity,
		Type:        2,
		Side:        1,
		ProductType: "INTRADAY",
		Validity:    "DAY",
	}
	if req.OrderType == "limit" {
		payload.Type = 1
		payload.LimitPrice = req.Price
	}
	if req.Side == models.SideSell {
		payload.Side = -1
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var resp orderResponse
	err := t.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     t.baseURL + "/api/v2/orders",
		Headers: t.authHeader(),
		Body:    payload,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fyers order: %w", err)
	}

	order := &models.Order{
		ID:       resp.ID,
		Symbol:   req.Symbol,
		Side:     req.Side,
		Quantity: req.Quantity,
		Price:    req.Price,
		Status:   models.OrderPlaced,
		PlacedAt: time.Now(),
	}
	if resp.S != "ok" {
		order.Status = models.OrderRejected
		order.Reason = resp.Message
	}
	return order, nil
}

type fundLimit struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	EquityAmount float64 `json:"equityAmount"`
}

type fundsResponse struct {
	S         string      `json:"s"`
	Message   string      `json:"message"`
	FundLimit []fundLimit `json:"fund_limit"`
}

// Snapshot fetches the funds view and maps it onto the account snapshot
// the risk gate consumes. Fetched fresh per risk check, never cached.
func (t *TradingClient) Snapshot(ctx context.Context) (*models.AccountSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var resp fundsResponse
	err := t.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     t.baseURL + "/api/v2/funds",
		Headers: t.authHeader(),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fyers funds: %w", err)
	}
	if resp.S != "ok" {
		return nil, fmt.Errorf("fyers funds: upstream status %q: %s", resp.S, resp.Message)
	}

	snap := &models.AccountSnapshot{}
	for _, f := range resp.FundLimit {
		switch f.Title {
		case "Total Balance":
			snap.Balance = f.EquityAmount
		case "Available Balance":
			snap.AvailableMargin = f.EquityAmount
		case "Utilized Amount":
			snap.UsedMargin = f.EquityAmount
		case "Realized Profit and Loss":
			snap.RealizedPnL = f.EquityAmount
		}
	}
	return snap, nil
}
