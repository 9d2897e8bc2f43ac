package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	drepo "PulseTrade/internal/domain/repository"
	"PulseTrade/internal/hub"
	"PulseTrade/internal/usecase"
	xhttp "PulseTrade/pkg/http"
	xlogger "PulseTrade/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the dashboard frontend is served from a different origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler serves the websocket upgrade endpoint plus the read-only HTTP
// surface: health, historical quotes, and the current alert list.
type Handler struct {
	logger  *xlogger.Logger
	hub     *hub.Hub
	poller  *usecase.Poller
	alerts  *usecase.AlertManager
	history drepo.QuoteHistory
}

func NewHandler(
	logger *xlogger.Logger,
	h *hub.Hub,
	poller *usecase.Poller,
	alerts *usecase.AlertManager,
	history drepo.QuoteHistory,
) *Handler {
	return &Handler{logger: logger, hub: h, poller: poller, alerts: alerts, history: history}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.WebSocket)
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/market/quote/:symbol", h.Quote)
	g.GET("/market/history", h.History)
	g.GET("/alerts", h.Alerts)
}

// Quote serves the latest quote for a symbol through the shared cache,
// fetching upstream on a miss.
func (h *Handler) Quote(c echo.Context) error {
	symbol := c.Param("symbol")
	q, err := h.poller.Quote(c.Request().Context(), symbol)
	if err != nil {
		h.logger.Warn("quote lookup failed",
			xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if q == nil {
		return xhttp.NotFoundResponse(c, "no quote for "+symbol)
	}
	return xhttp.SuccessResponse(c, q)
}

// WebSocket upgrades the connection and hands it to the hub. The client
// drives subscriptions over the socket from there.
func (h *Handler) WebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return err
	}
	hub.NewClient(conn, h.hub, h.logger).Start()
	return nil
}

// providerStaleAfter bounds how old the last successful provider fetch
// may be before /health reports the provider as stale.
const providerStaleAfter = 30 * time.Second

type healthStatus struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Provider    string `json:"provider"`
	History     string `json:"history,omitempty"`
}

// Health reports liveness plus downstream connectivity. Degraded
// dependencies do not fail the check; the process itself is still live.
func (h *Handler) Health(c echo.Context) error {
	st := healthStatus{Status: "ok", Connections: h.hub.Connections()}

	switch last := h.poller.LastProviderFetch(); {
	case last.IsZero():
		st.Provider = "unknown"
	case time.Since(last) > providerStaleAfter:
		st.Provider = "stale"
	default:
		st.Provider = "ok"
	}

	if h.history != nil {
		if err := h.history.Health(c.Request().Context()); err != nil {
			st.History = "unavailable"
		} else {
			st.History = "ok"
		}
	}
	return xhttp.SuccessResponse(c, st)
}

// History serves stored quotes for a symbol over a time window.
func (h *Handler) History(c echo.Context) error {
	if h.history == nil {
		return xhttp.NotFoundResponse(c, "quote history is not enabled")
	}

	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol is required")
	}

	now := time.Now()
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.Add(-time.Hour))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 500)

	quotes, err := h.history.Query(c.Request().Context(), symbol, from, to, limit)
	if err != nil {
		h.logger.Error("quote history query failed",
			xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, quotes, int64(len(quotes)))
}

// Alerts lists the configured price alerts and their trigger state.
func (h *Handler) Alerts(c echo.Context) error {
	alerts := h.alerts.List()
	return xhttp.ListResponse(c, alerts, int64(len(alerts)))
}
