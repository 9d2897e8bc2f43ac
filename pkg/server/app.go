package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PulseTrade/internal/domain/repository"
	"PulseTrade/internal/hub"
	"PulseTrade/internal/usecase"
	"PulseTrade/pkg/config"
	xhttp "PulseTrade/pkg/http"
	applogger "PulseTrade/pkg/logger"
)

// App encapsulates the entire application lifecycle: the HTTP/websocket
// surface, the market data poller, and the strategy scheduler.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	hub       *hub.Hub
	poller    *usecase.Poller
	scheduler *usecase.Scheduler
	alerts    *usecase.AlertManager
	handler   xhttp.Handler

	// optional infrastructure, closed on shutdown when present
	history   repository.QuoteHistory
	publisher repository.SignalPublisher
	store     interface{ Close() error }

	httpServer *xhttp.Server
}

func New(
	cfg *config.Config,
	log *applogger.Logger,
	h *hub.Hub,
	poller *usecase.Poller,
	scheduler *usecase.Scheduler,
	alerts *usecase.AlertManager,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		hub:       h,
		poller:    poller,
		scheduler: scheduler,
		alerts:    alerts,
		handler:   handler,
	}
}

// SetHistory registers the quote history store for shutdown.
func (a *App) SetHistory(h repository.QuoteHistory) { a.history = h }

// SetPublisher registers the signal publisher for shutdown.
func (a *App) SetPublisher(p repository.SignalPublisher) { a.publisher = p }

// SetStore registers the strategy store for shutdown.
func (a *App) SetStore(s interface{ Close() error }) { a.store = s }

// Run starts everything and blocks until an interrupt arrives.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsEndpoint(a.cfg.Metrics.Enabled, a.cfg.Metrics.Path),
	)

	go a.poller.Run(ctx)
	go a.scheduler.Run(ctx)
	go a.alerts.Run(ctx, a.cfg.Market.AlertCheckInterval, a.poller)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("pulsetrade started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Strings("symbols", a.cfg.Market.Symbols))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown stops the loops, drains connections, and closes every
// infrastructure client. Errors are logged, not propagated: shutdown
// always runs to completion.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	// closes every connection and clears subscriptions
	a.hub.Shutdown()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("signal publisher close error", applogger.Error(err))
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.log.Warn("quote history close error", applogger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("strategy store close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
