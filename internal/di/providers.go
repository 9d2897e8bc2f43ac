package di

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PulseTrade/internal/domain/models"
	"PulseTrade/internal/domain/repository"
	"PulseTrade/internal/handler/api"
	"PulseTrade/internal/hub"
	internalrepo "PulseTrade/internal/repository"
	qcache "PulseTrade/internal/service/cache"
	"PulseTrade/internal/service/fyers"
	"PulseTrade/internal/service/risk"
	"PulseTrade/internal/usecase"
	pkgch "PulseTrade/pkg/clickhouse"
	"PulseTrade/pkg/config"
	xhttp "PulseTrade/pkg/http"
	pkgkafka "PulseTrade/pkg/kafka"
	applogger "PulseTrade/pkg/logger"
	"PulseTrade/pkg/metrics"
	"PulseTrade/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHub creates the websocket connection hub.
func ProvideHub(log *applogger.Logger, m repository.Metrics) *hub.Hub {
	return hub.New(log, m)
}

// ProvideQuoteCache creates the shared TTL quote cache.
func ProvideQuoteCache(cfg *config.Config) *qcache.QuoteCache {
	return qcache.NewQuoteCache(cfg.Market.QuoteCacheTTL)
}

// ProvideMarketDataProvider creates the Fyers quote client, wrapped with
// the degraded-data fallback when one is configured.
func ProvideMarketDataProvider(cfg *config.Config, log *applogger.Logger) repository.MarketDataProvider {
	primary := fyers.New(cfg.Fyers.AppID, cfg.Fyers.AccessToken, cfg.Fyers.BaseURL,
		fyers.WithTimeout(cfg.Fyers.RequestTimeout),
		fyers.WithMaxRPS(cfg.Fyers.MaxRPS),
	)
	if !cfg.Market.FallbackEnabled || cfg.Fyers.FallbackBaseURL == "" {
		return primary
	}
	secondary := fyers.New(cfg.Fyers.AppID, cfg.Fyers.AccessToken, cfg.Fyers.FallbackBaseURL,
		fyers.WithTimeout(cfg.Fyers.RequestTimeout),
	)
	return fyers.NewFallbackProvider(primary, secondary, log)
}

// ProvideStrategyStore creates the Redis-backed strategy registry and
// seeds it with the configured definitions.
func ProvideStrategyStore(cfg *config.Config) (*internalrepo.RedisStrategyStore, error) {
	store, err := internalrepo.NewRedisStrategyStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("strategy store: %w", err)
	}

	seed := make([]*models.Strategy, 0, len(cfg.Strategy.Definitions))
	for _, d := range cfg.Strategy.Definitions {
		status := models.StrategyStatus(d.Status)
		if status == "" {
			status = models.StrategyActive
		}
		seed = append(seed, &models.Strategy{
			ID:     d.ID,
			Symbol: d.Symbol,
			Type:   models.StrategyType(d.Type),
			Params: json.RawMessage(d.Params),
			Status: status,
		})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Seed(ctx, seed); err != nil {
		return nil, fmt.Errorf("strategy seed: %w", err)
	}
	return store, nil
}

// ProvideTradingClient creates the Fyers order/funds client.
func ProvideTradingClient(cfg *config.Config) *fyers.TradingClient {
	return fyers.NewTrading(cfg.Fyers.AppID, cfg.Fyers.AccessToken, cfg.Fyers.BaseURL,
		cfg.Fyers.RequestTimeout)
}

// ProvideRiskGate creates the risk gate from the configured limits.
func ProvideRiskGate(cfg *config.Config) *risk.Gate {
	return risk.NewGate(risk.Limits{
		MaxPositionSize: cfg.Risk.MaxPositionSize,
		MaxRiskPercent:  cfg.Risk.MaxRiskPercent,
		DailyLossLimit:  cfg.Risk.DailyLossLimit,
	})
}

// ProvideAlertManager creates the price alert manager and seeds the
// configured alerts.
func ProvideAlertManager(h *hub.Hub, log *applogger.Logger, cfg *config.Config) (*usecase.AlertManager, error) {
	m := usecase.NewAlertManager(h, log)
	for _, a := range cfg.Alerts {
		if _, err := m.Add(a.Symbol, models.AlertDirection(a.Direction), a.Target, a.Message); err != nil {
			return nil, fmt.Errorf("seed alert for %s: %w", a.Symbol, err)
		}
	}
	return m, nil
}

// ProvideQuoteHistory creates the ClickHouse history sink, or nil when
// history is disabled.
func ProvideQuoteHistory(cfg *config.Config) (repository.QuoteHistory, error) {
	if !cfg.Market.HistoryEnabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	history, err := internalrepo.NewClickHouseQuoteHistory(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("quote history: %w", err)
	}
	return history, nil
}

// ProvideSignalPublisher creates the Kafka verdict publisher, or nil when
// Kafka is disabled.
func ProvideSignalPublisher(cfg *config.Config) (repository.SignalPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	topic := cfg.Kafka.SignalTopic
	if topic == "" {
		topic = "pulsetrade.signal-verdicts"
	}
	pub, err := internalrepo.NewKafkaSignalPublisher(cfg.Kafka.Brokers, topic,
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("signal publisher: %w", err)
	}
	return pub, nil
}

// ProvidePoller creates the market data poller.
func ProvidePoller(
	h *hub.Hub,
	provider repository.MarketDataProvider,
	cache *qcache.QuoteCache,
	store *internalrepo.RedisStrategyStore,
	history repository.QuoteHistory,
	alerts *usecase.AlertManager,
	m repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Poller {
	opts := []usecase.PollerOption{
		usecase.WithAlerts(alerts),
		usecase.WithDefaultSymbols(cfg.Market.Symbols),
		usecase.WithMaxConcurrentFetch(cfg.Market.MaxConcurrentFetch),
	}
	if history != nil {
		opts = append(opts, usecase.WithHistory(history))
	}
	return usecase.NewPoller(h, provider, cache, store, m, log, cfg.Market.PollInterval, opts...)
}

// ProvideScheduler creates the strategy scheduler. The trading client
// serves both the order gateway and the account snapshot roles.
func ProvideScheduler(
	store *internalrepo.RedisStrategyStore,
	poller *usecase.Poller,
	gate *risk.Gate,
	trading *fyers.TradingClient,
	publisher repository.SignalPublisher,
	m repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Scheduler {
	opts := []usecase.SchedulerOption{
		usecase.WithExecTimeout(cfg.Strategy.ExecTimeout),
		usecase.WithFailureThreshold(cfg.Strategy.FailureThreshold),
	}
	if publisher != nil {
		opts = append(opts, usecase.WithSignalPublisher(publisher))
	}
	return usecase.NewScheduler(store, poller, gate, trading, trading, m, log,
		cfg.Strategy.TickInterval, opts...)
}

// ProvideHandler creates the HTTP/websocket handler.
func ProvideHandler(
	log *applogger.Logger,
	h *hub.Hub,
	poller *usecase.Poller,
	alerts *usecase.AlertManager,
	history repository.QuoteHistory,
) xhttp.Handler {
	return api.NewHandler(log, h, poller, alerts, history)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	h *hub.Hub,
	poller *usecase.Poller,
	scheduler *usecase.Scheduler,
	handler xhttp.Handler,
	alerts *usecase.AlertManager,
	store *internalrepo.RedisStrategyStore,
	history repository.QuoteHistory,
	publisher repository.SignalPublisher,
) *server.App {
	app := server.New(cfg, log, h, poller, scheduler, alerts, handler)
	app.SetStore(store)
	if history != nil {
		app.SetHistory(history)
	}
	if publisher != nil {
		app.SetPublisher(publisher)
	}
	return app
}
