package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"PulseTrade/internal/domain/models"
	drepo "PulseTrade/internal/domain/repository"
	"PulseTrade/internal/hub"
	qcache "PulseTrade/internal/service/cache"
	"PulseTrade/pkg/logger"
)

// Poller periodically fetches quotes for every hot symbol and broadcasts
// them through the hub. One slow or failing symbol never blocks the rest:
// fetches run concurrently under a bounded semaphore, and a per-symbol
// failure is logged and skipped until the next tick retries it naturally.
type Poller struct {
	hub      *hub.Hub
	provider drepo.MarketDataProvider
	cache    *qcache.QuoteCache
	store    drepo.StrategyStore
	history  drepo.QuoteHistory // optional
	alerts   *AlertManager      // optional
	metrics  drepo.Metrics
	log      *logger.Logger

	interval time.Duration
	maxConc  int
	defaults []string // symbols that stream regardless of subscribers

	lastFetchUnix int64 // unix seconds of the last successful provider fetch
	wg            sync.WaitGroup
}

type PollerOption func(*Poller)

// WithHistory adds a persistent sink for broadcast quotes.
func WithHistory(h drepo.QuoteHistory) PollerOption {
	return func(p *Poller) { p.history = h }
}

// WithAlerts checks price alerts against every fresh quote.
func WithAlerts(a *AlertManager) PollerOption {
	return func(p *Poller) { p.alerts = a }
}

// WithDefaultSymbols keeps the given symbols hot on every tick, so the
// core indices stream before anyone subscribes or defines a strategy.
func WithDefaultSymbols(symbols []string) PollerOption {
	return func(p *Poller) { p.defaults = symbols }
}

// WithMaxConcurrentFetch bounds provider fetches in flight per tick.
func WithMaxConcurrentFetch(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.maxConc = n
		}
	}
}

func NewPoller(
	h *hub.Hub,
	provider drepo.MarketDataProvider,
	cache *qcache.QuoteCache,
	store drepo.StrategyStore,
	metrics drepo.Metrics,
	log *logger.Logger,
	interval time.Duration,
	opts ...PollerOption,
) *Poller {
	p := &Poller{
		hub:      h,
		provider: provider,
		cache:    cache,
		store:    store,
		metrics:  metrics,
		log:      log,
		interval: interval,
		maxConc:  8,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run blocks until ctx is cancelled, ticking at the configured interval.
// In-flight fetches are abandoned on cancellation.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info("poller started", logger.Duration("interval", p.interval))
	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()
			p.log.Info("poller stopped")
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick runs one polling round: resolve hot symbols, serve from cache where
// fresh, fetch misses concurrently, then broadcast. An empty hot set is a
// no-op.
func (p *Poller) Tick(ctx context.Context) {
	start := time.Now()

	hot := p.hub.HotSymbols(append(p.activeStrategySymbols(ctx), p.defaults...))
	if len(hot) == 0 {
		return
	}

	var missing []string
	for _, sym := range hot {
		if q, ok := p.cache.Get(sym); ok {
			p.metrics.RecordQuoteFetch("cache", true)
			p.publish(ctx, q)
			continue
		}
		p.metrics.RecordQuoteFetch("cache", false)
		missing = append(missing, sym)
	}

	sem := make(chan struct{}, p.maxConc)
	for _, sym := range missing {
		select {
		case <-ctx.Done():
			return
		case sem <- struct{}{}:
		}
		p.wg.Add(1)
		go func(symbol string) {
			defer p.wg.Done()
			defer func() { <-sem }()
			p.fetchAndPublish(ctx, symbol)
		}(sym)
	}
	p.wg.Wait()

	p.metrics.RecordLatency("poll_tick", time.Since(start).Seconds())
}

func (p *Poller) fetchAndPublish(ctx context.Context, symbol string) {
	quotes, err := p.provider.FetchQuotes(ctx, []string{symbol})
	if err != nil {
		p.metrics.RecordError("provider_fetch")
		p.log.Warn("quote fetch failed, skipping symbol this tick",
			logger.String("symbol", symbol), logger.Error(err))
		return
	}
	q, ok := quotes[symbol]
	if !ok {
		p.metrics.RecordError("provider_missing_symbol")
		p.log.Warn("provider returned no quote", logger.String("symbol", symbol))
		return
	}
	p.metrics.RecordQuoteFetch("provider", false)
	atomic.StoreInt64(&p.lastFetchUnix, time.Now().Unix())
	p.cache.Put(symbol, q)
	p.publish(ctx, q)
}

// LastProviderFetch reports when the provider last answered a fetch. The
// zero time means no fetch has succeeded yet.
func (p *Poller) LastProviderFetch() time.Time {
	ts := atomic.LoadInt64(&p.lastFetchUnix)
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}

func (p *Poller) publish(ctx context.Context, q *models.Quote) {
	msg, err := models.NewMarketDataMessage(q)
	if err != nil {
		p.metrics.RecordError("marshal_quote")
		return
	}
	p.hub.Broadcast(q.Symbol, msg)
	p.metrics.RecordLastPrice(q.Symbol, q.LTP)

	if p.alerts != nil {
		p.alerts.Check(q)
	}
	if p.history != nil {
		if err := p.history.Store(ctx, q); err != nil {
			p.metrics.RecordError("history_store")
			p.log.Warn("quote history store failed",
				logger.String("symbol", q.Symbol), logger.Error(err))
		}
	}
}

// Quote serves the scheduler's quote lookups through the same cache/TTL
// path the poller uses, so strategies never observe stale data past TTL.
func (p *Poller) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	if q, ok := p.cache.Get(symbol); ok {
		p.metrics.RecordQuoteFetch("cache", true)
		return q, nil
	}
	quotes, err := p.provider.FetchQuotes(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	q, ok := quotes[symbol]
	if !ok {
		return nil, nil
	}
	atomic.StoreInt64(&p.lastFetchUnix, time.Now().Unix())
	p.cache.Put(symbol, q)
	return q, nil
}

func (p *Poller) activeStrategySymbols(ctx context.Context) []string {
	strategies, err := p.store.ListActive(ctx)
	if err != nil {
		p.metrics.RecordError("strategy_list")
		p.log.Warn("active strategy lookup failed", logger.Error(err))
		return nil
	}
	syms := make([]string, 0, len(strategies))
	for _, s := range strategies {
		syms = append(syms, s.Symbol)
	}
	return syms
}
