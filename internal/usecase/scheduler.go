package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PulseTrade/internal/domain/models"
	drepo "PulseTrade/internal/domain/repository"
	"PulseTrade/internal/service/risk"
	"PulseTrade/internal/strategy"
	"PulseTrade/pkg/logger"
)

// QuoteSource serves the scheduler's market data lookups. The poller
// implements it on top of the shared quote cache.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
}

// Scheduler periodically evaluates active strategies against fresh quotes
// and routes any resulting signal through the risk gate to the order
// gateway. Every execution is isolated: panics are recovered, a time
// budget applies, and repeated failures flip the strategy to error status
// instead of crashing the loop.
type Scheduler struct {
	store     drepo.StrategyStore
	quotes    QuoteSource
	gate      *risk.Gate
	account   drepo.AccountService
	orders    drepo.OrderGateway
	publisher drepo.SignalPublisher // optional audit trail
	metrics   drepo.Metrics
	log       *logger.Logger

	interval         time.Duration
	execTimeout      time.Duration
	failureThreshold int

	mu       sync.Mutex
	inflight map[string]struct{}
	failures map[string]int

	wg sync.WaitGroup
}

type SchedulerOption func(*Scheduler)

// WithSignalPublisher records every verdict on the audit trail.
func WithSignalPublisher(p drepo.SignalPublisher) SchedulerOption {
	return func(s *Scheduler) { s.publisher = p }
}

// WithExecTimeout bounds a single strategy evaluation.
func WithExecTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.execTimeout = d
		}
	}
}

// WithFailureThreshold sets how many consecutive failures flip a strategy
// to error status.
func WithFailureThreshold(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.failureThreshold = n
		}
	}
}

func NewScheduler(
	store drepo.StrategyStore,
	quotes QuoteSource,
	gate *risk.Gate,
	account drepo.AccountService,
	orders drepo.OrderGateway,
	metrics drepo.Metrics,
	log *logger.Logger,
	interval time.Duration,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		store:            store,
		quotes:           quotes,
		gate:             gate,
		account:          account,
		orders:           orders,
		metrics:          metrics,
		log:              log,
		interval:         interval,
		execTimeout:      2 * time.Second,
		failureThreshold: 3,
		inflight:         make(map[string]struct{}),
		failures:         make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until ctx is cancelled. In-flight strategy executions get a
// grace period to finish before being abandoned.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("strategy scheduler started", logger.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.waitWithGrace(5 * time.Second)
			s.log.Info("strategy scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick evaluates every active strategy once. Strategies already in flight
// from a previous tick are skipped, enforcing at most one execution per
// strategy id at any time.
func (s *Scheduler) Tick(ctx context.Context) {
	strategies, err := s.store.ListActive(ctx)
	if err != nil {
		s.metrics.RecordError("strategy_list")
		s.log.Warn("strategy load failed, skipping tick", logger.Error(err))
		return
	}

	for _, st := range strategies {
		if !s.begin(st.ID) {
			continue
		}
		s.wg.Add(1)
		go func(st *models.Strategy) {
			defer s.wg.Done()
			defer s.end(st.ID)
			s.execute(ctx, st)
		}(st)
	}
	s.wg.Wait()
}

func (s *Scheduler) begin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Scheduler) end(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

func (s *Scheduler) execute(ctx context.Context, st *models.Strategy) {
	sig, err := s.evaluate(ctx, st)
	if err != nil {
		s.recordFailure(ctx, st, err)
		return
	}
	s.resetFailures(st.ID)

	if sig == nil {
		return
	}
	s.handleSignal(ctx, sig)
}

// evaluate runs the strategy's rule under its time budget with panic
// containment. A timeout counts as a failure for this tick.
func (s *Scheduler) evaluate(ctx context.Context, st *models.Strategy) (*models.Signal, error) {
	ev, err := strategy.ForStrategy(st)
	if err != nil {
		return nil, err
	}

	q, err := s.quotes.Quote(ctx, st.Symbol)
	if err != nil {
		return nil, fmt.Errorf("quote for %s: %w", st.Symbol, err)
	}

	execCtx, cancel := context.WithTimeout(ctx, s.execTimeout)
	defer cancel()

	type result struct {
		sig *models.Signal
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{nil, fmt.Errorf("strategy panic: %v", r)}
			}
		}()
		sig, err := ev.Evaluate(execCtx, q)
		ch <- result{sig, err}
	}()

	select {
	case <-execCtx.Done():
		return nil, fmt.Errorf("strategy %s: %w", st.ID, execCtx.Err())
	case r := <-ch:
		return r.sig, r.err
	}
}

func (s *Scheduler) recordFailure(ctx context.Context, st *models.Strategy, err error) {
	s.metrics.RecordError("strategy_exec")

	s.mu.Lock()
	s.failures[st.ID]++
	count := s.failures[st.ID]
	s.mu.Unlock()

	s.log.Warn("strategy execution failed",
		logger.String("strategy", st.ID),
		logger.Int("consecutive_failures", count),
		logger.Error(err))

	if count < s.failureThreshold {
		return
	}
	if err := s.store.SetStatus(ctx, st.ID, models.StrategyError); err != nil {
		s.metrics.RecordError("strategy_status")
		s.log.Error("failed to mark strategy as errored",
			logger.String("strategy", st.ID), logger.Error(err))
		return
	}
	s.resetFailures(st.ID)
	s.log.Error("strategy disabled after repeated failures",
		logger.String("strategy", st.ID),
		logger.Int("threshold", s.failureThreshold))
}

func (s *Scheduler) resetFailures(id string) {
	s.mu.Lock()
	delete(s.failures, id)
	s.mu.Unlock()
}

// handleSignal walks a signal through its lifecycle: validate against a
// fresh account snapshot, then submit on approval or discard on rejection.
func (s *Scheduler) handleSignal(ctx context.Context, sig *models.Signal) {
	acct, err := s.account.Snapshot(ctx)
	if err != nil {
		s.metrics.RecordError("account_snapshot")
		s.log.Warn("account snapshot failed, discarding signal",
			logger.String("strategy", sig.StrategyID), logger.Error(err))
		return
	}

	verdict := s.gate.Validate(sig, acct)
	s.publishVerdict(ctx, sig, verdict)

	if !verdict.Approved {
		// expected business outcome, not an error
		s.metrics.RecordSignal("rejected")
		s.log.Info("signal rejected by risk gate",
			logger.String("strategy", sig.StrategyID),
			logger.String("symbol", sig.Symbol),
			logger.String("reason", verdict.Reason))
		return
	}
	s.metrics.RecordSignal("approved")

	order, err := s.orders.PlaceOrder(ctx, &models.OrderRequest{
		Symbol:    sig.Symbol,
		Side:      sig.Side,
		Quantity:  sig.Quantity,
		Price:     sig.Price,
		OrderType: sig.OrderType,
	})
	if err != nil {
		s.metrics.RecordSignal("failed")
		s.log.Error("order placement failed",
			logger.String("strategy", sig.StrategyID),
			logger.String("symbol", sig.Symbol), logger.Error(err))
		return
	}
	if order.Status == models.OrderRejected {
		s.metrics.RecordSignal("broker_rejected")
		s.log.Warn("order rejected by broker",
			logger.String("strategy", sig.StrategyID),
			logger.String("symbol", sig.Symbol),
			logger.String("reason", order.Reason))
		return
	}
	s.metrics.RecordSignal("submitted")
	s.log.Info("order submitted",
		logger.String("order", order.ID),
		logger.String("strategy", sig.StrategyID),
		logger.String("symbol", sig.Symbol),
		logger.Float64("quantity", sig.Quantity),
		logger.Float64("price", sig.Price))
}

func (s *Scheduler) publishVerdict(ctx context.Context, sig *models.Signal, v risk.Verdict) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishVerdict(ctx, sig, v.Approved, v.Reason); err != nil {
		s.metrics.RecordError("signal_publish")
		s.log.Warn("signal audit publish failed", logger.Error(err))
	}
}

func (s *Scheduler) waitWithGrace(grace time.Duration) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		s.log.Warn("abandoning in-flight strategy executions after grace period")
	}
}
