package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	broadcasts  *prometheus.CounterVec
	quoteFetch  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
	signals     *prometheus.CounterVec
	connections prometheus.Gauge
	hotSymbols  prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		broadcasts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsetrade_broadcasts_total",
				Help: "Total quote broadcasts per symbol",
			},
			[]string{"symbol"},
		),
		quoteFetch: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsetrade_quote_fetches_total",
				Help: "Quote lookups by source and cache outcome",
			},
			[]string{"source", "outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsetrade_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pulsetrade_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulsetrade_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		signals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsetrade_signals_total",
				Help: "Strategy signals by risk verdict",
			},
			[]string{"outcome"},
		),
		connections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pulsetrade_ws_connections",
				Help: "Currently registered websocket connections",
			},
		),
		hotSymbols: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pulsetrade_hot_symbols",
				Help: "Symbols currently polled",
			},
		),
	}
}

// RecordBroadcast records a broadcast for a symbol.
func (r *Recorder) RecordBroadcast(symbol string) {
	r.broadcasts.WithLabelValues(symbol).Inc()
}

// RecordQuoteFetch records a quote lookup; hit means served from cache.
func (r *Recorder) RecordQuoteFetch(source string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.quoteFetch.WithLabelValues(source, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordSignal records a signal outcome (approved, rejected, submitted, failed).
func (r *Recorder) RecordSignal(outcome string) {
	r.signals.WithLabelValues(outcome).Inc()
}

// SetConnections tracks the live connection count.
func (r *Recorder) SetConnections(n int) {
	r.connections.Set(float64(n))
}

// SetHotSymbols tracks the hot symbol count.
func (r *Recorder) SetHotSymbols(n int) {
	r.hotSymbols.Set(float64(n))
}
