package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal       *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	errorsTotal      *prometheus.CounterVec
	reconnectsTotal  prometheus.Counter
	settlementsTotal *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optionpulse_ticks_total",
				Help: "Total number of normalized ticks processed",
			},
			[]string{"symbol"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "optionpulse_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optionpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		reconnectsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "optionpulse_feed_reconnects_total",
				Help: "Total number of successful feed reconnections",
			},
		),
		settlementsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optionpulse_settlements_total",
				Help: "Total number of settled trades by outcome",
			},
			[]string{"outcome"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optionpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTick records one processed tick and the latest price.
func (r *Recorder) RecordTick(symbol string, price float64) {
	r.ticksTotal.WithLabelValues(symbol).Inc()
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordReconnect records a successful feed reconnection.
func (r *Recorder) RecordReconnect() {
	r.reconnectsTotal.Inc()
}

// RecordSettlement records a settled trade by outcome.
func (r *Recorder) RecordSettlement(outcome string) {
	r.settlementsTotal.WithLabelValues(outcome).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
