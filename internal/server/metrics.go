package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/go-g2p/internal/g2p"
)

const namespace = "g2p"

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
	tokens   *prometheus.CounterVec
	inFlight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Count of HTTP requests by path and status code.",
			},
			[]string{"path", "code"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "convert_duration_seconds",
				Help:      "Time spent converting one request's text to phonemes.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
			},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_total",
				Help:      "Count of converted tokens by final state.",
			},
			[]string{"state"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "conversions_in_flight",
				Help:      "Number of conversions currently holding a worker slot.",
			},
		),
	}

	reg.MustRegister(m.requests, m.duration, m.tokens, m.inFlight)

	return m
}

func (m *Metrics) recordRequest(path string, code int) {
	m.requests.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

func (m *Metrics) recordConversion(res g2p.Result, elapsed time.Duration) {
	m.duration.Observe(elapsed.Seconds())
	for _, t := range res.Tokens {
		m.tokens.WithLabelValues(t.State.String()).Inc()
	}
}
