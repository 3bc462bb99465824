// Package metrics exposes Prometheus metrics for transcript acquisition.
package metrics

import (
	"context"
	"time"

	"github.com/muratoffalex/ytscribe/internal/transcript"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ytscribe"

type Metrics struct {
	// Pipeline metrics
	AttemptsTotal   *prometheus.CounterVec
	AttemptDuration *prometheus.HistogramVec
	StepsTotal      *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	RequestsThrottled prometheus.Counter
	RequestsInFlight  prometheus.Gauge
}

// New registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_attempts_total",
			Help:      "Acquisition attempts by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		AttemptDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "strategy_duration_seconds",
			Help:      "Duration of acquisition attempts in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"strategy"}),
		StepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_steps_total",
			Help:      "Client profiles and mirrors tried inside a strategy, by outcome",
		}, []string{"strategy", "step", "outcome"}),

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Transcript requests by outcome",
		}, []string{"outcome"}),
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of transcript requests in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600, 900},
		}),
		RequestsThrottled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_throttled_total",
			Help:      "Transcript requests rejected by the rate limiter",
		}),
		RequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Transcript requests currently being processed",
		}),
	}
}

// RecordAttempts counts every attempt of a finished run under its kind.
func (m *Metrics) RecordAttempts(_ context.Context, _, _ string, attempts []transcript.Attempt) error {
	for _, a := range attempts {
		m.AttemptsTotal.WithLabelValues(a.Strategy, outcome(a)).Inc()
		m.AttemptDuration.WithLabelValues(a.Strategy).Observe(float64(a.DurationMs) / 1000)
		for _, step := range a.Steps {
			m.StepsTotal.WithLabelValues(a.Strategy, step.Strategy, outcome(step)).Inc()
		}
	}
	return nil
}

func (m *Metrics) RecordRequest(err error, elapsed time.Duration) {
	result := "success"
	if err != nil {
		result = transcript.KindOf(err)
	}
	m.RequestsTotal.WithLabelValues(result).Inc()
	m.RequestDuration.Observe(elapsed.Seconds())
}

func outcome(a transcript.Attempt) string {
	if a.Succeeded {
		return "success"
	}
	if a.Kind == "" {
		return transcript.KindUnknown
	}
	return a.Kind
}
