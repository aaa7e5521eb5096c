// Package metrics exposes Prometheus collectors for the diagnosis service.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agenthands/leafcheck/internal/core/model"
	"github.com/agenthands/leafcheck/internal/llm"
)

type Metrics struct {
	requests       *prometheus.CounterVec
	duration       prometheus.Histogram
	conflictSize   prometheus.Histogram
	arbitrations   prometheus.Counter
	producerErrors *prometheus.CounterVec
	llmCalls       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leafcheck_requests_total",
				Help: "Total number of analyze requests by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leafcheck_request_duration_seconds",
				Help:    "Analyze request duration in seconds",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 180},
			},
		),
		conflictSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leafcheck_conflict_set_size",
				Help:    "Number of opinions in the conflict set",
				Buckets: []float64{1, 2, 3, 4, 5, 6},
			},
		),
		arbitrations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "leafcheck_arbitrations_total",
				Help: "Total number of requests resolved by the arbiter",
			},
		),
		producerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leafcheck_producer_errors_total",
				Help: "Total number of text producer failures",
			},
			[]string{"producer"},
		),
		llmCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leafcheck_llm_calls_total",
				Help: "Total number of LLM API calls",
			},
			[]string{"role", "status"},
		),
	}

	reg.MustRegister(m.requests, m.duration, m.conflictSize, m.arbitrations, m.producerErrors, m.llmCalls)
	return m
}

func (m *Metrics) ObserveRequest(outcome string, elapsed time.Duration) {
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveConflicts(size int, arbitrated bool) {
	m.conflictSize.Observe(float64(size))
	if arbitrated {
		m.arbitrations.Inc()
	}
}

func (m *Metrics) ObserveProducerError(producer string) {
	m.producerErrors.WithLabelValues(producer).Inc()
}

func (m *Metrics) observeCall(role string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.llmCalls.WithLabelValues(role, status).Inc()
}

// InstrumentClient counts every call made through c under role.
func (m *Metrics) InstrumentClient(role string, c llm.Client) llm.Client {
	return &instrumentedClient{Client: c, role: role, metrics: m}
}

type instrumentedClient struct {
	llm.Client
	role    string
	metrics *Metrics
}

func (c *instrumentedClient) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := c.Client.Generate(ctx, prompt)
	c.metrics.observeCall(c.role, err)
	return out, err
}

func (c *instrumentedClient) GenerateWithImage(ctx context.Context, prompt string, image model.Image) (string, error) {
	out, err := c.Client.GenerateWithImage(ctx, prompt, image)
	c.metrics.observeCall(c.role, err)
	return out, err
}
