// Package telemetry exports Prometheus metrics and OpenTelemetry spans for
// cluster operations and administrative actions.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
)

const (
	namespace  = "index_orchestrator"
	tracerName = "github.com/jonesrussell/north-cloud/index-orchestrator"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeTimeout  = "timeout"
	OutcomeError    = "error"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	ClusterRequests *prometheus.CounterVec
	ClusterDuration *prometheus.HistogramVec
	HealthWaits     *prometheus.CounterVec
	HealthWaitTime  prometheus.Histogram
	AdminActions    *prometheus.CounterVec
	ProvisionPairs  *prometheus.CounterVec
}

// Provider bundles metrics, their registry and a tracer.
type Provider struct {
	Tracer   trace.Tracer
	Metrics  *Metrics
	registry *prometheus.Registry
}

// Option configures a Provider.
type Option func(*providerOptions)

type providerOptions struct {
	tracerProvider trace.TracerProvider
}

// WithTracerProvider takes spans from tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *providerOptions) { o.tracerProvider = tp }
}

// NewProvider registers every collector on a private registry so tests and
// multiple providers never collide. Spans go to the global tracer provider
// unless WithTracerProvider is given.
func NewProvider(opts ...Option) *Provider {
	po := providerOptions{}
	for _, opt := range opts {
		opt(&po)
	}
	if po.tracerProvider == nil {
		po.tracerProvider = otel.GetTracerProvider()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	f := promauto.With(reg)
	m := &Metrics{
		ClusterRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cluster_requests_total",
			Help:      "Cluster requests by operation and outcome",
		}, []string{"op", "outcome"}),
		ClusterDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cluster_request_duration_seconds",
			Help:      "Cluster request latency",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		HealthWaits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "health_waits_total",
			Help:      "Health gate waits by outcome",
		}, []string{"outcome"}),
		HealthWaitTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "health_wait_duration_seconds",
			Help:      "Time spent waiting for index health",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		AdminActions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_actions_total",
			Help:      "Administrative actions by action and status",
		}, []string{"action", "status"}),
		ProvisionPairs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provision_pairs_total",
			Help:      "Provisioned (language, configuration) pairs by outcome",
		}, []string{"outcome"}),
	}

	return &Provider{
		Tracer:   po.tracerProvider.Tracer(tracerName),
		Metrics:  m,
		registry: reg,
	}
}

// Handler serves the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Gatherer exposes the registry to tests.
func (p *Provider) Gatherer() prometheus.Gatherer {
	return p.registry
}

// RecordAdminAction counts one finished administrative action.
func (p *Provider) RecordAdminAction(action, status string) {
	p.Metrics.AdminActions.WithLabelValues(action, status).Inc()
}

// RecordReport counts pair outcomes of a provisioning run.
func (p *Provider) RecordReport(report *domain.Report) {
	if report == nil {
		return
	}
	for _, pr := range report.Pairs {
		switch {
		case pr.Failed():
			p.Metrics.ProvisionPairs.WithLabelValues(OutcomeError).Inc()
		case len(pr.Warnings) > 0:
			p.Metrics.ProvisionPairs.WithLabelValues("warning").Inc()
		default:
			p.Metrics.ProvisionPairs.WithLabelValues(OutcomeSuccess).Inc()
		}
	}
}

// StartSpan starts a span for an administrative action. Caller ends it.
//
//nolint:spancheck // span is returned to caller who manages its lifecycle
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func outcome(err error) string {
	var timeout *domain.HealthTimeoutError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrIndexNotFound):
		return OutcomeNotFound
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

func (p *Provider) observe(op string, start time.Time, err error) {
	p.Metrics.ClusterDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	p.Metrics.ClusterRequests.WithLabelValues(op, outcome(err)).Inc()
}
