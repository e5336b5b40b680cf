package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/orchestrator"
)

// InstrumentedCluster decorates a cluster with latency metrics and spans.
type InstrumentedCluster struct {
	next orchestrator.Cluster
	p    *Provider
}

// WrapCluster returns next with instrumentation.
func (p *Provider) WrapCluster(next orchestrator.Cluster) *InstrumentedCluster {
	return &InstrumentedCluster{next: next, p: p}
}

func (c *InstrumentedCluster) do(ctx context.Context, op, index string, fn func(context.Context) error) error {
	ctx, span := c.p.StartSpan(ctx, "cluster."+op, attribute.String("index.name", index))
	start := time.Now()
	err := fn(ctx)
	c.p.observe(op, start, err)
	EndSpan(span, err)
	return err
}

func (c *InstrumentedCluster) ServerVersion(ctx context.Context) (string, error) {
	var v string
	err := c.do(ctx, "version", "", func(ctx context.Context) error {
		var err error
		v, err = c.next.ServerVersion(ctx)
		return err
	})
	return v, err
}

func (c *InstrumentedCluster) IndexExists(ctx context.Context, index string) (bool, error) {
	var ok bool
	err := c.do(ctx, "exists", index, func(ctx context.Context) error {
		var err error
		ok, err = c.next.IndexExists(ctx, index)
		return err
	})
	return ok, err
}

func (c *InstrumentedCluster) CreateIndex(ctx context.Context, index string, body map[string]any) (bool, error) {
	var created bool
	err := c.do(ctx, "create", index, func(ctx context.Context) error {
		var err error
		created, err = c.next.CreateIndex(ctx, index, body)
		return err
	})
	return created, err
}

func (c *InstrumentedCluster) PutMapping(ctx context.Context, index string, mapping map[string]any) error {
	return c.do(ctx, "put_mapping", index, func(ctx context.Context) error {
		return c.next.PutMapping(ctx, index, mapping)
	})
}

func (c *InstrumentedCluster) CloseIndex(ctx context.Context, index string) error {
	return c.do(ctx, "close", index, func(ctx context.Context) error {
		return c.next.CloseIndex(ctx, index)
	})
}

func (c *InstrumentedCluster) OpenIndex(ctx context.Context, index string) error {
	return c.do(ctx, "open", index, func(ctx context.Context) error {
		return c.next.OpenIndex(ctx, index)
	})
}

func (c *InstrumentedCluster) PutSettings(ctx context.Context, index string, settings map[string]any) error {
	return c.do(ctx, "put_settings", index, func(ctx context.Context) error {
		return c.next.PutSettings(ctx, index, settings)
	})
}

func (c *InstrumentedCluster) DeleteIndex(ctx context.Context, index string) error {
	return c.do(ctx, "delete", index, func(ctx context.Context) error {
		return c.next.DeleteIndex(ctx, index)
	})
}

// InstrumentedGate counts health waits and their duration.
type InstrumentedGate struct {
	next orchestrator.HealthGate
	p    *Provider
}

// WrapGate returns next with instrumentation.
func (p *Provider) WrapGate(next orchestrator.HealthGate) *InstrumentedGate {
	return &InstrumentedGate{next: next, p: p}
}

func (g *InstrumentedGate) WaitForStatus(ctx context.Context, index string, timeout time.Duration) (domain.HealthStatus, error) {
	ctx, span := g.p.StartSpan(ctx, "health.wait",
		attribute.String("index.name", index),
		attribute.String("health.timeout", timeout.String()),
	)
	start := time.Now()
	status, err := g.next.WaitForStatus(ctx, index, timeout)
	g.p.Metrics.HealthWaitTime.Observe(time.Since(start).Seconds())
	g.p.Metrics.HealthWaits.WithLabelValues(outcome(err)).Inc()
	span.SetAttributes(attribute.String("health.status", status.String()))
	EndSpan(span, err)
	return status, err
}

var (
	_ orchestrator.Cluster    = (*InstrumentedCluster)(nil)
	_ orchestrator.HealthGate = (*InstrumentedGate)(nil)
)
