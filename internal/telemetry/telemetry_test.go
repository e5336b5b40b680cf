package telemetry_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/telemetry"
)

type stubCluster struct {
	err error
}

func (s stubCluster) ServerVersion(context.Context) (string, error)     { return "8.15.0", s.err }
func (s stubCluster) IndexExists(context.Context, string) (bool, error) { return true, s.err }
func (s stubCluster) CreateIndex(context.Context, string, map[string]any) (bool, error) {
	return true, s.err
}
func (s stubCluster) PutMapping(context.Context, string, map[string]any) error  { return s.err }
func (s stubCluster) CloseIndex(context.Context, string) error                  { return s.err }
func (s stubCluster) OpenIndex(context.Context, string) error                   { return s.err }
func (s stubCluster) PutSettings(context.Context, string, map[string]any) error { return s.err }
func (s stubCluster) DeleteIndex(context.Context, string) error                 { return s.err }

type stubGate struct {
	err error
}

func (g stubGate) WaitForStatus(context.Context, string, time.Duration) (domain.HealthStatus, error) {
	return domain.HealthYellow, g.err
}

func TestInstrumentedCluster_CountsOutcomes(t *testing.T) {
	p := telemetry.NewProvider()
	ctx := context.Background()

	ok := p.WrapCluster(stubCluster{})
	created, err := ok.CreateIndex(ctx, "content-en", nil)
	require.NoError(t, err)
	assert.True(t, created)
	v, err := ok.ServerVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "8.15.0", v)

	missing := p.WrapCluster(stubCluster{err: &domain.NotFoundError{Index: "content-en"}})
	require.ErrorIs(t, missing.DeleteIndex(ctx, "content-en"), domain.ErrIndexNotFound)

	broken := p.WrapCluster(stubCluster{err: errors.New("boom")})
	require.Error(t, broken.DeleteIndex(ctx, "content-no"))

	m := p.Metrics.ClusterRequests
	assert.InDelta(t, 1, testutil.ToFloat64(m.WithLabelValues("create", telemetry.OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.WithLabelValues("delete", telemetry.OutcomeNotFound)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.WithLabelValues("delete", telemetry.OutcomeError)), 0)
}

func TestInstrumentedGate_CountsTimeouts(t *testing.T) {
	p := telemetry.NewProvider()
	g := p.WrapGate(stubGate{err: &domain.HealthTimeoutError{Index: "content-en", LastStatus: domain.HealthRed}})

	status, err := g.WaitForStatus(context.Background(), "content-en", time.Second)
	require.Error(t, err)
	assert.Equal(t, domain.HealthYellow, status)
	assert.InDelta(t, 1, testutil.ToFloat64(p.Metrics.HealthWaits.WithLabelValues(telemetry.OutcomeTimeout)), 0)
}

func TestProvider_RecordReport(t *testing.T) {
	p := telemetry.NewProvider()
	p.RecordReport(&domain.Report{Pairs: []domain.PairResult{
		{Index: "content-en"},
		{Index: "content-no", Warnings: []string{"slow"}},
		{Index: "content-sv", Err: errors.New("boom")},
	}})
	p.RecordReport(nil)

	assert.InDelta(t, 1, testutil.ToFloat64(p.Metrics.ProvisionPairs.WithLabelValues(telemetry.OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.Metrics.ProvisionPairs.WithLabelValues("warning")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.Metrics.ProvisionPairs.WithLabelValues(telemetry.OutcomeError)), 0)
}

func TestProvider_Handler(t *testing.T) {
	p := telemetry.NewProvider()
	p.RecordAdminAction(domain.ActionProvision, domain.OperationSucceeded)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `index_orchestrator_admin_actions_total{action="provision",status="succeeded"} 1`)
}
