package admin_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/admin"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/jobs"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/naming"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/telemetry"
)

type fakeOrchestrator struct {
	report     *domain.Report
	provErr    error
	deleteErrs map[string]error
	tokErr     error
	deleted    []string
	tokenized  []string
}

func (f *fakeOrchestrator) Provision(context.Context, []domain.IndexConfig, []domain.Language) (*domain.Report, error) {
	return f.report, f.provErr
}

func (f *fakeOrchestrator) ChangeTokenizer(_ context.Context, index, tokenizer string) error {
	f.tokenized = append(f.tokenized, index+"="+tokenizer)
	return f.tokErr
}

func (f *fakeOrchestrator) DeleteIndex(_ context.Context, index string) error {
	f.deleted = append(f.deleted, index)
	return f.deleteErrs[index]
}

func (f *fakeOrchestrator) DeleteAll(ctx context.Context, indices []string) []domain.DeleteResult {
	out := make([]domain.DeleteResult, 0, len(indices))
	for _, idx := range indices {
		out = append(out, domain.DeleteResult{Index: idx, Err: f.DeleteIndex(ctx, idx)})
	}
	return out
}

type fakeView struct {
	indices  []domain.PhysicalIndex
	types    map[string]string
	nodesErr error
	listErr  error
}

func (v *fakeView) Health(context.Context, string) (domain.ClusterHealth, error) {
	return domain.ClusterHealth{ClusterName: "docker-cluster", Status: domain.HealthGreen, NumberOfNodes: 1}, nil
}

func (v *fakeView) Nodes(context.Context) ([]domain.Node, error) {
	if v.nodesErr != nil {
		return nil, v.nodesErr
	}
	return []domain.Node{{Name: "es01", Master: true}}, nil
}

func (v *fakeView) ListIndices(context.Context) ([]domain.PhysicalIndex, error) {
	return append([]domain.PhysicalIndex(nil), v.indices...), v.listErr
}

func (v *fakeView) MappingTypes(_ context.Context, indices ...string) (map[string]string, error) {
	out := map[string]string{}
	for _, idx := range indices {
		if t, ok := v.types[idx]; ok {
			out[idx] = t
		}
	}
	return out, nil
}

type fakeLanguages struct{}

func (fakeLanguages) Enabled() []domain.Language {
	return []domain.Language{{Code: "en", Name: "English"}, {Code: "no", Name: "Norwegian"}}
}

func (fakeLanguages) Codes() []string { return []string{"en", "no", "iv"} }

type recordingHistory struct {
	admin.NopHistory
	mu       sync.Mutex
	started  []domain.Operation
	statuses map[string]string
}

func (h *recordingHistory) Start(ctx context.Context, op *domain.Operation) error {
	_ = h.NopHistory.Start(ctx, op)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = append(h.started, *op)
	return nil
}

func (h *recordingHistory) Finish(_ context.Context, id, status string, _ error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.statuses == nil {
		h.statuses = map[string]string{}
	}
	h.statuses[id] = status
	return nil
}

type fakeJobs struct {
	started []string
	err     error
}

func (j *fakeJobs) Start(name string) error {
	j.started = append(j.started, name)
	return j.err
}

var configs = []domain.IndexConfig{
	{Name: "content", IsDefault: true},
	{Name: "catalog", Type: "Product"},
}

type fixture struct {
	orch    *fakeOrchestrator
	view    *fakeView
	history *recordingHistory
	jobs    *fakeJobs
	svc     *admin.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithTelemetry(t, telemetry.NewProvider())
}

func newFixtureWithTelemetry(t *testing.T, tel *telemetry.Provider) *fixture {
	t.Helper()
	f := &fixture{
		orch: &fakeOrchestrator{deleteErrs: map[string]error{}},
		view: &fakeView{
			indices: []domain.PhysicalIndex{
				{Name: "content-en", Health: domain.HealthGreen},
				{Name: "content-commerce-en", Health: domain.HealthGreen},
				{Name: "catalog-no", Health: domain.HealthYellow},
				{Name: "content-archive", Health: domain.HealthGreen},
				{Name: "logs-2026.01", Health: domain.HealthGreen},
			},
			types: map[string]string{"content-en": "IndexItem", "content-commerce-en": "IndexItem", "catalog-no": "Product"},
		},
		history: &recordingHistory{},
		jobs:    &fakeJobs{},
	}
	f.svc = admin.NewService(admin.Deps{
		Orchestrator: f.orch,
		Cluster:      f.view,
		Languages:    fakeLanguages{},
		Names:        naming.NewResolver("commerce"),
		Jobs:         f.jobs,
		History:      f.history,
		Telemetry:    tel,
		Logger:       infralogger.NewNop(),
	}, admin.Config{Indices: configs, IndexJobName: "Index content"})
	return f
}

func TestOverview_ManagedIndicesOrderedByTypeThenName(t *testing.T) {
	f := newFixture(t)

	ov := f.svc.Overview(context.Background())

	require.Empty(t, ov.Errors)
	assert.Equal(t, domain.HealthGreen, ov.Cluster.Status)
	require.Len(t, ov.Nodes, 1)

	names := make([]string, 0, len(ov.Indices))
	for _, idx := range ov.Indices {
		names = append(names, idx.Name)
	}
	assert.Equal(t, []string{"content-commerce-en", "content-en", "catalog-no"}, names)
	assert.True(t, ov.Indices[0].Commerce)
	assert.Equal(t, "en", ov.Indices[0].Language)
	assert.Equal(t, "Product", ov.Indices[2].Type)
	assert.Equal(t, "catalog", ov.Indices[2].Logical)
}

func TestOverview_PartialFailure(t *testing.T) {
	f := newFixture(t)
	f.view.nodesErr = errors.New("cat nodes failed")

	ov := f.svc.Overview(context.Background())

	require.Len(t, ov.Errors, 1)
	assert.Contains(t, ov.Errors[0], "nodes")
	assert.Len(t, ov.Indices, 3)
}

func TestProvisionAll(t *testing.T) {
	tests := []struct {
		name       string
		report     *domain.Report
		provErr    error
		wantStatus string
		wantErr    bool
	}{
		{
			name:       "all pairs succeed",
			report:     &domain.Report{Pairs: []domain.PairResult{{Index: "content-en"}, {Index: "content-no"}}},
			wantStatus: domain.OperationSucceeded,
		},
		{
			name: "some pairs fail",
			report: &domain.Report{Pairs: []domain.PairResult{
				{Index: "content-en"},
				{Index: "content-no", Language: "no", Config: "content", Err: errors.New("boom")},
			}},
			wantStatus: domain.OperationPartial,
			wantErr:    true,
		},
		{
			name:       "unsupported cluster",
			provErr:    &domain.UnsupportedClusterVersionError{Version: "2.4.6", MinMajor: 5},
			wantStatus: domain.OperationFailed,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.orch.report = tt.report
			f.orch.provErr = tt.provErr

			ctx := admin.WithActor(context.Background(), "alice")
			res, err := f.svc.ProvisionAll(ctx)

			require.NotNil(t, res)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.NotEmpty(t, res.Overview.Indices)
			require.Len(t, f.history.started, 1)
			assert.Equal(t, "alice", f.history.started[0].Actor)
			assert.Equal(t, tt.wantStatus, f.history.statuses[res.OperationID])
		})
	}
}

func TestDeleteAllIndices_OnlyManaged(t *testing.T) {
	f := newFixture(t)
	f.orch.deleteErrs["content-en"] = &domain.NotFoundError{Index: "content-en"}

	res, err := f.svc.DeleteAllIndices(context.Background())

	require.ErrorIs(t, err, domain.ErrIndexNotFound)
	assert.Equal(t, []string{"catalog-no", "content-commerce-en", "content-en"}, f.orch.deleted)
	assert.Len(t, res.Deleted, 3)
	assert.Equal(t, domain.OperationPartial, res.Status)
}

func TestDeleteIndex(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.DeleteIndex(context.Background(), " content-en ")
	require.NoError(t, err)
	assert.Equal(t, domain.OperationSucceeded, res.Status)
	assert.Equal(t, []string{"content-en"}, f.orch.deleted)

	_, err = f.svc.DeleteIndex(context.Background(), "  ")
	require.ErrorIs(t, err, admin.ErrInvalidRequest)
	assert.Len(t, f.orch.deleted, 1)
}

func TestChangeTokenizer(t *testing.T) {
	f := newFixture(t)
	f.orch.tokErr = &domain.IndexLeftClosedError{Index: "content-en", Step: "open", Err: errors.New("timeout")}

	res, err := f.svc.ChangeTokenizer(context.Background(), "content-en", "whitespace")

	var closed *domain.IndexLeftClosedError
	require.ErrorAs(t, err, &closed)
	assert.Equal(t, domain.OperationFailed, res.Status)
	assert.Equal(t, []string{"content-en=whitespace"}, f.orch.tokenized)
	assert.NotEmpty(t, res.Overview.Indices)

	_, err = f.svc.ChangeTokenizer(context.Background(), "content-en", "")
	require.ErrorIs(t, err, admin.ErrInvalidRequest)
}

func TestRunIndexJob(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RunIndexJob(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Index content"}, f.jobs.started)

	f.jobs.err = jobs.ErrJobRunning
	res, err := f.svc.RunIndexJob(context.Background())
	require.ErrorIs(t, err, jobs.ErrJobRunning)
	assert.Equal(t, domain.OperationFailed, res.Status)
}

func TestHistory_NopByDefault(t *testing.T) {
	svc := admin.NewService(admin.Deps{
		Orchestrator: &fakeOrchestrator{},
		Cluster:      &fakeView{},
		Languages:    fakeLanguages{},
	}, admin.Config{Indices: configs})

	res, err := svc.DeleteIndex(context.Background(), "content-en")
	require.NoError(t, err)
	assert.Len(t, res.OperationID, 36)

	ops, err := svc.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestRun_RecordsActionSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	f := newFixtureWithTelemetry(t, telemetry.NewProvider(telemetry.WithTracerProvider(tp)))
	f.orch.deleteErrs["content-no"] = &domain.NotFoundError{Index: "content-no"}

	_, err := f.svc.DeleteIndex(context.Background(), "content-en")
	require.NoError(t, err)
	_, err = f.svc.DeleteIndex(context.Background(), "content-no")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	for _, s := range spans {
		assert.Equal(t, "admin.delete_index", s.Name())
	}
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("index.name", "content-en"))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	require.NotEmpty(t, spans[1].Events(), "error is recorded as a span event")
}
