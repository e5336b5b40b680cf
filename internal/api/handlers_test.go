package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/admin"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/api"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/jwt"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/jobs"
)

const (
	testSecret = "test-secret"
	adminRole  = "ElasticsearchAdmins"
)

type fakeService struct {
	res        *admin.Result
	err        error
	actor      string
	index      string
	tokenizer  string
	limit      int
	historyErr error
}

func (f *fakeService) result(ctx context.Context) (*admin.Result, error) {
	f.actor = admin.ActorFrom(ctx)
	res := f.res
	if res == nil {
		res = &admin.Result{Status: domain.OperationSucceeded}
	}
	return res, f.err
}

func (f *fakeService) Overview(context.Context) domain.Overview {
	return domain.Overview{Cluster: domain.ClusterHealth{ClusterName: "docker-cluster", Status: domain.HealthGreen}}
}

func (f *fakeService) ProvisionAll(ctx context.Context) (*admin.Result, error) {
	return f.result(ctx)
}

func (f *fakeService) DeleteIndex(ctx context.Context, index string) (*admin.Result, error) {
	f.index = index
	return f.result(ctx)
}

func (f *fakeService) DeleteAllIndices(ctx context.Context) (*admin.Result, error) {
	return f.result(ctx)
}

func (f *fakeService) ChangeTokenizer(ctx context.Context, index, tokenizer string) (*admin.Result, error) {
	f.index, f.tokenizer = index, tokenizer
	return f.result(ctx)
}

func (f *fakeService) RunIndexJob(ctx context.Context) (*admin.Result, error) {
	return f.result(ctx)
}

func (f *fakeService) History(_ context.Context, limit int) ([]domain.Operation, error) {
	f.limit = limit
	return []domain.Operation{{ID: "op-1", Action: domain.ActionProvision}}, f.historyErr
}

func setupRouter(t *testing.T, svc api.AdminService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	api.SetupRoutes(router, api.NewHandler(svc, infralogger.NewNop()),
		api.AuthConfig{JWTSecret: testSecret, AdminRole: adminRole}, metrics)
	return router
}

func token(t *testing.T, roles ...string) string {
	t.Helper()
	tok, err := jwt.Sign(testSecret, "alice", roles, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, router *gin.Engine, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutes_CapabilityCheck(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		wantCode int
	}{
		{name: "no token", wantCode: http.StatusUnauthorized},
		{name: "garbage token", token: "not-a-jwt", wantCode: http.StatusUnauthorized},
		{name: "missing role", token: "viewer", wantCode: http.StatusForbidden},
		{name: "admin", token: adminRole, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			router := setupRouter(t, svc)

			tok := tt.token
			if tok == adminRole || tok == "viewer" {
				tok = token(t, tt.token)
			}
			rec := do(t, router, http.MethodPost, "/api/v1/admin/indices/provision", tok, nil)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "alice", svc.actor)
			} else {
				assert.Empty(t, svc.actor)
			}
		})
	}
}

func TestAdminRoutes_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		res      *admin.Result
		err      error
		wantCode int
	}{
		{"not found", nil, &domain.NotFoundError{Index: "content-en"}, http.StatusNotFound},
		{"unsupported version", nil, &domain.UnsupportedClusterVersionError{Version: "2.4.6", MinMajor: 5}, http.StatusPreconditionFailed},
		{"left closed", nil, &domain.IndexLeftClosedError{Index: "content-en", Step: "open", Err: errors.New("x")}, http.StatusConflict},
		{"health timeout", nil, &domain.HealthTimeoutError{Index: "content-en", LastStatus: domain.HealthRed}, http.StatusGatewayTimeout},
		{"partial", &admin.Result{Status: domain.OperationPartial}, errors.New("content-no: boom"), http.StatusMultiStatus},
		{"invalid", nil, admin.ErrInvalidRequest, http.StatusBadRequest},
		{"job running", nil, jobs.ErrJobRunning, http.StatusConflict},
		{"job missing", nil, jobs.ErrJobNotFound, http.StatusNotFound},
		{"cluster error", nil, &domain.ClusterError{Op: "delete", Index: "content-en", StatusCode: 500}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{res: tt.res, err: tt.err}
			router := setupRouter(t, svc)

			rec := do(t, router, http.MethodDelete, "/api/v1/admin/indices/content-en", token(t, adminRole), nil)

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.Contains(t, body, "result")
		})
	}
}

func TestDeleteIndex_PassesName(t *testing.T) {
	svc := &fakeService{}
	router := setupRouter(t, svc)

	rec := do(t, router, http.MethodDelete, "/api/v1/admin/indices/catalog-no", token(t, adminRole), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "catalog-no", svc.index)
}

func TestChangeTokenizer(t *testing.T) {
	svc := &fakeService{}
	router := setupRouter(t, svc)
	tok := token(t, adminRole)

	rec := do(t, router, http.MethodPost, "/api/v1/admin/indices/content-en/tokenizer", tok, api.TokenizerRequest{Tokenizer: "whitespace"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "content-en", svc.index)
	assert.Equal(t, "whitespace", svc.tokenizer)

	rec = do(t, router, http.MethodPost, "/api/v1/admin/indices/content-en/tokenizer", tok, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunIndexJob_Accepted(t *testing.T) {
	router := setupRouter(t, &fakeService{})
	rec := do(t, router, http.MethodPost, "/api/v1/admin/jobs/index/run", token(t, adminRole), nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestGetOverview(t *testing.T) {
	router := setupRouter(t, &fakeService{})
	rec := do(t, router, http.MethodGet, "/api/v1/admin/overview", token(t, adminRole), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var ov domain.Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ov))
	assert.Equal(t, domain.HealthGreen, ov.Cluster.Status)
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantLimit int
	}{
		{name: "default limit", query: "", wantCode: http.StatusOK, wantLimit: 0},
		{name: "explicit limit", query: "?limit=5", wantCode: http.StatusOK, wantLimit: 5},
		{name: "bad limit", query: "?limit=abc", wantCode: http.StatusBadRequest},
		{name: "negative limit", query: "?limit=-1", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{limit: -99}
			router := setupRouter(t, svc)

			rec := do(t, router, http.MethodGet, "/api/v1/admin/history"+tt.query, token(t, adminRole), nil)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantLimit, svc.limit)
				assert.Contains(t, rec.Body.String(), `"count":1`)
			}
		})
	}
}

func TestMetricsIsPublic(t *testing.T) {
	router := setupRouter(t, &fakeService{})
	rec := do(t, router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
