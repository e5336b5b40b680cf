package elasticsearch_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/elasticsearch"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

// mockTransport implements http.RoundTripper for canned cluster responses.
type mockTransport struct {
	RoundTripFn func(req *http.Request) (*http.Response, error)
	requests    []*http.Request
	bodies      []string
}

func (t *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.requests = append(t.requests, req)
	body := ""
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
	}
	t.bodies = append(t.bodies, body)
	return t.RoundTripFn(req)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     http.Header{"X-Elastic-Product": []string{"Elasticsearch"}, "Content-Type": []string{"application/json"}},
	}
}

func newClient(t *testing.T, fn func(req *http.Request) (*http.Response, error)) (*elasticsearch.Client, *mockTransport) {
	t.Helper()
	transport := &mockTransport{RoundTripFn: fn}
	raw, err := es.NewClient(es.Config{Transport: transport})
	require.NoError(t, err)
	return elasticsearch.NewClient(raw, infralogger.NewNop()), transport
}

func TestServerVersion(t *testing.T) {
	client, _ := newClient(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `{"version":{"number":"8.15.2"}}`), nil
	})

	v, err := client.ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "8.15.2", v)
}

func TestIndexExists(t *testing.T) {
	t.Helper()

	tests := []struct {
		status  int
		want    bool
		wantErr bool
	}{
		{http.StatusOK, true, false},
		{http.StatusNotFound, false, false},
		{http.StatusInternalServerError, false, true},
	}
	for _, tt := range tests {
		client, transport := newClient(t, func(*http.Request) (*http.Response, error) {
			return respond(tt.status, ``), nil
		})

		got, err := client.IndexExists(context.Background(), "content-en")
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("IndexExists with status %d = %v, %v, want %v, wantErr %v", tt.status, got, err, tt.want, tt.wantErr)
		}
		assert.Equal(t, http.MethodHead, transport.requests[0].Method)
		assert.Equal(t, "/content-en", transport.requests[0].URL.Path)
	}
}

func TestCreateIndex(t *testing.T) {
	client, transport := newClient(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `{"acknowledged":true,"index":"content-en"}`), nil
	})

	created, err := client.CreateIndex(context.Background(), "content-en", map[string]any{"settings": map[string]any{"number_of_shards": 1}})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, http.MethodPut, transport.requests[0].Method)
	assert.JSONEq(t, `{"settings":{"number_of_shards":1}}`, transport.bodies[0])
}

func TestCreateIndex_AlreadyExistsIsNotAnError(t *testing.T) {
	client, _ := newClient(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadRequest, `{"error":{"type":"resource_already_exists_exception","reason":"index [content-en] already exists"},"status":400}`), nil
	})

	created, err := client.CreateIndex(context.Background(), "content-en", nil)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestCreateIndex_ClusterError(t *testing.T) {
	client, _ := newClient(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadRequest, `{"error":{"type":"mapper_parsing_exception","reason":"bad field"},"status":400}`), nil
	})

	_, err := client.CreateIndex(context.Background(), "content-en", nil)

	var ce *domain.ClusterError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "mapper_parsing_exception", ce.Type)
	assert.Equal(t, "bad field", ce.Reason)
	assert.Equal(t, "create", ce.Op)
}

func TestDeleteIndex_NotFound(t *testing.T) {
	client, _ := newClient(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusNotFound, `{"error":{"type":"index_not_found_exception","reason":"no such index"},"status":404}`), nil
	})

	err := client.DeleteIndex(context.Background(), "missing-en")
	require.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestLifecycleRequests(t *testing.T) {
	client, transport := newClient(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `{"acknowledged":true}`), nil
	})
	ctx := context.Background()

	require.NoError(t, client.CloseIndex(ctx, "content-en"))
	require.NoError(t, client.PutSettings(ctx, "content-en", map[string]any{"index": map[string]any{"refresh_interval": "1s"}}))
	require.NoError(t, client.OpenIndex(ctx, "content-en"))
	require.NoError(t, client.PutMapping(ctx, "content-en", map[string]any{"dynamic": false}))

	paths := make([]string, 0, len(transport.requests))
	for _, r := range transport.requests {
		paths = append(paths, r.Method+" "+r.URL.Path)
	}
	assert.Equal(t, []string{
		"POST /content-en/_close",
		"PUT /content-en/_settings",
		"POST /content-en/_open",
		"PUT /content-en/_mapping",
	}, paths)
	assert.JSONEq(t, `{"dynamic":false}`, transport.bodies[3])
}

func TestHealth(t *testing.T) {
	t.Helper()

	tests := []struct {
		name   string
		status int
		body   string
		want   domain.HealthStatus
	}{
		{"green", http.StatusOK, `{"cluster_name":"c","status":"green","number_of_nodes":3}`, domain.HealthGreen},
		{"timed out red", http.StatusRequestTimeout, `{"status":"red","timed_out":true}`, domain.HealthRed},
	}
	for _, tt := range tests {
		client, transport := newClient(t, func(*http.Request) (*http.Response, error) {
			return respond(tt.status, tt.body), nil
		})

		got, err := client.IndexHealth(context.Background(), "content-en")
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
		assert.Equal(t, "/_cluster/health/content-en", transport.requests[0].URL.Path)
	}
}

func TestNodesAndIndices(t *testing.T) {
	client, _ := newClient(t, func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/_cat/nodes":
			return respond(http.StatusOK, `[{"name":"es01","ip":"10.0.0.1","node.role":"dim","master":"*","heap.percent":"41","version":"8.15.2"},{"name":"es02","master":"-"}]`), nil
		case "/_cat/indices":
			return respond(http.StatusOK, `[{"health":"green","status":"open","index":"content-en","docs.count":"12","store.size":"4kb"},{"health":"green","status":"open","index":".security","docs.count":"1"}]`), nil
		default:
			return respond(http.StatusOK, `{"content-en":{"mappings":{"_meta":{"type_name":"IndexItem"}}},"raw-en":{"mappings":{}}}`), nil
		}
	})
	ctx := context.Background()

	nodes, err := client.Nodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.True(t, nodes[0].Master)
	assert.False(t, nodes[1].Master)

	indices, err := client.ListIndices(ctx)
	require.NoError(t, err)
	require.Len(t, indices, 1)
	assert.Equal(t, int64(12), indices[0].DocumentCount)
	assert.Equal(t, domain.HealthGreen, indices[0].Health)

	types, err := client.MappingTypes(ctx, "content-en", "raw-en")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"content-en": "IndexItem"}, types)
}
