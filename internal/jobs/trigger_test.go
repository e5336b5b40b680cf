package jobs_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/retry"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/jobs"
)

func fastRetry() jobs.TriggerOption {
	return jobs.WithRetry(retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1})
}

func TestTriggerJob_Run(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantErr   bool
		wantCalls int32
	}{
		{name: "accepted", statuses: []int{http.StatusAccepted}, wantCalls: 1},
		{name: "retries server errors", statuses: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusOK}, wantCalls: 3},
		{name: "gives up after attempts", statuses: []int{500, 500, 500, 500}, wantErr: true, wantCalls: 3},
		{name: "client error is final", statuses: []int{http.StatusUnauthorized}, wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var body map[string]any
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "Index content", body["job"])

				w.WriteHeader(tt.statuses[n-1])
			}))
			defer srv.Close()

			job := jobs.NewTriggerJob("Index content", srv.URL, time.Second, infralogger.NewNop(), fastRetry())
			err := job.Run(context.Background())

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestTriggerJob_RunThroughRegistry(t *testing.T) {
	hit := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hit <- struct{}{}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	r := newRegistry(t, jobs.NewTriggerJob("Index content", srv.URL, time.Second, nil, fastRetry()))
	require.NoError(t, r.Start("Index content"))

	select {
	case <-hit:
	case <-time.After(time.Second):
		t.Fatal("trigger URL was not called")
	}
	info := waitIdle(t, r, "Index content")
	assert.Empty(t, info.Error)
}
