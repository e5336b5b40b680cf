package jobs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/jobs"
)

func TestScheduler_ScheduleValidation(t *testing.T) {
	r := newRegistry(t, newBlockingJob("Index content"))
	s := jobs.NewScheduler(r, infralogger.NewNop())

	tests := []struct {
		name    string
		job     string
		spec    string
		wantErr error
		anyErr  bool
	}{
		{name: "standard five fields", job: "Index content", spec: "0 3 * * *"},
		{name: "descriptor", job: "index CONTENT", spec: "@daily"},
		{name: "unknown job", job: "Reindex", spec: "@daily", wantErr: jobs.ErrJobNotFound},
		{name: "seconds field rejected", job: "Index content", spec: "0 0 3 * * *", anyErr: true},
		{name: "garbage", job: "Index content", spec: "whenever", anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Schedule(tt.job, tt.spec)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestScheduler_StartsJobOnSchedule(t *testing.T) {
	job := newBlockingJob("Index content")
	r := newRegistry(t, job)
	s := jobs.NewScheduler(r, infralogger.NewNop())

	require.NoError(t, s.Schedule("Index content", "@every 1s"))
	s.Start()
	t.Cleanup(s.Stop)

	select {
	case <-job.started:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job did not start")
	}

	info, err := r.Status("Index content")
	require.NoError(t, err)
	assert.True(t, info.Running)
	close(job.release)
}
