// Package jobs holds the named background jobs the orchestrator can start,
// their asynchronous executor and an optional cron schedule.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

var (
	// ErrJobRunning is returned when a start is requested for a job that has
	// not finished its previous run.
	ErrJobRunning = errors.New("job already running")
	// ErrJobNotFound is returned for a display name nobody registered.
	ErrJobNotFound = errors.New("job not found")
)

// Job is a named unit of background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// RunInfo describes the last run of a job.
type RunInfo struct {
	Job        string    `json:"job"`
	Running    bool      `json:"running"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Error      string    `json:"error,omitempty"`
}

// Registry looks jobs up by display name and runs them in the background.
// At most one run per job is active at a time.
type Registry struct {
	logger infralogger.Logger

	mu      sync.Mutex
	jobs    map[string]Job
	running map[string]context.CancelFunc
	last    map[string]RunInfo

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates an empty registry. Runs use a lifecycle context that
// Stop cancels, never the caller's request context.
func NewRegistry(log infralogger.Logger) *Registry {
	if log == nil {
		log = infralogger.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		logger:  log,
		jobs:    make(map[string]Job),
		running: make(map[string]context.CancelFunc),
		last:    make(map[string]RunInfo),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds job under its display name.
func (r *Registry) Register(job Job) error {
	k := key(job.Name())
	if k == "" {
		return errors.New("job without a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.jobs[k]; dup {
		return fmt.Errorf("job %q already registered", job.Name())
	}
	r.jobs[k] = job
	return nil
}

// Lookup finds a job by display name, ignoring case.
func (r *Registry) Lookup(name string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[key(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return job, nil
}

// Start launches the named job and returns without waiting for it.
func (r *Registry) Start(name string) error {
	job, err := r.Lookup(name)
	if err != nil {
		return err
	}
	k := key(name)

	r.mu.Lock()
	if _, busy := r.running[k]; busy {
		r.mu.Unlock()
		r.logger.Warn("Job already running", infralogger.String("job", job.Name()))
		return ErrJobRunning
	}
	if err := r.ctx.Err(); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("registry stopped: %w", err)
	}
	jobCtx, cancel := context.WithCancel(r.ctx)
	r.running[k] = cancel
	info := RunInfo{Job: job.Name(), Running: true, StartedAt: time.Now().UTC()}
	r.last[k] = info
	r.wg.Add(1)
	r.mu.Unlock()

	r.logger.Info("Job started", infralogger.String("job", job.Name()))

	go func() {
		defer r.wg.Done()
		defer cancel()

		runErr := job.Run(jobCtx)

		info.Running = false
		info.FinishedAt = time.Now().UTC()
		if runErr != nil {
			info.Error = runErr.Error()
			r.logger.Error("Job failed", infralogger.String("job", job.Name()), infralogger.Error(runErr))
		} else {
			r.logger.Info("Job completed",
				infralogger.String("job", job.Name()),
				infralogger.Duration("duration", info.FinishedAt.Sub(info.StartedAt)),
			)
		}

		r.mu.Lock()
		delete(r.running, k)
		r.last[k] = info
		r.mu.Unlock()
	}()
	return nil
}

// Status reports the current or last run of the named job.
func (r *Registry) Status(name string) (RunInfo, error) {
	job, err := r.Lookup(name)
	if err != nil {
		return RunInfo{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.last[key(name)]
	if !ok {
		return RunInfo{Job: job.Name()}, nil
	}
	return info, nil
}

// Stop cancels running jobs and waits for them to return.
func (r *Registry) Stop() {
	r.cancel()
	r.mu.Lock()
	for k, cancel := range r.running {
		r.logger.Info("Cancelling active job", infralogger.String("job", k))
		cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}
