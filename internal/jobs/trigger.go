package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/retry"
)

const (
	defaultTriggerTimeout = 30 * time.Second
	maxErrorBodyBytes     = 512
)

// TriggerJob asks a remote indexer to start a bulk reindex by POSTing to
// its trigger URL. Network failures and 5xx responses are retried.
type TriggerJob struct {
	name   string
	url    string
	client *http.Client
	retry  retry.Config
	logger infralogger.Logger
}

// TriggerOption customises a TriggerJob.
type TriggerOption func(*TriggerJob)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) TriggerOption {
	return func(j *TriggerJob) { j.client = c }
}

// WithRetry replaces the default retry policy.
func WithRetry(cfg retry.Config) TriggerOption {
	return func(j *TriggerJob) { j.retry = cfg }
}

// NewTriggerJob builds the job. timeout bounds a single request.
func NewTriggerJob(name, url string, timeout time.Duration, log infralogger.Logger, opts ...TriggerOption) *TriggerJob {
	if timeout <= 0 {
		timeout = defaultTriggerTimeout
	}
	if log == nil {
		log = infralogger.NewNop()
	}
	j := &TriggerJob{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: timeout},
		retry:  retry.DefaultConfig(),
		logger: log,
	}
	for _, opt := range opts {
		opt(j)
	}
	j.retry.IsRetryable = isRetryableTrigger
	return j
}

// Name implements Job.
func (j *TriggerJob) Name() string { return j.name }

type triggerRequest struct {
	Job         string    `json:"job"`
	RequestedAt time.Time `json:"requested_at"`
}

// Run implements Job.
func (j *TriggerJob) Run(ctx context.Context) error {
	body, err := json.Marshal(triggerRequest{Job: j.name, RequestedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal trigger request: %w", err)
	}

	attempt := 0
	return retry.Retry(ctx, j.retry, func() error {
		attempt++
		postErr := j.post(ctx, body)
		if postErr != nil {
			j.logger.Warn("Trigger request failed",
				infralogger.String("job", j.name),
				infralogger.Int("attempt", attempt),
				infralogger.Error(postErr),
			)
		}
		return postErr
	})
}

func (j *TriggerJob) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &triggerStatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type triggerStatusError struct {
	StatusCode int
	Body       string
}

func (e *triggerStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("trigger returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("trigger returned status %d: %s", e.StatusCode, e.Body)
}

func isRetryableTrigger(err error) bool {
	var se *triggerStatusError
	if errors.As(err, &se) {
		return se.StatusCode >= http.StatusInternalServerError || se.StatusCode == http.StatusTooManyRequests
	}
	return retry.DefaultIsRetryable(err)
}
