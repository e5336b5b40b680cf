// Package health implements the blocking readiness barrier used between
// dependent cluster mutations.
package health

import (
	"context"
	"errors"
	"time"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/retry"
)

// DefaultPollInterval is used when the gate is built with a zero interval.
const DefaultPollInterval = 500 * time.Millisecond

var errNotReady = errors.New("index not ready")

// Prober reads the current health of an index, or the cluster when index is empty.
type Prober interface {
	IndexHealth(ctx context.Context, index string) (domain.HealthStatus, error)
}

// Gate polls health until it is yellow or green.
type Gate struct {
	prober       Prober
	pollInterval time.Duration
	logger       infralogger.Logger
}

// NewGate returns a Gate polling prober every pollInterval.
func NewGate(prober Prober, pollInterval time.Duration, log infralogger.Logger) *Gate {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Gate{prober: prober, pollInterval: pollInterval, logger: log}
}

// WaitForStatus blocks until index reports yellow or green, timeout elapses
// or ctx ends. On timeout it returns *domain.HealthTimeoutError with the last
// status observed. Probe failures count as an unknown status and are retried.
func (g *Gate) WaitForStatus(ctx context.Context, index string, timeout time.Duration) (domain.HealthStatus, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	last := domain.HealthUnknown
	probe := func() error {
		status, err := g.prober.IndexHealth(waitCtx, index)
		if err != nil {
			g.logger.Debug("Health probe failed",
				infralogger.String("index_name", index),
				infralogger.Error(err),
			)
			last = domain.HealthUnknown
			return errNotReady
		}
		last = status
		if !status.Acceptable() {
			return errNotReady
		}
		return nil
	}

	err := retry.Retry(waitCtx, retry.Config{
		MaxAttempts:  retry.Unlimited,
		InitialDelay: g.pollInterval,
		MaxDelay:     g.pollInterval,
		Multiplier:   1,
		IsRetryable:  func(err error) bool { return errors.Is(err, errNotReady) },
	}, probe)
	if err == nil {
		return last, nil
	}

	// The caller's own cancellation is not a health timeout.
	if ctx.Err() != nil {
		return last, ctx.Err()
	}

	g.logger.Warn("Timed out waiting for health",
		infralogger.String("index_name", index),
		infralogger.String("last_status", last.String()),
		infralogger.Duration("timeout", timeout),
	)
	return last, &domain.HealthTimeoutError{Index: index, LastStatus: last, Timeout: timeout}
}
