package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/config"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/telemetry"
)

const tracingShutdownTimeout = 5 * time.Second

// SetupTracing installs the span exporter when tracing is enabled. The
// returned func flushes pending spans.
func SetupTracing(ctx context.Context, cfg *config.Config, log infralogger.Logger) (func(), error) {
	shutdown, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	return func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tracingShutdownTimeout)
		defer cancel()
		if shutdownErr := shutdown(flushCtx); shutdownErr != nil {
			log.Warn("Failed to flush spans", infralogger.Error(shutdownErr))
		}
	}, nil
}
