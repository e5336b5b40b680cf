// Package bootstrap handles application initialization and lifecycle management
// for the index-orchestrator service.
package bootstrap

import (
	"context"
	"fmt"

	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/profiling"
)

// Start initializes and runs the service until it is signalled to stop.
func Start() error {
	ctx := context.Background()

	// Phase 1: Load config and create logger
	cfg, err := LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Phase 1b: Profiling, opt-in via environment
	profiling.StartPprofServer(log)
	profiler, err := profiling.StartPyroscope(cfg.Service.Name, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", infralogger.Error(err))
	}
	defer func() { _ = profiler.Stop() }()

	// Phase 1c: Tracing, opt-in via config
	stopTracing, err := SetupTracing(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stopTracing()

	log.Info("Starting Index Orchestrator Service",
		infralogger.String("name", cfg.Service.Name),
		infralogger.String("version", cfg.Service.Version),
		infralogger.Int("port", cfg.Service.Port),
		infralogger.Bool("commerce_enabled", cfg.Commerce.Enabled),
		infralogger.Int("indices", len(cfg.Indices)),
	)

	// Phase 2: Setup Elasticsearch
	esClient, err := SetupElasticsearch(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to setup Elasticsearch: %w", err)
	}

	// Phase 3: Setup audit history
	history, closeDB, err := SetupHistory(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to setup database: %w", err)
	}
	defer func() {
		if closeErr := closeDB(); closeErr != nil {
			log.Error("Failed to close database connection", infralogger.Error(closeErr))
		}
	}()

	// Phase 4: Orchestrator, admin gateway and jobs
	comps, err := BuildComponents(cfg, esClient, history, log)
	if err != nil {
		return fmt.Errorf("failed to build components: %w", err)
	}
	comps.Scheduler.Start()
	defer comps.Close()

	// Phase 5: Setup and run HTTP server
	server := SetupHTTPServer(cfg, comps, log)
	if runErr := server.RunWithGracefulShutdown(ctx); runErr != nil {
		log.Error("Server error", infralogger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Index Orchestrator Service stopped")
	return nil
}
