package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/admin"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/config"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/elasticsearch"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/health"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/jobs"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/languages"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/mappings"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/naming"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/orchestrator"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/telemetry"
)

// Components is everything the HTTP service and the CLI share.
type Components struct {
	Admin     *admin.Service
	Jobs      *jobs.Registry
	Scheduler *jobs.Scheduler
	Telemetry *telemetry.Provider
	Cluster   *elasticsearch.Client
}

// BuildComponents wires the orchestrator and the admin gateway on top of a
// connected cluster client.
func BuildComponents(cfg *config.Config, es *elasticsearch.Client, history admin.History, log infralogger.Logger) (*Components, error) {
	catalog, err := languages.NewCatalog(cfg.Languages.Enabled, cfg.Languages.NeutralCode)
	if err != nil {
		return nil, fmt.Errorf("language catalog: %w", err)
	}

	registry, err := mappings.NewRegistry(cfg.Schemas()...)
	if err != nil {
		return nil, fmt.Errorf("mapping registry: %w", err)
	}

	tel := telemetry.NewProvider()
	names := naming.NewResolver(cfg.Commerce.Suffix)
	gate := health.NewGate(es, cfg.Orchestrator.PollInterval, log)

	orch := orchestrator.New(orchestrator.Deps{
		Cluster: tel.WrapCluster(es),
		Health:  tel.WrapGate(gate),
		Names:   names,
		Types:   mappings.NewTypeResolver(registry),
		Bodies:  mappings.Settings{Shards: cfg.Elasticsearch.Shards, Replicas: *cfg.Elasticsearch.Replicas},
		Logger:  log,
	}, orchestrator.Options{
		CommerceEnabled:        cfg.Commerce.Enabled,
		HealthTimeout:          cfg.Orchestrator.HealthTimeout,
		TokenizerHealthTimeout: cfg.Orchestrator.TokenizerHealthTimeout,
		Parallelism:            cfg.Orchestrator.Parallelism,
		MinClusterMajor:        cfg.Orchestrator.MinClusterMajor,
		NeutralLanguage:        catalog.Neutral(),
		DeleteRate:             cfg.Orchestrator.DeleteRate,
	})

	jobRegistry, scheduler, err := setupJobs(cfg, log)
	if err != nil {
		return nil, err
	}

	svc := admin.NewService(admin.Deps{
		Orchestrator: orch,
		Cluster:      es,
		Languages:    catalog,
		Names:        names,
		Jobs:         jobRegistry,
		History:      history,
		Telemetry:    tel,
		Logger:       log,
	}, admin.Config{
		Indices:      cfg.Indices,
		IndexJobName: cfg.Jobs.IndexJobName,
	})

	return &Components{
		Admin:     svc,
		Jobs:      jobRegistry,
		Scheduler: scheduler,
		Telemetry: tel,
		Cluster:   es,
	}, nil
}

// setupJobs registers the bulk indexing job when a trigger URL is
// configured and schedules it when a cron expression is set.
func setupJobs(cfg *config.Config, log infralogger.Logger) (*jobs.Registry, *jobs.Scheduler, error) {
	registry := jobs.NewRegistry(log)
	scheduler := jobs.NewScheduler(registry, log)

	if cfg.Jobs.TriggerURL == "" {
		log.Info("No index job trigger URL configured, index job disabled")
		return registry, scheduler, nil
	}

	job := jobs.NewTriggerJob(cfg.Jobs.IndexJobName, cfg.Jobs.TriggerURL, cfg.Jobs.TriggerTimeout, log)
	if err := registry.Register(job); err != nil {
		return nil, nil, fmt.Errorf("register index job: %w", err)
	}

	if cfg.Jobs.Schedule != "" {
		if err := scheduler.Schedule(cfg.Jobs.IndexJobName, cfg.Jobs.Schedule); err != nil {
			return nil, nil, fmt.Errorf("schedule index job: %w", err)
		}
	}
	return registry, scheduler, nil
}

// Close stops background work.
func (c *Components) Close() {
	c.Scheduler.Stop()
	c.Jobs.Stop()
}
