package bootstrap

import (
	"context"
	"time"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/api"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/config"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/ginserver"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

const healthCheckTimeout = 2 * time.Second

// SetupHTTPServer creates and configures the HTTP server.
func SetupHTTPServer(cfg *config.Config, comps *Components, log infralogger.Logger) *ginserver.Server {
	handler := api.NewHandler(comps.Admin, log)

	checks := map[string]ginserver.HealthChecker{
		"elasticsearch": ginserver.PingChecker("elasticsearch", ginserver.HealthStatusUnhealthy, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
			defer cancel()
			return comps.Cluster.Ping(ctx)
		}),
	}

	return api.NewServer(handler, api.ServerConfig{
		Port:         cfg.Service.Port,
		ServiceName:  cfg.Service.Name,
		Version:      cfg.Service.Version,
		Debug:        cfg.Service.Debug,
		WriteTimeout: cfg.Service.WriteTimeout,
		Auth: api.AuthConfig{
			JWTSecret: cfg.Auth.JWTSecret,
			AdminRole: cfg.Auth.AdminRole,
		},
	}, comps.Telemetry.Handler(), checks, log)
}
