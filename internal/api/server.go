package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/ginserver"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

const (
	defaultReadTimeout = 30 * time.Second
	defaultIdleTimeout = 120 * time.Second
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port        int
	ServiceName string
	Version     string
	Debug       bool
	// WriteTimeout must cover the slowest admin action, health waits included.
	WriteTimeout time.Duration
	Auth         AuthConfig
}

// NewServer builds the HTTP server with health checks, metrics and the admin
// routes.
func NewServer(
	handler *Handler,
	cfg ServerConfig,
	metrics http.Handler,
	checks map[string]ginserver.HealthChecker,
	log infralogger.Logger,
) *ginserver.Server {
	builder := ginserver.NewServerBuilder(cfg.ServiceName, cfg.Port).
		WithLogger(log).
		WithDebug(cfg.Debug).
		WithVersion(cfg.Version).
		WithTimeouts(defaultReadTimeout, cfg.WriteTimeout, defaultIdleTimeout)

	for name, check := range checks {
		builder = builder.WithHealthCheck(name, check)
	}

	return builder.
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, handler, cfg.Auth, metrics)
		}).
		Build()
}
