package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/config"
	infraconfig "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/config"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

const defaultConfigFile = "config.yml"

// LoadConfig loads and validates configuration. An empty path falls back to
// CONFIG_PATH, then config.yml.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = infraconfig.GetConfigPath(defaultConfigFile)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config) (infralogger.Logger, error) {
	log, err := infralogger.New(infralogger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(infralogger.String("service", cfg.Service.Name)), nil
}
