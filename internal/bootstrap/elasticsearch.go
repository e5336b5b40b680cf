package bootstrap

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/config"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/elasticsearch"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

// SetupElasticsearch connects to the cluster and wraps it in the operations client.
func SetupElasticsearch(ctx context.Context, cfg *config.Config, log infralogger.Logger) (*elasticsearch.Client, error) {
	raw, err := elasticsearch.Connect(ctx, elasticsearch.ConnectConfig{
		URL:         cfg.Elasticsearch.URL,
		Username:    cfg.Elasticsearch.Username,
		Password:    cfg.Elasticsearch.Password,
		APIKey:      cfg.Elasticsearch.APIKey,
		CloudID:     cfg.Elasticsearch.CloudID,
		TLSInsecure: cfg.Elasticsearch.TLSInsecure,
		MaxRetries:  cfg.Elasticsearch.MaxRetries,
		Timeout:     cfg.Elasticsearch.Timeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return elasticsearch.NewClient(raw, log), nil
}
