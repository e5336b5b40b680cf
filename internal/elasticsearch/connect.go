// Package elasticsearch is the cluster-operations client used by the orchestrator.
package elasticsearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/retry"
)

const defaultPingTimeout = 5 * time.Second

// ConnectConfig holds connection settings.
type ConnectConfig struct {
	URL         string
	Username    string
	Password    string
	APIKey      string
	CloudID     string
	TLSInsecure bool
	MaxRetries  int
	Timeout     time.Duration
	// Retry controls the startup ping. Zero value uses retry.DefaultConfig.
	Retry retry.Config
}

// Connect builds an es.Client and pings it with retries.
func Connect(ctx context.Context, cfg ConnectConfig, log infralogger.Logger) (*es.Client, error) {
	url := normalizeURL(cfg.URL)

	transport := &http.Transport{
		ResponseHeaderTimeout: cfg.Timeout,
	}
	if cfg.TLSInsecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for dev clusters
	}

	esCfg := es.Config{
		Transport:  transport,
		MaxRetries: cfg.MaxRetries,
	}
	switch {
	case cfg.CloudID != "":
		esCfg.CloudID = cfg.CloudID
		esCfg.APIKey = cfg.APIKey
	case cfg.APIKey != "":
		esCfg.Addresses = []string{url}
		esCfg.APIKey = cfg.APIKey
	default:
		esCfg.Addresses = []string{url}
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	client, err := es.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	retryCfg := cfg.Retry
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.DefaultConfig()
	}

	log.Info("Verifying Elasticsearch connection", infralogger.String("url", url))
	if pingErr := retry.Retry(ctx, retryCfg, func() error { return ping(ctx, client) }); pingErr != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", pingErr)
	}
	log.Info("Elasticsearch connection established", infralogger.String("url", url))

	return client, nil
}

func normalizeURL(url string) string {
	if url == "" {
		return "http://localhost:9200"
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}

func ping(ctx context.Context, client *es.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	res, err := client.Ping(client.Ping.WithContext(pingCtx))
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("ping returned %s", res.Status())
	}
	return nil
}
