package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

// healthRequestTimeout bounds the server-side wait of a single health probe.
const healthRequestTimeout = 2 * time.Second

// Client performs the cluster operations the orchestrator needs. It never
// caches cluster state.
type Client struct {
	es     *es.Client
	logger infralogger.Logger
}

// NewClient wraps an es.Client.
func NewClient(client *es.Client, log infralogger.Logger) *Client {
	return &Client{es: client, logger: log}
}

// Ping checks connectivity; used by /health.
func (c *Client) Ping(ctx context.Context) error {
	return ping(ctx, c.es)
}

// ServerVersion returns the cluster's version.number.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return "", transportError("info", "", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", responseError("info", "", res)
	}

	var info struct {
		Version struct {
			Number string `json:"number"`
		} `json:"version"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&info); decodeErr != nil {
		return "", fmt.Errorf("decode cluster info: %w", decodeErr)
	}
	return info.Version.Number, nil
}

// IndexExists queries the cluster; a 404 is reported as false.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	res, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, transportError("exists", index, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, &domain.ClusterError{Op: "exists", Index: index, StatusCode: res.StatusCode}
	}
}

// CreateIndex creates index with body. It returns false without error when
// another actor created the index first.
func (c *Client) CreateIndex(ctx context.Context, index string, body map[string]any) (bool, error) {
	reader, err := encode(body)
	if err != nil {
		return false, err
	}

	res, err := c.es.Indices.Create(index,
		c.es.Indices.Create.WithBody(reader),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return false, transportError("create", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		respErr := responseError("create", index, res)
		var ce *domain.ClusterError
		if errors.As(respErr, &ce) && ce.Type == typeAlreadyExists {
			c.logger.Info("Index already exists, treating as created elsewhere", infralogger.String("index_name", index))
			return false, nil
		}
		return false, respErr
	}
	return true, nil
}

// PutMapping applies mapping to index.
func (c *Client) PutMapping(ctx context.Context, index string, mapping map[string]any) error {
	reader, err := encode(mapping)
	if err != nil {
		return err
	}

	res, err := c.es.Indices.PutMapping([]string{index}, reader, c.es.Indices.PutMapping.WithContext(ctx))
	if err != nil {
		return transportError("put_mapping", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("put_mapping", index, res)
	}
	return nil
}

// CloseIndex closes index.
func (c *Client) CloseIndex(ctx context.Context, index string) error {
	res, err := c.es.Indices.Close([]string{index}, c.es.Indices.Close.WithContext(ctx))
	if err != nil {
		return transportError("close", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("close", index, res)
	}
	return nil
}

// OpenIndex opens index.
func (c *Client) OpenIndex(ctx context.Context, index string) error {
	res, err := c.es.Indices.Open([]string{index}, c.es.Indices.Open.WithContext(ctx))
	if err != nil {
		return transportError("open", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("open", index, res)
	}
	return nil
}

// PutSettings updates index settings.
func (c *Client) PutSettings(ctx context.Context, index string, settings map[string]any) error {
	reader, err := encode(settings)
	if err != nil {
		return err
	}

	res, err := c.es.Indices.PutSettings(reader,
		c.es.Indices.PutSettings.WithIndex(index),
		c.es.Indices.PutSettings.WithContext(ctx),
	)
	if err != nil {
		return transportError("put_settings", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("put_settings", index, res)
	}
	return nil
}

// DeleteIndex deletes index. A missing index is *domain.NotFoundError.
func (c *Client) DeleteIndex(ctx context.Context, index string) error {
	res, err := c.es.Indices.Delete([]string{index}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return transportError("delete", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("delete", index, res)
	}
	return nil
}

type healthBody struct {
	ClusterName         string  `json:"cluster_name"`
	Status              string  `json:"status"`
	NumberOfNodes       int     `json:"number_of_nodes"`
	NumberOfDataNodes   int     `json:"number_of_data_nodes"`
	ActiveShards        int     `json:"active_shards"`
	RelocatingShards    int     `json:"relocating_shards"`
	InitializingShards  int     `json:"initializing_shards"`
	UnassignedShards    int     `json:"unassigned_shards"`
	ActiveShardsPercent float64 `json:"active_shards_percent_as_number"`
}

// Health returns cluster health, scoped to index when it is non-empty.
func (c *Client) Health(ctx context.Context, index string) (domain.ClusterHealth, error) {
	opts := []func(*esapi.ClusterHealthRequest){
		c.es.Cluster.Health.WithContext(ctx),
		c.es.Cluster.Health.WithTimeout(healthRequestTimeout),
	}
	if index != "" {
		opts = append(opts, c.es.Cluster.Health.WithIndex(index))
	}

	res, err := c.es.Cluster.Health(opts...)
	if err != nil {
		return domain.ClusterHealth{}, transportError("health", index, err)
	}
	defer res.Body.Close()

	// 408 carries a valid body describing the not-yet-healthy state.
	if res.IsError() && res.StatusCode != http.StatusRequestTimeout {
		return domain.ClusterHealth{}, responseError("health", index, res)
	}

	var body healthBody
	if decodeErr := json.NewDecoder(res.Body).Decode(&body); decodeErr != nil {
		return domain.ClusterHealth{}, fmt.Errorf("decode cluster health: %w", decodeErr)
	}

	return domain.ClusterHealth{
		ClusterName:         body.ClusterName,
		Status:              domain.ParseHealthStatus(body.Status),
		NumberOfNodes:       body.NumberOfNodes,
		NumberOfDataNodes:   body.NumberOfDataNodes,
		ActiveShards:        body.ActiveShards,
		RelocatingShards:    body.RelocatingShards,
		InitializingShards:  body.InitializingShards,
		UnassignedShards:    body.UnassignedShards,
		ActiveShardsPercent: body.ActiveShardsPercent,
	}, nil
}

// IndexHealth returns the health status of a single index.
func (c *Client) IndexHealth(ctx context.Context, index string) (domain.HealthStatus, error) {
	h, err := c.Health(ctx, index)
	if err != nil {
		return domain.HealthUnknown, err
	}
	return h.Status, nil
}

// Nodes lists cluster members.
func (c *Client) Nodes(ctx context.Context) ([]domain.Node, error) {
	res, err := c.es.Cat.Nodes(
		c.es.Cat.Nodes.WithContext(ctx),
		c.es.Cat.Nodes.WithFormat("json"),
		c.es.Cat.Nodes.WithH("name", "ip", "node.role", "master", "heap.percent", "ram.percent", "cpu", "load_1m", "version"),
	)
	if err != nil {
		return nil, transportError("cat_nodes", "", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("cat_nodes", "", res)
	}

	var rows []map[string]string
	if decodeErr := json.NewDecoder(res.Body).Decode(&rows); decodeErr != nil {
		return nil, fmt.Errorf("decode nodes: %w", decodeErr)
	}

	nodes := make([]domain.Node, 0, len(rows))
	for _, r := range rows {
		nodes = append(nodes, domain.Node{
			Name:        r["name"],
			IP:          r["ip"],
			Roles:       r["node.role"],
			Master:      r["master"] == "*",
			HeapPercent: r["heap.percent"],
			RAMPercent:  r["ram.percent"],
			CPU:         r["cpu"],
			Load1m:      r["load_1m"],
			Version:     r["version"],
		})
	}
	return nodes, nil
}

// ListIndices returns every non-system index.
func (c *Client) ListIndices(ctx context.Context) ([]domain.PhysicalIndex, error) {
	res, err := c.es.Cat.Indices(
		c.es.Cat.Indices.WithContext(ctx),
		c.es.Cat.Indices.WithFormat("json"),
		c.es.Cat.Indices.WithH("health", "status", "index", "docs.count", "store.size"),
	)
	if err != nil {
		return nil, transportError("cat_indices", "", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("cat_indices", "", res)
	}

	var rows []map[string]string
	if decodeErr := json.NewDecoder(res.Body).Decode(&rows); decodeErr != nil {
		return nil, fmt.Errorf("decode indices: %w", decodeErr)
	}

	indices := make([]domain.PhysicalIndex, 0, len(rows))
	for _, r := range rows {
		name := r["index"]
		if strings.HasPrefix(name, ".") {
			continue
		}
		docs, _ := strconv.ParseInt(r["docs.count"], 10, 64)
		indices = append(indices, domain.PhysicalIndex{
			Name:          name,
			Health:        domain.ParseHealthStatus(r["health"]),
			Status:        r["status"],
			DocumentCount: docs,
			Size:          r["store.size"],
		})
	}
	return indices, nil
}

// MappingTypes reads _meta.type_name from each index's mapping. Indices
// without a stamp are omitted.
func (c *Client) MappingTypes(ctx context.Context, indices ...string) (map[string]string, error) {
	types := make(map[string]string, len(indices))
	if len(indices) == 0 {
		return types, nil
	}

	res, err := c.es.Indices.GetMapping(
		c.es.Indices.GetMapping.WithContext(ctx),
		c.es.Indices.GetMapping.WithIndex(indices...),
		c.es.Indices.GetMapping.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return nil, transportError("get_mapping", strings.Join(indices, ","), err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("get_mapping", strings.Join(indices, ","), res)
	}

	var body map[string]struct {
		Mappings struct {
			Meta struct {
				TypeName string `json:"type_name"`
			} `json:"_meta"`
		} `json:"mappings"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&body); decodeErr != nil {
		return nil, fmt.Errorf("decode mappings: %w", decodeErr)
	}

	for name, m := range body {
		if m.Mappings.Meta.TypeName != "" {
			types[name] = m.Mappings.Meta.TypeName
		}
	}
	return types, nil
}

func encode(v map[string]any) (io.Reader, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return bytes.NewReader(data), nil
}
