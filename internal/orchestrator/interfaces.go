// Package orchestrator sequences index lifecycle operations against the
// cluster: provisioning, tokenizer reconfiguration and deletion.
package orchestrator

import (
	"context"
	"time"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
)

// Cluster is the set of remote operations the workflows issue. Every call is
// a live query or mutation; implementations must not cache state.
type Cluster interface {
	ServerVersion(ctx context.Context) (string, error)
	IndexExists(ctx context.Context, index string) (bool, error)
	// CreateIndex returns false when the index was created concurrently by someone else.
	CreateIndex(ctx context.Context, index string, body map[string]any) (bool, error)
	PutMapping(ctx context.Context, index string, mapping map[string]any) error
	CloseIndex(ctx context.Context, index string) error
	OpenIndex(ctx context.Context, index string) error
	PutSettings(ctx context.Context, index string, settings map[string]any) error
	DeleteIndex(ctx context.Context, index string) error
}

// HealthGate blocks until an index is usable.
type HealthGate interface {
	WaitForStatus(ctx context.Context, index string, timeout time.Duration) (domain.HealthStatus, error)
}

// NameResolver derives physical index names.
type NameResolver interface {
	PhysicalName(cfg domain.IndexConfig, languageCode string) string
	CommerceName(cfg domain.IndexConfig, languageCode string) string
}

// TypeResolver decides the mapping type of a logical index.
type TypeResolver interface {
	Resolve(cfg domain.IndexConfig, all []domain.IndexConfig) (domain.ResolvedType, error)
}

// BodyBuilder renders request bodies.
type BodyBuilder interface {
	CreateBody(resolved domain.ResolvedType, languageCode string) map[string]any
	TokenizerSettings(tokenizer string) map[string]any
	DynamicDisabled() map[string]any
}
