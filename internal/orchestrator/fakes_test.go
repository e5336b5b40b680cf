package orchestrator_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/mappings"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/naming"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/orchestrator"
)

// recorder is the shared, ordered call log of the fake cluster and gate.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// forIndex returns calls touching index, in order.
func (r *recorder) forIndex(index string) []string {
	var out []string
	for _, c := range r.all() {
		if _, target, ok := strings.Cut(c, ":"); ok && target == index {
			out = append(out, c)
		}
	}
	return out
}

func (r *recorder) count(prefix string) int {
	n := 0
	for _, c := range r.all() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (r *recorder) mutations() int {
	n := 0
	for _, c := range r.all() {
		op, _, _ := strings.Cut(c, ":")
		switch op {
		case "create", "mapping", "disable", "close", "settings", "open", "delete":
			n++
		}
	}
	return n
}

type fakeCluster struct {
	rec      *recorder
	version  string
	mu       sync.Mutex
	existing map[string]bool
	// fail maps "op:index" to the error that call returns.
	fail map[string]error
}

func newFakeCluster(rec *recorder) *fakeCluster {
	return &fakeCluster{rec: rec, version: "8.15.2", existing: map[string]bool{}, fail: map[string]error{}}
}

func (c *fakeCluster) call(op, index string) error {
	key := op + ":" + index
	c.rec.add(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fail[key]
}

func (c *fakeCluster) ServerVersion(context.Context) (string, error) {
	c.rec.add("version")
	return c.version, nil
}

func (c *fakeCluster) IndexExists(_ context.Context, index string) (bool, error) {
	if err := c.call("exists", index); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.existing[index], nil
}

func (c *fakeCluster) CreateIndex(_ context.Context, index string, _ map[string]any) (bool, error) {
	if err := c.call("create", index); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.existing[index] = true
	return true, nil
}

func (c *fakeCluster) PutMapping(_ context.Context, index string, mapping map[string]any) error {
	if dynamic, ok := mapping["dynamic"]; ok && dynamic == false && len(mapping) == 1 {
		return c.call("disable", index)
	}
	return c.call("mapping", index)
}

func (c *fakeCluster) CloseIndex(_ context.Context, index string) error {
	return c.call("close", index)
}

func (c *fakeCluster) OpenIndex(_ context.Context, index string) error {
	return c.call("open", index)
}

func (c *fakeCluster) PutSettings(_ context.Context, index string, _ map[string]any) error {
	return c.call("settings", index)
}

func (c *fakeCluster) DeleteIndex(_ context.Context, index string) error {
	if err := c.call("delete", index); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.existing[index] {
		return &domain.NotFoundError{Index: index}
	}
	delete(c.existing, index)
	return nil
}

type fakeGate struct {
	rec  *recorder
	mu   sync.Mutex
	fail map[string]error
}

func (g *fakeGate) WaitForStatus(_ context.Context, index string, _ time.Duration) (domain.HealthStatus, error) {
	g.rec.add("wait:" + index)
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail[index]; err != nil {
		return domain.HealthRed, err
	}
	return domain.HealthGreen, nil
}

type harness struct {
	rec     *recorder
	cluster *fakeCluster
	gate    *fakeGate
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	rec := &recorder{}
	return &harness{rec: rec, cluster: newFakeCluster(rec), gate: &fakeGate{rec: rec, fail: map[string]error{}}}
}

func (h *harness) orchestrator(t *testing.T, opts orchestrator.Options) *orchestrator.Orchestrator {
	t.Helper()
	reg, err := mappings.NewRegistry()
	require.NoError(t, err)

	return orchestrator.New(orchestrator.Deps{
		Cluster: h.cluster,
		Health:  h.gate,
		Names:   naming.NewResolver("commerce"),
		Types:   mappings.NewTypeResolver(reg),
		Bodies:  mappings.Settings{Shards: 1, Replicas: 0},
		Logger:  infralogger.NewNop(),
	}, opts)
}

func langs(codes ...string) []domain.Language {
	out := make([]domain.Language, 0, len(codes))
	for _, c := range codes {
		out = append(out, domain.Language{Code: c})
	}
	return out
}
