// Package admin is the administrative gateway: every action runs the matching
// orchestrator workflow, records it in the audit history and returns the
// current cluster overview, whether or not the action succeeded.
package admin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/naming"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/telemetry"
)

// ErrInvalidRequest marks caller input the service refuses before touching
// the cluster.
var ErrInvalidRequest = errors.New("invalid request")

// Orchestrator runs the cluster workflows.
type Orchestrator interface {
	Provision(ctx context.Context, configs []domain.IndexConfig, langs []domain.Language) (*domain.Report, error)
	ChangeTokenizer(ctx context.Context, index, tokenizer string) error
	DeleteIndex(ctx context.Context, index string) error
	DeleteAll(ctx context.Context, indices []string) []domain.DeleteResult
}

// ClusterView reads what the overview shows.
type ClusterView interface {
	Health(ctx context.Context, index string) (domain.ClusterHealth, error)
	Nodes(ctx context.Context) ([]domain.Node, error)
	ListIndices(ctx context.Context) ([]domain.PhysicalIndex, error)
	MappingTypes(ctx context.Context, indices ...string) (map[string]string, error)
}

// Languages is the language catalog.
type Languages interface {
	Enabled() []domain.Language
	Codes() []string
}

// JobRunner starts named background jobs.
type JobRunner interface {
	Start(name string) error
}

// History is the audit trail of administrative actions.
type History interface {
	Start(ctx context.Context, op *domain.Operation) error
	Finish(ctx context.Context, id, status string, opErr error) error
	ListRecent(ctx context.Context, limit int) ([]domain.Operation, error)
}

// Config carries the managed configuration set.
type Config struct {
	Indices      []domain.IndexConfig
	IndexJobName string
}

// Deps are the collaborators of a Service.
type Deps struct {
	Orchestrator Orchestrator
	Cluster      ClusterView
	Languages    Languages
	Names        *naming.Resolver
	Jobs         JobRunner
	History      History
	Telemetry    *telemetry.Provider
	Logger       infralogger.Logger
}

// Service implements the administrative actions.
type Service struct {
	orch      Orchestrator
	cluster   ClusterView
	languages Languages
	names     *naming.Resolver
	jobs      JobRunner
	history   History
	telemetry *telemetry.Provider
	logger    infralogger.Logger
	cfg       Config
}

// Result is returned by every action. Overview is always filled in.
type Result struct {
	Action      string                `json:"action"`
	OperationID string                `json:"operation_id,omitempty"`
	Status      string                `json:"status"`
	Report      *domain.Report        `json:"report,omitempty"`
	Deleted     []domain.DeleteResult `json:"deleted,omitempty"`
	Overview    domain.Overview       `json:"overview"`
}

// NewService wires a Service. A nil History records nothing.
func NewService(deps Deps, cfg Config) *Service {
	if deps.History == nil {
		deps.History = NopHistory{}
	}
	if deps.Telemetry == nil {
		deps.Telemetry = telemetry.NewProvider()
	}
	if deps.Logger == nil {
		deps.Logger = infralogger.NewNop()
	}
	if deps.Names == nil {
		deps.Names = naming.NewResolver(naming.DefaultCommerceSuffix)
	}
	return &Service{
		orch:      deps.Orchestrator,
		cluster:   deps.Cluster,
		languages: deps.Languages,
		names:     deps.Names,
		jobs:      deps.Jobs,
		history:   deps.History,
		telemetry: deps.Telemetry,
		logger:    deps.Logger,
		cfg:       cfg,
	}
}

// ProvisionAll provisions every configuration for every enabled language.
// A partially failed run returns the report together with the joined pair
// errors.
func (s *Service) ProvisionAll(ctx context.Context) (*Result, error) {
	return s.run(ctx, domain.ActionProvision, "", func(ctx context.Context, res *Result) error {
		report, err := s.orch.Provision(ctx, s.cfg.Indices, s.languages.Enabled())
		if err != nil {
			return err
		}
		res.Report = report
		s.telemetry.RecordReport(report)
		return report.Err()
	})
}

// DeleteIndex deletes one physical index.
func (s *Service) DeleteIndex(ctx context.Context, index string) (*Result, error) {
	index = strings.TrimSpace(index)
	return s.run(ctx, domain.ActionDeleteIndex, index, func(ctx context.Context, _ *Result) error {
		if index == "" {
			return fmt.Errorf("%w: index name is required", ErrInvalidRequest)
		}
		return s.orch.DeleteIndex(ctx, index)
	})
}

// DeleteAllIndices deletes every managed physical index. Foreign and system
// indices are never touched.
func (s *Service) DeleteAllIndices(ctx context.Context) (*Result, error) {
	return s.run(ctx, domain.ActionDeleteAll, "", func(ctx context.Context, res *Result) error {
		managed, err := s.managedIndexNames(ctx)
		if err != nil {
			return err
		}
		res.Deleted = s.orch.DeleteAll(ctx, managed)

		var errs []error
		for _, d := range res.Deleted {
			if d.Err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", d.Index, d.Err))
			}
		}
		return errors.Join(errs...)
	})
}

// ChangeTokenizer changes the default analyzer's tokenizer on index.
func (s *Service) ChangeTokenizer(ctx context.Context, index, tokenizer string) (*Result, error) {
	index = strings.TrimSpace(index)
	tokenizer = strings.TrimSpace(tokenizer)
	return s.run(ctx, domain.ActionChangeTokenizer, index, func(ctx context.Context, _ *Result) error {
		if index == "" || tokenizer == "" {
			return fmt.Errorf("%w: index name and tokenizer are required", ErrInvalidRequest)
		}
		return s.orch.ChangeTokenizer(ctx, index, tokenizer)
	})
}

// RunIndexJob starts the bulk indexing job in the background.
func (s *Service) RunIndexJob(ctx context.Context) (*Result, error) {
	return s.run(ctx, domain.ActionRunIndexJob, s.cfg.IndexJobName, func(context.Context, *Result) error {
		if s.jobs == nil {
			return fmt.Errorf("%w: no job runner configured", ErrInvalidRequest)
		}
		return s.jobs.Start(s.cfg.IndexJobName)
	})
}

// IndexJobName is the registry name RunIndexJob starts.
func (s *Service) IndexJobName() string {
	return s.cfg.IndexJobName
}

// History lists recent administrative operations, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]domain.Operation, error) {
	return s.history.ListRecent(ctx, limit)
}

func (s *Service) managedIndexNames(ctx context.Context) ([]string, error) {
	live, err := s.cluster.ListIndices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indices: %w", err)
	}
	codes := s.languages.Codes()
	names := make([]string, 0, len(live))
	for _, idx := range live {
		if _, ok := s.names.Parse(idx.Name, s.cfg.Indices, codes); ok {
			names = append(names, idx.Name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// run audits, traces and counts one action, then attaches the overview.
func (s *Service) run(ctx context.Context, action, target string, fn func(context.Context, *Result) error) (*Result, error) {
	log := infralogger.FromContext(ctx, s.logger).With(infralogger.String("action", action))
	if target != "" {
		log = log.With(infralogger.String("index_name", target))
	}

	op := &domain.Operation{Action: action, Target: target, Actor: ActorFrom(ctx)}
	if err := s.history.Start(ctx, op); err != nil {
		log.Warn("Failed to record operation start", infralogger.Error(err))
	}
	res := &Result{Action: action, OperationID: op.ID}

	spanCtx, span := s.telemetry.StartSpan(ctx, "admin."+action,
		attribute.String("admin.action", action),
		attribute.String("index.name", target),
	)
	log.Info("Admin action started", infralogger.String("actor", op.Actor))
	err := fn(spanCtx, res)
	telemetry.EndSpan(span, err)

	res.Status = status(res, err)
	s.telemetry.RecordAdminAction(action, res.Status)
	if err != nil {
		log.Error("Admin action failed", infralogger.String("status", res.Status), infralogger.Error(err))
	} else {
		log.Info("Admin action finished")
	}

	// The outcome is recorded even if the caller has gone away.
	if finishErr := s.history.Finish(context.WithoutCancel(ctx), op.ID, res.Status, err); finishErr != nil {
		log.Warn("Failed to record operation result", infralogger.Error(finishErr))
	}

	res.Overview = s.Overview(context.WithoutCancel(ctx))
	return res, err
}

func status(res *Result, err error) string {
	if err == nil {
		return domain.OperationSucceeded
	}
	if res.Report != nil && res.Report.Failures() < len(res.Report.Pairs) {
		return domain.OperationPartial
	}
	if len(res.Deleted) > 0 {
		for _, d := range res.Deleted {
			if d.Err == nil {
				return domain.OperationPartial
			}
		}
	}
	return domain.OperationFailed
}

type actorKey struct{}

// WithActor tags ctx with the operator running an action.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the operator stored by WithActor.
func ActorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
