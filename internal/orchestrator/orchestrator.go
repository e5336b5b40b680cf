package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/go-version"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

const (
	defaultMinClusterMajor = 5
	defaultHealthTimeout   = 30 * time.Second
)

// Options tune the workflows.
type Options struct {
	CommerceEnabled        bool
	HealthTimeout          time.Duration
	TokenizerHealthTimeout time.Duration
	// Parallelism above 1 provisions independent pairs concurrently.
	Parallelism     int
	MinClusterMajor int
	// NeutralLanguage hosts language-independent configurations. When its
	// code is empty they are provisioned per language like any other.
	NeutralLanguage domain.Language
	// DeleteRate caps bulk deletions per second. Zero is unlimited.
	DeleteRate float64
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Cluster Cluster
	Health  HealthGate
	Names   NameResolver
	Types   TypeResolver
	Bodies  BodyBuilder
	Logger  infralogger.Logger
}

// Orchestrator runs the lifecycle workflows. It holds no cluster state.
type Orchestrator struct {
	cluster Cluster
	health  HealthGate
	names   NameResolver
	types   TypeResolver
	bodies  BodyBuilder
	logger  infralogger.Logger
	opts    Options
	deletes *rate.Limiter
}

// New builds an Orchestrator.
func New(deps Deps, opts Options) *Orchestrator {
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = defaultHealthTimeout
	}
	if opts.TokenizerHealthTimeout <= 0 {
		opts.TokenizerHealthTimeout = opts.HealthTimeout
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.MinClusterMajor <= 0 {
		opts.MinClusterMajor = defaultMinClusterMajor
	}
	log := deps.Logger
	if log == nil {
		log = infralogger.NewNop()
	}
	return &Orchestrator{
		cluster: deps.Cluster,
		health:  deps.Health,
		names:   deps.Names,
		types:   deps.Types,
		bodies:  deps.Bodies,
		logger:  log,
		opts:    opts,
		deletes: newDeleteLimiter(opts.DeleteRate),
	}
}

type pair struct {
	lang domain.Language
	cfg  domain.IndexConfig
}

// Provision ensures every physical index for configs × langs exists with the
// right mapping and dynamic-mapping policy.
//
// The version precondition is the only fatal error; it is returned before any
// mutation. Everything else is reported per pair in the Report, and one
// pair's failure never stops another. Use Report.Err for the aggregate.
func (o *Orchestrator) Provision(ctx context.Context, configs []domain.IndexConfig, langs []domain.Language) (*domain.Report, error) {
	if err := o.checkClusterVersion(ctx); err != nil {
		return nil, err
	}

	pairs := o.plan(configs, langs)
	report := &domain.Report{Pairs: make([]domain.PairResult, len(pairs))}

	o.logger.Info("Provisioning indices",
		infralogger.Int("configurations", len(configs)),
		infralogger.Int("languages", len(langs)),
		infralogger.Int("pairs", len(pairs)),
		infralogger.Bool("commerce_enabled", o.opts.CommerceEnabled),
		infralogger.Int("parallelism", o.opts.Parallelism),
	)

	if o.opts.Parallelism == 1 {
		for i, p := range pairs {
			report.Pairs[i] = o.runPair(ctx, p, configs)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(o.opts.Parallelism)
		for i, p := range pairs {
			g.Go(func() error {
				report.Pairs[i] = o.runPair(ctx, p, configs)
				return nil
			})
		}
		_ = g.Wait()
	}

	o.logger.Info("Provisioning finished",
		infralogger.Int("pairs", len(pairs)),
		infralogger.Int("failed", report.Failures()),
	)
	return report, nil
}

func (o *Orchestrator) checkClusterVersion(ctx context.Context) error {
	raw, err := o.cluster.ServerVersion(ctx)
	if err != nil {
		return fmt.Errorf("read cluster version: %w", err)
	}

	v, err := version.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("parse cluster version %q: %w", raw, err)
	}
	if segments := v.Segments(); len(segments) == 0 || segments[0] < o.opts.MinClusterMajor {
		o.logger.Error("Cluster version not supported",
			infralogger.String("version", raw),
			infralogger.Int("min_major", o.opts.MinClusterMajor),
		)
		return &domain.UnsupportedClusterVersionError{Version: raw, MinMajor: o.opts.MinClusterMajor}
	}
	return nil
}

// plan orders pairs language-major. Language-independent configurations run
// once under the neutral language after all regular pairs.
func (o *Orchestrator) plan(configs []domain.IndexConfig, langs []domain.Language) []pair {
	neutral := o.opts.NeutralLanguage.Code != ""
	pairs := make([]pair, 0, len(configs)*len(langs))
	for _, lang := range langs {
		for _, cfg := range configs {
			if neutral && cfg.LanguageIndependent {
				continue
			}
			pairs = append(pairs, pair{lang: lang, cfg: cfg})
		}
	}
	if neutral {
		for _, cfg := range configs {
			if cfg.LanguageIndependent {
				pairs = append(pairs, pair{lang: o.opts.NeutralLanguage, cfg: cfg})
			}
		}
	}
	return pairs
}

func (o *Orchestrator) runPair(ctx context.Context, p pair, all []domain.IndexConfig) domain.PairResult {
	res := domain.PairResult{
		Language: p.lang.Code,
		Config:   p.cfg.Name,
		Index:    o.names.PhysicalName(p.cfg, p.lang.Code),
	}
	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("not started: %w", err)
		return res
	}

	log := o.logger.With(
		infralogger.String("index_name", res.Index),
		infralogger.String("language", p.lang.Code),
		infralogger.String("config", p.cfg.Name),
	)

	o.provisionPair(ctx, p, all, &res, log)
	if res.Err != nil {
		log.Error("Provisioning failed", infralogger.Error(res.Err))
	}
	return res
}

func (o *Orchestrator) provisionPair(ctx context.Context, p pair, all []domain.IndexConfig, res *domain.PairResult, log infralogger.Logger) {
	resolved, err := o.types.Resolve(p.cfg, all)
	if err != nil {
		var tle *domain.TypeLoadError
		if !errors.As(err, &tle) {
			res.Err = err
			return
		}
		log.Warn("Mapping type could not be loaded, index stays unmapped", infralogger.Error(err))
		res.Warnings = append(res.Warnings, err.Error())
		resolved = domain.ResolvedType{Kind: domain.MappingUnresolved, Name: tle.TypeName}
	}
	res.Type = resolved.Kind
	res.TypeName = resolved.Name

	created, err := o.ensureIndex(ctx, res.Index, resolved, p.lang.Code, log)
	if err != nil {
		res.Err = err
		return
	}
	if created {
		res.Created = append(res.Created, res.Index)
	}

	// Once the cluster has been touched the sequence runs to its next barrier
	// even if the caller gives up.
	seq := context.WithoutCancel(ctx)

	switch {
	case resolved.Kind == domain.MappingCustomDeclared:
		if created && !o.wait(seq, res.Index, res, log) {
			return
		}
		log.Info("Applying mapping update", infralogger.String("type", resolved.Name))
		if err := o.cluster.PutMapping(seq, res.Index, resolved.Mapping); err != nil {
			res.Err = err
			return
		}
		o.wait(seq, res.Index, res, log)

	case o.opts.CommerceEnabled:
		res.CommerceIndex = o.names.CommerceName(p.cfg, p.lang.Code)
		clog := log.With(infralogger.String("commerce_index", res.CommerceIndex))
		commerceCreated, err := o.ensureIndex(seq, res.CommerceIndex, resolved, p.lang.Code, clog)
		if err != nil {
			res.Err = err
			return
		}
		if commerceCreated {
			res.Created = append(res.Created, res.CommerceIndex)
		}
		o.settle(seq, res.CommerceIndex, resolved, res, clog)

	default:
		o.settle(seq, res.Index, resolved, res, log)
	}
}

// ensureIndex creates index when the cluster says it is missing.
func (o *Orchestrator) ensureIndex(ctx context.Context, index string, resolved domain.ResolvedType, lang string, log infralogger.Logger) (bool, error) {
	exists, err := o.cluster.IndexExists(ctx, index)
	if err != nil {
		return false, err
	}
	if exists {
		log.Debug("Index exists", infralogger.String("target", index))
		return false, nil
	}

	log.Info("Creating index",
		infralogger.String("target", index),
		infralogger.String("type", resolved.Kind.String()),
	)
	return o.cluster.CreateIndex(ctx, index, o.bodies.CreateBody(resolved, lang))
}

// settle waits, disables dynamic mapping and waits again. Unresolved indices
// keep dynamic mapping and only get the first wait.
func (o *Orchestrator) settle(ctx context.Context, index string, resolved domain.ResolvedType, res *domain.PairResult, log infralogger.Logger) {
	if !o.wait(ctx, index, res, log) {
		return
	}
	if resolved.Kind == domain.MappingUnresolved {
		return
	}

	log.Info("Disabling dynamic mapping", infralogger.String("target", index))
	if err := o.cluster.PutMapping(ctx, index, o.bodies.DynamicDisabled()); err != nil {
		res.Err = err
		return
	}
	res.DynamicDisabled = append(res.DynamicDisabled, index)
	o.wait(ctx, index, res, log)
}

// wait runs the health barrier. A timeout is recorded as a warning and the
// pair goes on; any other failure ends the pair.
func (o *Orchestrator) wait(ctx context.Context, index string, res *domain.PairResult, log infralogger.Logger) bool {
	status, err := o.health.WaitForStatus(ctx, index, o.opts.HealthTimeout)
	if err == nil {
		log.Debug("Index healthy", infralogger.String("target", index), infralogger.String("status", status.String()))
		return true
	}

	var timeout *domain.HealthTimeoutError
	if errors.As(err, &timeout) {
		if !slices.Contains(res.Warnings, err.Error()) {
			res.Warnings = append(res.Warnings, err.Error())
		}
		return true
	}
	res.Err = err
	return false
}
