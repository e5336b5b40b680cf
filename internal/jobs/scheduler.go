package jobs

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

// Scheduler starts registry jobs on cron expressions.
type Scheduler struct {
	registry *Registry
	logger   infralogger.Logger
	parser   cron.Parser
	cron     *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewScheduler uses the standard 5-field format: minute hour dom month dow.
func NewScheduler(registry *Registry, log infralogger.Logger) *Scheduler {
	if log == nil {
		log = infralogger.NewNop()
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cl := cronLogger{log: log}
	return &Scheduler{
		registry: registry,
		logger:   log,
		parser:   parser,
		cron:     cron.New(cron.WithParser(parser), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		entries:  make(map[string]cron.EntryID),
	}
}

// Schedule replaces any existing schedule for the named job.
func (s *Scheduler) Schedule(name, spec string) error {
	if _, err := s.registry.Lookup(name); err != nil {
		return err
	}
	if _, err := s.parser.Parse(spec); err != nil {
		return fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[key(name)]; ok {
		s.cron.Remove(id)
	}

	id, err := s.cron.AddFunc(spec, func() {
		if err := s.registry.Start(name); err != nil {
			s.logger.Warn("Scheduled job not started", infralogger.String("job", name), infralogger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("add cron entry: %w", err)
	}
	s.entries[key(name)] = id

	s.logger.Info("Job scheduled",
		infralogger.String("job", name),
		infralogger.String("schedule", spec),
		infralogger.Any("next_run", s.cron.Entry(id).Next),
	)
	return nil
}

// Start runs the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron loop and waits for triggers in flight.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// cronLogger adapts the service logger to cron's logging interface.
type cronLogger struct {
	log infralogger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error("cron: "+msg, append(kvFields(keysAndValues), infralogger.Error(err))...)
}

func kvFields(kv []any) []infralogger.Field {
	fields := make([]infralogger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, infralogger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
