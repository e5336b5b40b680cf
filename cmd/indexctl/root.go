package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/admin"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/bootstrap"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

type rootOptions struct {
	configPath string
	debug      bool
	output     string
}

// session is what every subcommand needs: the admin gateway and a way to
// release it.
type session struct {
	comps *bootstrap.Components
	log   infralogger.Logger
	close func()
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "indexctl",
		Short:         "Manage the per-language search indices",
		Long:          "indexctl provisions, reconfigures and deletes the per-language Elasticsearch indices declared in config.yml.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format: table or json")

	root.AddCommand(
		newProvisionCommand(opts),
		newDeleteCommand(opts),
		newDeleteAllCommand(opts),
		newTokenizerCommand(opts),
		newStatusCommand(opts),
		newRunJobCommand(opts),
	)
	return root
}

func openSession(ctx context.Context, opts *rootOptions) (*session, error) {
	cfg, err := bootstrap.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	level := "warn"
	if opts.debug {
		level = "debug"
	}
	// Tables go to stdout, so logs go to stderr.
	log, err := infralogger.New(infralogger.Config{Level: level, OutputPaths: []string{"stderr"}})
	if err != nil {
		return nil, err
	}

	stopTracing, err := bootstrap.SetupTracing(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	es, err := bootstrap.SetupElasticsearch(ctx, cfg, log)
	if err != nil {
		stopTracing()
		return nil, err
	}

	history, closeDB, err := bootstrap.SetupHistory(ctx, cfg, log)
	if err != nil {
		stopTracing()
		return nil, err
	}

	comps, err := bootstrap.BuildComponents(cfg, es, history, log)
	if err != nil {
		_ = closeDB()
		stopTracing()
		return nil, err
	}

	return &session{
		comps: comps,
		log:   log,
		close: func() {
			comps.Close()
			_ = closeDB()
			stopTracing()
			_ = log.Sync()
		},
	}, nil
}

// withSession opens a session tagged with the local operator and runs fn.
func withSession(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, s *session) error) error {
	s, err := openSession(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer s.close()

	actor := os.Getenv("USER")
	if actor == "" {
		actor = "unknown"
	}
	return fn(admin.WithActor(cmd.Context(), "cli:"+actor), s)
}
