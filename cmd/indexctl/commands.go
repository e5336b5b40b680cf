package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/admin"
)

const jobPollInterval = time.Second

var errNotConfirmed = errors.New("refusing to delete all managed indices without --force")

func newProvisionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create missing indices and apply mappings for every language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				res, err := s.comps.Admin.ProvisionAll(ctx)
				return printResult(cmd.OutOrStdout(), opts.output, res, err)
			})
		},
	}
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete one physical index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				res, err := s.comps.Admin.DeleteIndex(ctx, args[0])
				return printResult(cmd.OutOrStdout(), opts.output, res, err)
			})
		},
	}
}

func newDeleteAllCommand(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every managed index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				return errNotConfirmed
			}
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				res, err := s.comps.Admin.DeleteAllIndices(ctx)
				return printResult(cmd.OutOrStdout(), opts.output, res, err)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm deletion of all managed indices")
	return cmd
}

func newTokenizerCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "tokenizer <index> <tokenizer>",
		Short:   "Change the default analyzer's tokenizer (closes and reopens the index)",
		Example: "  indexctl tokenizer content-en whitespace",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				res, err := s.comps.Admin.ChangeTokenizer(ctx, args[0], args[1])
				return printResult(cmd.OutOrStdout(), opts.output, res, err)
			})
		},
	}
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cluster health, nodes and managed indices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				ov := s.comps.Admin.Overview(ctx)
				return printResult(cmd.OutOrStdout(), opts.output, &admin.Result{Action: "status", Overview: ov}, nil)
			})
		},
	}
}

func newRunJobCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run-job",
		Short: "Run the bulk indexing job and wait for it to finish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				res, err := s.comps.Admin.RunIndexJob(ctx)
				if err != nil {
					return printResult(cmd.OutOrStdout(), opts.output, res, err)
				}
				return waitForJob(ctx, cmd, s)
			})
		},
	}
}

// waitForJob blocks until the job started by run-job finishes, since the
// process owns the job's goroutine.
func waitForJob(ctx context.Context, cmd *cobra.Command, s *session) error {
	name := s.comps.Admin.IndexJobName()
	ticker := time.NewTicker(jobPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		info, err := s.comps.Jobs.Status(name)
		if err != nil {
			return err
		}
		if info.Running {
			continue
		}
		if info.Error != "" {
			return fmt.Errorf("job %q failed: %s", name, info.Error)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Job %q finished in %s\n", name, info.FinishedAt.Sub(info.StartedAt).Round(time.Millisecond))
		return nil
	}
}
