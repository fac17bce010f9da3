package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"storyloader/internal/batch"
	"storyloader/internal/history"
	"storyloader/internal/logging"
	"storyloader/internal/notifications"
	"storyloader/internal/story"
)

// errBatchIncomplete makes the process exit non-zero when any story failed.
var errBatchIncomplete = errors.New("batch incomplete")

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var flags parseFlags
	var projectFlag, epicKey string
	var dryRun, jsonOutput, noComments bool

	cmd := &cobra.Command{
		Use:   "create <file|->",
		Short: "Create the stories in a document, and their epics, in the tracker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, source, err := parseInput(cmd, ctx, args[0], flags)
			if err != nil {
				return err
			}
			errOut := cmd.ErrOrStderr()
			renderDiagnostics(errOut, result.Diagnostics, shouldColorize(errOut))
			if len(result.Stories) == 0 {
				return fmt.Errorf("no stories found in %s", source)
			}

			out := cmd.OutOrStdout()
			if dryRun {
				groups := story.GroupStories(result.Stories, epicKey)
				if jsonOutput {
					return writeJSON(cmd, map[string]any{"dry_run": true, "stories": result.Stories, "groups": groups})
				}
				renderStories(out, result.Stories, groups, shouldColorize(out))
				fmt.Fprintf(out, "Dry run: %d stories parsed, nothing was created\n", len(result.Stories))
				return nil
			}

			projectKey, err := cfg.ValidateProject(projectFlag)
			if err != nil {
				return err
			}
			client, err := ctx.trackerClient()
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire batch lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another batch is running (lock %s)", cfg.LockPath())
			}
			defer func() { _ = lock.Unlock() }()

			logger := ctx.loggerValue()
			progress := io.Writer(out)
			if jsonOutput {
				progress = errOut
			}
			colorize := shouldColorize(progress)
			creator := batch.NewCreator(client, logger,
				batch.WithAnnotation(cfg.Stories.CommentAcceptance && !noComments),
				batch.WithObserver(func(o batch.Outcome) {
					fmt.Fprintln(progress, renderOutcome(o, colorize))
				}),
			)
			report := creator.CreateBatch(cmd.Context(), result.Stories, projectKey, epicKey)

			if cfg.History.Enabled {
				if err := recordHistory(cmd, cfg.History.Path, report, source); err != nil {
					logging.WarnWithContext(logger, "batch history not recorded", "history_record_failed",
						logging.String("batch_id", report.BatchID),
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check history.path permissions"),
						logging.String(logging.FieldImpact, "batch missing from 'storyloader history'"),
					)
				}
			}

			notifier := notifications.NewService(cfg)
			if err := notifier.NotifyBatchCompleted(context.WithoutCancel(cmd.Context()), report, client.ProjectURL(projectKey)); err != nil {
				logging.WarnWithContext(logger, "batch notification not sent", "notification_failed",
					logging.String("batch_id", report.BatchID),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
				)
			}

			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out)
				renderReport(out, report, client.ProjectURL(projectKey), client.IssueURL, shouldColorize(out))
			}
			if report.Failed > 0 {
				return fmt.Errorf("%w: %d of %d stories failed (batch %s)", errBatchIncomplete, report.Failed, report.Total, report.BatchID)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&projectFlag, "project", "p", "", "Project key (defaults to tracker.project_key)")
	cmd.Flags().StringVar(&epicKey, "epic", "", "Existing epic key to parent every story under")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and show the plan without creating anything")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the batch report as JSON")
	cmd.Flags().BoolVar(&noComments, "no-comments", false, "Skip the acceptance criteria comments")
	return cmd
}

func recordHistory(cmd *cobra.Command, path string, report batch.Report, source string) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	// An interrupted batch is still recorded.
	return store.Record(context.WithoutCancel(cmd.Context()), report, source)
}
