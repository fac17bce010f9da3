package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"storyloader/internal/config"
	"storyloader/internal/notifications"
	"storyloader/internal/preflight"
	"storyloader/internal/services"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var projectFlag string
	var jsonOutput, notify bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify local directories, tracker credentials, and the target project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			client, err := ctx.trackerClient()
			if err != nil {
				return err
			}
			projectKey, _ := cfg.ValidateProject(projectFlag)

			results := preflight.RunAll(cmd.Context(), cfg, client, projectKey)
			if notify {
				results = append(results, checkNotification(cmd.Context(), cfg))
			}
			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				renderChecks(cmd.OutOrStdout(), cfg.Tracker.Server, results)
				if projectKey == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No project configured; pass --project to check one")
				} else if !preflight.Failed(results) {
					fmt.Fprintf(cmd.OutOrStdout(), "URL: %s\n", client.ProjectURL(projectKey))
				}
			}
			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectFlag, "project", "p", "", "Project key (defaults to tracker.project_key)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output check results as JSON")
	cmd.Flags().BoolVar(&notify, "notify", false, "Also send a test notification")
	return cmd
}

func checkNotification(ctx context.Context, cfg *config.Config) preflight.Result {
	result := preflight.Result{Name: "Notifications"}
	if cfg.Notifications.NtfyTopic == "" {
		result.Detail = "notifications.ntfy_topic is not set"
		return result
	}
	if err := notifications.NewService(cfg).TestNotification(ctx); err != nil {
		result.Detail = err.Error()
		return result
	}
	result.Passed = true
	result.Detail = "test sent to " + cfg.Notifications.NtfyTopic
	return result
}

func renderChecks(out io.Writer, server string, results []preflight.Result) {
	fmt.Fprintf(out, "Tracker: %s\n", server)
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := paint(colorize, ansiGreen, "ok")
		if !r.Passed {
			status = paint(colorize, ansiRed, "FAIL")
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
}

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects visible to the configured credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.trackerClient()
			if err != nil {
				return err
			}
			projects, err := client.ListProjects(cmd.Context())
			if err != nil {
				return withHint("list projects", err)
			}
			if jsonOutput {
				return writeJSON(cmd, projects)
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects visible")
				return nil
			}
			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{p.Key, p.Name, p.Lead})
			}
			fmt.Fprintln(out, renderTable([]string{"Key", "Name", "Lead"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output projects as JSON")
	return cmd
}

func newEpicsCommand(ctx *commandContext) *cobra.Command {
	var projectFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "epics",
		Short: "List epics in a project, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			projectKey, err := cfg.ValidateProject(projectFlag)
			if err != nil {
				return err
			}
			client, err := ctx.trackerClient()
			if err != nil {
				return err
			}
			epics, err := client.ListEpics(cmd.Context(), projectKey)
			if err != nil {
				return withHint("list epics", err)
			}
			if jsonOutput {
				return writeJSON(cmd, epics)
			}
			out := cmd.OutOrStdout()
			if len(epics) == 0 {
				fmt.Fprintf(out, "No epics in %s\n", projectKey)
				return nil
			}
			rows := make([][]string, 0, len(epics))
			for _, e := range epics {
				rows = append(rows, []string{e.Key, e.Summary, e.Status})
			}
			fmt.Fprintln(out, renderTable([]string{"Key", "Summary", "Status"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectFlag, "project", "p", "", "Project key (defaults to tracker.project_key)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output epics as JSON")
	return cmd
}

// withHint appends the operator hint for a tracker error.
func withHint(action string, err error) error {
	return fmt.Errorf("%s: %w (hint: %s)", action, err, services.Hint(err))
}
