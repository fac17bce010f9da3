package preflight

import (
	"context"
	"strings"

	"storyloader/internal/config"
	"storyloader/internal/services/jira"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Tracker is the read-only client surface the checks use.
type Tracker interface {
	CurrentUser(ctx context.Context) (jira.User, error)
	Project(ctx context.Context, projectKey string) (jira.Project, error)
}

// RunAll executes every applicable check. Tracker checks are skipped when
// tracker is nil; the project check is skipped when projectKey is empty or
// the credentials were rejected.
func RunAll(ctx context.Context, cfg *config.Config, tracker Tracker, projectKey string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.History.Enabled {
		results = append(results, CheckHistory(cfg.History.Path))
	}
	if tracker == nil {
		return results
	}

	auth := CheckTracker(ctx, tracker)
	results = append(results, auth)
	if !auth.Passed || strings.TrimSpace(projectKey) == "" {
		return results
	}
	results = append(results, CheckProject(ctx, tracker, projectKey,
		cfg.Tracker.EpicIssueType, cfg.Tracker.StoryIssueType))
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
