package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"storyloader/internal/history"
	"storyloader/internal/services"
)

const trackerCheckTimeout = 30 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckHistory opens the batch ledger, creating it when missing.
func CheckHistory(path string) Result {
	const name = "History database"
	store, err := history.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	_ = store.Close()
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckTracker verifies connectivity and credentials with a single attempt.
func CheckTracker(ctx context.Context, tracker Tracker) Result {
	const name = "Tracker credentials"

	checkCtx, cancel := context.WithTimeout(ctx, trackerCheckTimeout)
	defer cancel()

	user, err := tracker.CurrentUser(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeTrackerError(err)}
	}
	who := user.DisplayName
	if who == "" {
		who = user.Name
	}
	return Result{Name: name, Passed: true, Detail: "authenticated as " + who}
}

// CheckProject verifies the project exists and offers the issue types a
// batch creates.
func CheckProject(ctx context.Context, tracker Tracker, projectKey string, issueTypes ...string) Result {
	name := "Project " + projectKey

	checkCtx, cancel := context.WithTimeout(ctx, trackerCheckTimeout)
	defer cancel()

	project, err := tracker.Project(checkCtx, projectKey)
	if err != nil {
		return Result{Name: name, Detail: summarizeTrackerError(err)}
	}
	var missing []string
	for _, want := range issueTypes {
		if want = strings.TrimSpace(want); want != "" && !containsFold(project.IssueTypes, want) {
			missing = append(missing, want)
		}
	}
	detail := project.Name
	if project.Lead != "" {
		detail += ", lead " + project.Lead
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (missing issue types: %s)", detail, strings.Join(missing, ", "))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (issue types: %s)", detail, strings.Join(project.IssueTypes, ", "))}
}

// summarizeTrackerError produces a human-readable summary with the next step.
func summarizeTrackerError(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, services.ErrTimeout):
		return "timed out (tracker unresponsive)"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timed out (tracker unreachable)"
	}
	var detailed interface{ Detail() string }
	if errors.As(err, &detailed) {
		return fmt.Sprintf("%s; %s", detailed.Detail(), services.Hint(err))
	}
	return fmt.Sprintf("%v; %s", err, services.Hint(err))
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), want) {
			return true
		}
	}
	return false
}
