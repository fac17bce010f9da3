package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyloader/internal/services/jira"
	"storyloader/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAllAgainstFakeTracker(t *testing.T) {
	fake := testsupport.NewFakeTracker(t)
	cfg := testsupport.NewConfig(t, testsupport.WithTracker(fake))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	client := jira.NewClient(jira.Config{BaseURL: fake.URL(), Username: "u", APIToken: "t"})

	results := RunAll(context.Background(), cfg, client, "PROJ")
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %+v", results)
	}
	if Failed(results) {
		t.Fatalf("expected every check to pass: %+v", results)
	}
	project := results[4]
	if !strings.Contains(project.Detail, "lead Ada Lovelace") || !strings.Contains(project.Detail, "Epic, Story, Task") {
		t.Fatalf("unexpected project detail: %s", project.Detail)
	}
}

func TestRunAllReportsMissingProjectAndIssueTypes(t *testing.T) {
	fake := testsupport.NewFakeTracker(t)
	cfg := testsupport.NewConfig(t, testsupport.WithTracker(fake), testsupport.WithoutHistory())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	client := jira.NewClient(jira.Config{BaseURL: fake.URL(), Username: "u", APIToken: "t"})

	results := RunAll(context.Background(), cfg, client, "NOPE")
	last := results[len(results)-1]
	if last.Passed || !strings.Contains(last.Detail, "verify the project key") {
		t.Fatalf("expected not-found hint, got %+v", last)
	}

	cfg.Tracker.StoryIssueType = "User Story"
	last = RunAll(context.Background(), cfg, client, "PROJ")[3]
	if last.Passed || !strings.Contains(last.Detail, "missing issue types: User Story") {
		t.Fatalf("expected missing issue type, got %+v", last)
	}
}

func TestCheckTrackerRejectedCredentials(t *testing.T) {
	fake := testsupport.NewFakeTracker(t)
	client := jira.NewClient(jira.Config{BaseURL: fake.URL()})

	result := CheckTracker(context.Background(), client)
	if result.Passed {
		t.Fatal("expected failure without credentials")
	}
	if !strings.Contains(result.Detail, "authentication required") || !strings.Contains(result.Detail, "check tracker credentials") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestRunAllSkipsTrackerWhenNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	for _, r := range RunAll(context.Background(), cfg, nil, "PROJ") {
		if strings.HasPrefix(r.Name, "Tracker") || strings.HasPrefix(r.Name, "Project") {
			t.Fatalf("unexpected tracker check %+v", r)
		}
	}
}
