package batch_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"storyloader/internal/batch"
	"storyloader/internal/services"
	"storyloader/internal/services/jira"
	"storyloader/internal/story"
	"storyloader/internal/testsupport"
)

type call struct {
	op     string
	title  string
	parent string
}

// stubTracker records calls and fails the titles it is told to.
type stubTracker struct {
	calls        []call
	failTitles   map[string]error
	failComments error
	next         int
	cancel       func()
	cancelAfter  int
}

func (s *stubTracker) CreateEpic(_ context.Context, project, title, _ string) (string, error) {
	s.calls = append(s.calls, call{op: "epic", title: title})
	return s.result(project, title)
}

func (s *stubTracker) CreateIssue(_ context.Context, project string, issue jira.IssueFields, parent string) (string, error) {
	s.calls = append(s.calls, call{op: "issue", title: issue.Summary, parent: parent})
	return s.result(project, issue.Summary)
}

func (s *stubTracker) AddComment(_ context.Context, key, _ string) error {
	s.calls = append(s.calls, call{op: "comment", title: key})
	return s.failComments
}

func (s *stubTracker) result(project, title string) (string, error) {
	if s.cancel != nil && len(s.calls) == s.cancelAfter {
		s.cancel()
	}
	if err := s.failTitles[title]; err != nil {
		return "", err
	}
	s.next++
	return fmt.Sprintf("%s-%d", project, s.next), nil
}

func stories(titles ...string) []story.Story {
	out := make([]story.Story, 0, len(titles))
	for _, title := range titles {
		out = append(out, story.Story{Title: title})
	}
	return out
}

func fixedCreator(tracker batch.Tracker, opts ...batch.Option) *batch.Creator {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	base := []batch.Option{
		batch.WithIDGenerator(func() string { return "batch-1" }),
		batch.WithClock(func() time.Time {
			tick++
			return start.Add(time.Duration(tick) * time.Second)
		}),
	}
	return batch.NewCreator(tracker, nil, append(base, opts...)...)
}

func TestCreateBatchIsolatesSingleFailure(t *testing.T) {
	tracker := &stubTracker{failTitles: map[string]error{
		"Three": services.Wrap(services.ErrValidation, "jira", "create issue", "", errors.New("summary: too long")),
	}}
	report := fixedCreator(tracker).CreateBatch(context.Background(), stories("One", "Two", "Three", "Four", "Five"), "proj", "")

	if report.Total != 5 || report.Successful != 4 || report.Failed != 1 {
		t.Fatalf("counts = %d/%d/%d, want 5/4/1", report.Total, report.Successful, report.Failed)
	}
	for i, o := range report.Stories {
		if o.LocalID != i {
			t.Fatalf("story %d has LocalID %d", i, o.LocalID)
		}
		if i == 2 {
			if o.Kind != batch.KindStoryFailed || o.RemoteKey != "" || o.ErrorDetail == "" {
				t.Fatalf("story 3 outcome = %+v", o)
			}
			if o.Reason != batch.ReasonStoryCreationFailed {
				t.Fatalf("reason = %q", o.Reason)
			}
			continue
		}
		if o.Kind != batch.KindStoryCreated || o.RemoteKey == "" || o.ErrorDetail != "" {
			t.Fatalf("story %d outcome = %+v", i+1, o)
		}
	}
	if report.BatchID != "batch-1" || report.ProjectKey != "PROJ" {
		t.Fatalf("report identity = %q/%q", report.BatchID, report.ProjectKey)
	}
	if report.Duration() <= 0 {
		t.Fatalf("expected positive duration, got %v", report.Duration())
	}
	if len(tracker.calls) != 5 {
		t.Fatalf("expected 5 create calls, got %d", len(tracker.calls))
	}
}

func TestCreateBatchEpicFailureSkipsMembers(t *testing.T) {
	tracker := &stubTracker{failTitles: map[string]error{
		"Reporting": services.Wrap(services.ErrTransient, "jira", "create epic", "", errors.New("503")),
	}}
	input := []story.Story{
		{Title: "Sign in", EpicName: "Authentication"},
		{Title: "Export", EpicName: "Reporting"},
		{Title: "Sign out", EpicName: "Authentication"},
		{Title: "Charts", EpicName: "Reporting"},
	}
	report := fixedCreator(tracker).CreateBatch(context.Background(), input, "PROJ", "")

	wantCalls := []call{
		{op: "epic", title: "Authentication"},
		{op: "epic", title: "Reporting"},
		{op: "issue", title: "Sign in", parent: "PROJ-1"},
		{op: "issue", title: "Sign out", parent: "PROJ-1"},
	}
	if diff := cmp.Diff(wantCalls, tracker.calls, cmp.AllowUnexported(call{})); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	if report.Successful != 2 || report.Failed != 2 {
		t.Fatalf("counts = %d/%d", report.Successful, report.Failed)
	}
	for _, idx := range []int{1, 3} {
		o := report.Stories[idx]
		if o.Reason != batch.ReasonEpicUnavailable || !strings.Contains(o.ErrorDetail, `epic "Reporting" unavailable`) {
			t.Fatalf("story %d outcome = %+v", idx, o)
		}
	}
	if len(report.Epics) != 2 || report.Epics[1].Kind != batch.KindEpicFailed || report.Epics[0].RemoteKey != "PROJ-1" {
		t.Fatalf("epics = %+v", report.Epics)
	}
}

func TestCreateBatchUsesSuppliedEpicKey(t *testing.T) {
	tracker := &stubTracker{}
	input := []story.Story{{Title: "A", EpicName: "Ignored"}, {Title: "B"}}
	report := fixedCreator(tracker).CreateBatch(context.Background(), input, "PROJ", "PROJ-99")

	for _, c := range tracker.calls {
		if c.op == "epic" {
			t.Fatalf("no epic should be created, got %+v", tracker.calls)
		}
		if c.parent != "PROJ-99" {
			t.Fatalf("parent = %q, want PROJ-99", c.parent)
		}
	}
	if len(report.Epics) != 0 || report.EpicKey != "PROJ-99" {
		t.Fatalf("report epics = %+v key = %q", report.Epics, report.EpicKey)
	}
}

func TestCreateBatchStandaloneStoriesHaveNoParent(t *testing.T) {
	tracker := &stubTracker{}
	fixedCreator(tracker).CreateBatch(context.Background(), stories("A", "B"), "PROJ", "")
	for _, c := range tracker.calls {
		if c.op != "issue" || c.parent != "" {
			t.Fatalf("unexpected call %+v", c)
		}
	}
}

func TestCreateBatchAnnotationFailureIsWarning(t *testing.T) {
	tracker := &stubTracker{failComments: services.Wrap(services.ErrConfiguration, "jira", "add comment", "", errors.New("forbidden"))}
	input := []story.Story{
		{Title: "With criteria", AcceptanceCriteria: "Given a user"},
		{Title: "Without criteria"},
	}
	var observed []batch.Outcome
	report := fixedCreator(tracker, batch.WithObserver(func(o batch.Outcome) {
		observed = append(observed, o)
	})).CreateBatch(context.Background(), input, "PROJ", "")

	if report.Successful != 2 || report.Failed != 0 || report.Warnings != 1 {
		t.Fatalf("counts = %d/%d/%d", report.Successful, report.Failed, report.Warnings)
	}
	first := report.Stories[0]
	if first.Kind != batch.KindStoryCreated || first.Reason != batch.ReasonAnnotationFailed || first.Warning == "" {
		t.Fatalf("first outcome = %+v", first)
	}
	if report.Stories[1].Warning != "" {
		t.Fatalf("second story should have no warning: %+v", report.Stories[1])
	}
	if len(observed) != 3 || observed[2].Warning == "" || observed[2].LocalID != 0 {
		t.Fatalf("observer saw %+v", observed)
	}
}

func TestCreateBatchAnnotatesInInputOrder(t *testing.T) {
	tracker := &stubTracker{}
	input := []story.Story{
		{Title: "A", EpicName: "Alpha", AcceptanceCriteria: "a done"},
		{Title: "B", EpicName: "Beta", AcceptanceCriteria: "b done"},
		{Title: "C", EpicName: "Alpha", AcceptanceCriteria: "c done"},
	}
	report := fixedCreator(tracker).CreateBatch(context.Background(), input, "PROJ", "")
	if report.Successful != 3 {
		t.Fatalf("expected 3 created stories, got %+v", report)
	}

	var comments []string
	for _, c := range tracker.calls {
		if c.op == "comment" {
			comments = append(comments, c.title)
		}
	}
	want := []string{report.Stories[0].RemoteKey, report.Stories[1].RemoteKey, report.Stories[2].RemoteKey}
	if diff := cmp.Diff(want, comments); diff != "" {
		t.Fatalf("comment order mismatch (-want +got):\n%s", diff)
	}
	if want[1] != "PROJ-5" {
		t.Fatalf("story B should be created last, got key %s", want[1])
	}
}

func TestCreateBatchAnnotationDisabled(t *testing.T) {
	tracker := &stubTracker{}
	input := []story.Story{{Title: "A", AcceptanceCriteria: "done"}}
	fixedCreator(tracker, batch.WithAnnotation(false)).CreateBatch(context.Background(), input, "PROJ", "")
	for _, c := range tracker.calls {
		if c.op == "comment" {
			t.Fatal("comment should not be attempted when annotation is disabled")
		}
	}
}

func TestCreateBatchCancelledContextStillReportsEveryStory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tracker := &stubTracker{cancel: cancel, cancelAfter: 2}

	report := fixedCreator(tracker).CreateBatch(ctx, stories("A", "B", "C", "D"), "PROJ", "")

	if report.Total != 4 || report.Successful != 2 || report.Failed != 2 {
		t.Fatalf("counts = %d/%d/%d", report.Total, report.Successful, report.Failed)
	}
	if len(tracker.calls) != 2 {
		t.Fatalf("no calls expected after cancellation, got %d", len(tracker.calls))
	}
	if !strings.Contains(report.Stories[3].ErrorDetail, "batch cancelled") {
		t.Fatalf("detail = %q", report.Stories[3].ErrorDetail)
	}
}

func TestCreateBatchEmptyInput(t *testing.T) {
	report := fixedCreator(&stubTracker{}).CreateBatch(context.Background(), nil, "PROJ", "")
	if report.Total != 0 || report.Successful != 0 || report.Failed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestCreateBatchAgainstFakeTracker(t *testing.T) {
	fake := testsupport.NewFakeTracker(t)
	fake.FailSummary("Broken", http.StatusBadRequest, "Field 'summary' is invalid")
	client := jira.NewClient(jira.Config{BaseURL: fake.URL(), Username: "u", APIToken: "t"})

	input := []story.Story{
		{Title: "Login", Description: "As a user", AcceptanceCriteria: "User enters credentials", Priority: story.PriorityCritical, StoryPoints: 3, EpicName: "Auth"},
		{Title: "Broken", EpicName: "Auth"},
	}
	report := batch.NewCreator(client, nil).CreateBatch(context.Background(), input, "PROJ", "")

	if report.Successful != 1 || report.Failed != 1 {
		t.Fatalf("counts = %d/%d: %+v", report.Successful, report.Failed, report.Stories)
	}
	if got := report.Stories[1].ErrorDetail; got != "Field 'summary' is invalid" {
		t.Fatalf("error detail = %q", got)
	}

	issues := fake.Issues()
	if len(issues) != 2 {
		t.Fatalf("expected epic and story, got %+v", issues)
	}
	epic, created := issues[0], issues[1]
	if epic.IssueType != "Epic" || epic.Description != "Epic containing 2 user stories" {
		t.Fatalf("epic = %+v", epic)
	}
	if created.ParentKey != epic.Key || created.Priority != "Highest" {
		t.Fatalf("story = %+v", created)
	}
	if points, _ := created.Fields["customfield_10016"].(float64); points != 3 {
		t.Fatalf("points field = %v", created.Fields["customfield_10016"])
	}
	comments := fake.Comments(created.Key)
	if len(comments) != 1 || comments[0] != batch.AcceptanceHeading+"\nUser enters credentials" {
		t.Fatalf("comments = %q", comments)
	}
}
