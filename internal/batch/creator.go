package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"storyloader/internal/logging"
	"storyloader/internal/services"
	"storyloader/internal/services/jira"
	"storyloader/internal/story"
)

// Stage names stamped on the context and logs.
const (
	StageEnsureEpics     = "ensure_epics"
	StageCreateStories   = "create_stories"
	StageAnnotateStories = "annotate_stories"
)

// AcceptanceHeading prefixes the comment that carries acceptance criteria.
const AcceptanceHeading = "*Acceptance Criteria*"

// Tracker is the subset of the remote client a batch needs.
type Tracker interface {
	CreateEpic(ctx context.Context, projectKey, title, description string) (string, error)
	CreateIssue(ctx context.Context, projectKey string, issue jira.IssueFields, parentKey string) (string, error)
	AddComment(ctx context.Context, issueKey, body string) error
}

// Observer receives each outcome as soon as it is known. A story whose
// annotation fails is delivered a second time with Warning set.
type Observer func(Outcome)

// Creator runs batches against one tracker.
type Creator struct {
	tracker  Tracker
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
	newID    func() string
	annotate bool
}

// Option customises a Creator.
type Option func(*Creator)

// WithObserver registers a callback for streaming progress.
func WithObserver(fn Observer) Option {
	return func(c *Creator) { c.observer = fn }
}

// WithClock overrides the report timestamps source.
func WithClock(now func() time.Time) Option {
	return func(c *Creator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator overrides batch id generation.
func WithIDGenerator(fn func() string) Option {
	return func(c *Creator) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithAnnotation toggles the acceptance-criteria comment stage.
func WithAnnotation(enabled bool) Option {
	return func(c *Creator) { c.annotate = enabled }
}

// NewCreator constructs a Creator. A nil logger discards output.
func NewCreator(tracker Tracker, logger *slog.Logger, opts ...Option) *Creator {
	c := &Creator{
		tracker:  tracker,
		logger:   logging.NewComponentLogger(logger, "batch"),
		now:      time.Now,
		newID:    uuid.NewString,
		annotate: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// epicResolution is the parent for one group's stories, or why there is none.
type epicResolution struct {
	group     story.Group
	parentKey string
	failure   string
}

// CreateBatch creates every story in order and returns the report. A non-empty
// epicKey places all stories under that existing epic; otherwise epics named
// by the stories are created first. The report covers every story even when
// the context is cancelled part way through.
func (c *Creator) CreateBatch(ctx context.Context, stories []story.Story, projectKey, epicKey string) Report {
	batchID := c.newID()
	projectKey = strings.ToUpper(strings.TrimSpace(projectKey))
	epicKey = strings.TrimSpace(epicKey)
	ctx = services.WithBatchID(ctx, batchID)
	ctx = services.WithProject(ctx, projectKey)
	started := c.now()

	batchLogger := logging.WithContext(ctx, c.logger)
	batchLogger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("stories", len(stories)),
		logging.String("epic_key", epicKey),
	)

	groups := story.GroupStories(stories, epicKey)
	var outcomes []Outcome

	resolved := c.ensureEpics(services.WithStage(ctx, StageEnsureEpics), groups, projectKey, &outcomes)
	created := c.createStories(services.WithStage(ctx, StageCreateStories), stories, resolved, projectKey, &outcomes)
	if c.annotate {
		c.annotateStories(services.WithStage(ctx, StageAnnotateStories), stories, created, outcomes)
	}

	report := Aggregate(outcomes)
	report.BatchID = batchID
	report.ProjectKey = projectKey
	report.EpicKey = epicKey
	report.StartedAt = started
	report.FinishedAt = c.now()

	batchLogger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("total", report.Total),
		logging.Int("successful", report.Successful),
		logging.Int("failed", report.Failed),
		logging.Int("warnings", report.Warnings),
		logging.Duration("duration", report.Duration()),
	)
	return report
}

func (c *Creator) ensureEpics(ctx context.Context, groups []story.Group, projectKey string, outcomes *[]Outcome) []epicResolution {
	logger := logging.WithContext(ctx, c.logger)
	resolved := make([]epicResolution, 0, len(groups))
	for _, group := range groups {
		res := epicResolution{group: group, parentKey: group.Key}
		if group.Standalone() || group.Key != "" {
			resolved = append(resolved, res)
			continue
		}

		description := fmt.Sprintf("Epic containing %d user stories", len(group.Members))
		key, err := c.createEpic(ctx, projectKey, group.Name, description)
		outcome := Outcome{LocalID: EpicLocalID, EpicName: group.Name, Title: group.Name}
		if err != nil {
			res.failure = errorDetail(err)
			outcome.Kind = KindEpicFailed
			outcome.Reason = ReasonEpicUnavailable
			outcome.ErrorDetail = res.failure
			logging.WarnWithContext(logger, "epic creation failed; member stories skipped", "epic_failed",
				logging.String("epic", group.Name),
				logging.Int("stories", len(group.Members)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
				logging.String(logging.FieldImpact, "stories in this epic were not created"),
			)
		} else {
			res.parentKey = key
			outcome.Kind = KindEpicCreated
			outcome.RemoteKey = key
			logger.Info("epic created",
				logging.String(logging.FieldEventType, "epic_created"),
				logging.String("epic", group.Name),
				logging.String("remote_key", key),
			)
		}
		c.record(outcomes, outcome)
		resolved = append(resolved, res)
	}
	return resolved
}

func (c *Creator) createEpic(ctx context.Context, projectKey, name, description string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", services.Wrap(services.ErrTransient, StageEnsureEpics, "create epic", "batch cancelled", err)
	}
	return c.tracker.CreateEpic(ctx, projectKey, name, description)
}

// createStories returns the remote key for each story index that was created.
func (c *Creator) createStories(ctx context.Context, stories []story.Story, resolved []epicResolution, projectKey string, outcomes *[]Outcome) map[int]string {
	logger := logging.WithContext(ctx, c.logger)
	created := make(map[int]string, len(stories))
	for _, res := range resolved {
		for _, idx := range res.group.Members {
			s := stories[idx]
			outcome := Outcome{
				LocalID:   idx,
				EpicName:  res.group.Name,
				Title:     s.Title,
				ParentKey: res.parentKey,
			}
			if res.failure != "" {
				outcome.Kind = KindStoryFailed
				outcome.Reason = ReasonEpicUnavailable
				outcome.ErrorDetail = fmt.Sprintf("epic %q unavailable: %s", res.group.Name, res.failure)
				c.record(outcomes, outcome)
				continue
			}

			key, err := c.createStory(ctx, projectKey, s, res.parentKey)
			if err != nil {
				outcome.Kind = KindStoryFailed
				outcome.Reason = ReasonStoryCreationFailed
				outcome.ErrorDetail = errorDetail(err)
				logging.WarnWithContext(logger, "story creation failed", "story_failed",
					logging.Int("story", idx+1),
					logging.String("title", s.Title),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, services.Hint(err)),
					logging.String(logging.FieldImpact, "story was not created; remaining stories continue"),
				)
				c.record(outcomes, outcome)
				continue
			}

			outcome.Kind = KindStoryCreated
			outcome.RemoteKey = key
			created[idx] = key
			logger.Info("story created",
				logging.String(logging.FieldEventType, "story_created"),
				logging.Int("story", idx+1),
				logging.String("title", s.Title),
				logging.String("remote_key", key),
			)
			c.record(outcomes, outcome)
		}
	}
	return created
}

func (c *Creator) createStory(ctx context.Context, projectKey string, s story.Story, parentKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", services.Wrap(services.ErrTransient, StageCreateStories, "create story", "batch cancelled", err)
	}
	return c.tracker.CreateIssue(ctx, projectKey, jira.FieldsFromStory(s), parentKey)
}

// annotateStories attaches acceptance criteria to created stories in input
// order. Failures become warnings on the existing outcome.
func (c *Creator) annotateStories(ctx context.Context, stories []story.Story, created map[int]string, outcomes []Outcome) {
	logger := logging.WithContext(ctx, c.logger)
	for _, pos := range createdInInputOrder(outcomes) {
		outcome := &outcomes[pos]
		criteria := strings.TrimSpace(stories[outcome.LocalID].AcceptanceCriteria)
		key := created[outcome.LocalID]
		if criteria == "" || key == "" {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = c.tracker.AddComment(ctx, key, AcceptanceHeading+"\n"+criteria)
		} else {
			err = services.Wrap(services.ErrTransient, StageAnnotateStories, "add comment", "batch cancelled", err)
		}
		if err == nil {
			logger.Debug("acceptance criteria attached", logging.String("remote_key", key))
			continue
		}
		outcome.Reason = ReasonAnnotationFailed
		outcome.Warning = "acceptance criteria not attached: " + errorDetail(err)
		logging.WarnWithContext(logger, "acceptance criteria comment failed", "story_annotation_failed",
			logging.String("remote_key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.String(logging.FieldImpact, "story exists without its acceptance criteria comment"),
		)
		c.emit(*outcome)
	}
}

// createdInInputOrder returns the positions of created story outcomes sorted
// by LocalID. Stories are created group by group, so outcomes of interleaved
// epics are not in input order.
func createdInInputOrder(outcomes []Outcome) []int {
	positions := make([]int, 0, len(outcomes))
	for pos, o := range outcomes {
		if o.Kind == KindStoryCreated {
			positions = append(positions, pos)
		}
	}
	sort.SliceStable(positions, func(i, j int) bool {
		return outcomes[positions[i]].LocalID < outcomes[positions[j]].LocalID
	})
	return positions
}

func (c *Creator) record(outcomes *[]Outcome, outcome Outcome) {
	*outcomes = append(*outcomes, outcome)
	c.emit(outcome)
}

func (c *Creator) emit(outcome Outcome) {
	if c.observer != nil {
		c.observer(outcome)
	}
}

// errorDetail prefers the provider's human-readable payload over the full
// wrapped error chain.
func errorDetail(err error) string {
	if err == nil {
		return ""
	}
	var detailed interface{ Detail() string }
	if errors.As(err, &detailed) {
		if detail := strings.TrimSpace(detailed.Detail()); detail != "" {
			return detail
		}
	}
	return err.Error()
}
