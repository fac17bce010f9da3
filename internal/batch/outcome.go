package batch

import (
	"fmt"
	"sort"
	"time"
)

// OutcomeKind classifies one attempted remote issue.
type OutcomeKind string

const (
	KindEpicCreated  OutcomeKind = "epic_created"
	KindEpicFailed   OutcomeKind = "epic_failed"
	KindStoryCreated OutcomeKind = "story_created"
	KindStoryFailed  OutcomeKind = "story_failed"
)

// Reason names why a story failed or carries a warning.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonEpicUnavailable     Reason = "epic_unavailable"
	ReasonStoryCreationFailed Reason = "story_creation_failed"
	ReasonAnnotationFailed    Reason = "annotation_failed"
)

// EpicLocalID marks outcomes that describe an epic rather than a story.
const EpicLocalID = -1

// Outcome is the result of one remote create call.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`
	// LocalID is the story's index in the submitted sequence, or EpicLocalID.
	LocalID     int    `json:"local_id"`
	EpicName    string `json:"epic_name,omitempty"`
	Title       string `json:"title"`
	RemoteKey   string `json:"remote_key,omitempty"`
	ParentKey   string `json:"parent_key,omitempty"`
	Reason      Reason `json:"reason,omitempty"`
	ErrorDetail string `json:"error_detail,omitempty"`
	// Warning holds the annotation failure for a story that was created.
	Warning string `json:"warning,omitempty"`
}

// Succeeded reports whether the outcome produced a remote issue.
func (o Outcome) Succeeded() bool {
	return o.Kind == KindStoryCreated || o.Kind == KindEpicCreated
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindEpicCreated, KindStoryCreated:
		return fmt.Sprintf("%s %s %q", o.Kind, o.RemoteKey, o.Title)
	default:
		return fmt.Sprintf("%s %q: %s", o.Kind, o.Title, o.ErrorDetail)
	}
}

// Report aggregates the outcomes of one batch. Stories are in input order.
type Report struct {
	BatchID    string    `json:"batch_id"`
	ProjectKey string    `json:"project_key"`
	EpicKey    string    `json:"epic_key,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Warnings   int       `json:"warnings"`
	Epics      []Outcome `json:"epics"`
	Stories    []Outcome `json:"stories"`
}

// Duration is the wall time between start and finish.
func (r Report) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailedStories returns the failed story outcomes in input order.
func (r Report) FailedStories() []Outcome {
	var out []Outcome
	for _, o := range r.Stories {
		if o.Kind == KindStoryFailed {
			out = append(out, o)
		}
	}
	return out
}

// Aggregate folds outcomes into a report. Epic outcomes keep their order;
// story outcomes are sorted by LocalID. Counts only consider stories.
func Aggregate(outcomes []Outcome) Report {
	var report Report
	for _, o := range outcomes {
		switch o.Kind {
		case KindEpicCreated, KindEpicFailed:
			report.Epics = append(report.Epics, o)
		case KindStoryCreated:
			report.Successful++
			if o.Warning != "" {
				report.Warnings++
			}
			report.Stories = append(report.Stories, o)
		case KindStoryFailed:
			report.Failed++
			report.Stories = append(report.Stories, o)
		}
	}
	sort.SliceStable(report.Stories, func(i, j int) bool {
		return report.Stories[i].LocalID < report.Stories[j].LocalID
	})
	report.Total = len(report.Stories)
	return report
}
