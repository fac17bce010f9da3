package story

import (
	"fmt"
	"strings"
)

// MaxTitleLength caps the issue summary length accepted by trackers.
const MaxTitleLength = 255

// Priority is one of the recognised priority names.
type Priority string

const (
	PriorityNone     Priority = ""
	PriorityCritical Priority = "Critical"
	PriorityBlocker  Priority = "Blocker"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

var priorities = []Priority{PriorityCritical, PriorityBlocker, PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority matches value case-insensitively against the recognised names.
func ParsePriority(value string) (Priority, bool) {
	value = strings.TrimSpace(value)
	for _, p := range priorities {
		if strings.EqualFold(value, string(p)) {
			return p, true
		}
	}
	return PriorityNone, false
}

// Story is a normalized user story ready for creation.
// StoryPoints of zero means no estimate was supplied.
type Story struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	AcceptanceCriteria string   `json:"acceptance_criteria,omitempty"`
	Priority           Priority `json:"priority,omitempty"`
	StoryPoints        int      `json:"story_points,omitempty"`
	EpicName           string   `json:"epic,omitempty"`
}

// HasEstimate reports whether a point estimate is present.
func (s Story) HasEstimate() bool {
	return s.StoryPoints > 0
}

// FragmentKind describes the shape of a raw fragment.
type FragmentKind int

const (
	// KindBlock is a multi-line free-form text section.
	KindBlock FragmentKind = iota
	// KindLine is a single story line from the epic-oriented text format.
	KindLine
	// KindRecord is a row or object whose fields were located by name.
	KindRecord
)

func (k FragmentKind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindLine:
		return "line"
	case KindRecord:
		return "record"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Fields carries the cell values of a tabular row or structured-document
// object. Empty strings mean the field was absent.
type Fields struct {
	Title              string
	Description        string
	AcceptanceCriteria string
	Priority           string
	Points             string
}

// Fragment is an unparsed chunk of input believed to describe one story.
// Index is the zero-based position in the fragment sequence and drives the
// placeholder title.
type Fragment struct {
	Index    int
	Kind     FragmentKind
	Text     string
	Fields   Fields
	EpicName string
}

// PlaceholderTitle returns the positional title used when extraction fails.
func PlaceholderTitle(index int) string {
	return fmt.Sprintf("Story %d", index+1)
}
