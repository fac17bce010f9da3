package story

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"storyloader/internal/textutil"
)

const (
	shortLineLimit    = 100
	derivedTitleLimit = 60
)

var (
	priorityToken    = regexp.MustCompile(`(?i)\[\s*(critical|blocker|high|medium|low)\s*\]`)
	pointsToken      = regexp.MustCompile(`\{\s*(\d+)\s*\}`)
	titleMarker      = regexp.MustCompile(`(?i)^(?:#{1,6}(?:[ \t]+|$)|title\s*:|story\s*:)\s*`)
	acceptanceMarker = regexp.MustCompile(`(?i)^\s*(?:#{1,6}\s*)?(?:\*\*)?(?:acceptance criteria\b(?:\*\*)?\s*:?(?:\*\*)?|ac\s*:)`)
	wantClause       = regexp.MustCompile(`(?i)\bI want to ([^,]+)`)
	soThatClause     = regexp.MustCompile(`(?i)\s+so that\b`)
)

// draft is the working state threaded through the extraction rules.
type draft struct {
	index int
	kind  FragmentKind
	body  string
	title string
	story Story
}

type rule func(draft) draft

// rules run in this order for every fragment kind.
var rules = []rule{
	extractPriority,
	extractPoints,
	extractTitle,
	splitAcceptance,
	finalize,
}

// Normalize converts a fragment into a Story.
func Normalize(f Fragment) Story {
	d := seed(f)
	for _, apply := range rules {
		d = apply(d)
	}
	return d.story
}

// NormalizeAll normalizes fragments in order.
func NormalizeAll(fragments []Fragment) []Story {
	stories := make([]Story, 0, len(fragments))
	for _, f := range fragments {
		stories = append(stories, Normalize(f))
	}
	return stories
}

func seed(f Fragment) draft {
	d := draft{
		index: f.Index,
		kind:  f.Kind,
		story: Story{EpicName: strings.TrimSpace(f.EpicName)},
	}
	if f.Kind != KindRecord {
		d.body = strings.TrimSpace(f.Text)
		return d
	}
	d.title = strings.TrimSpace(f.Fields.Title)
	d.body = strings.TrimSpace(f.Fields.Description)
	d.story.AcceptanceCriteria = strings.TrimSpace(f.Fields.AcceptanceCriteria)
	if p, ok := ParsePriority(f.Fields.Priority); ok {
		d.story.Priority = p
	}
	if n, err := strconv.Atoi(strings.TrimSpace(f.Fields.Points)); err == nil && n > 0 {
		d.story.StoryPoints = n
	}
	return d
}

func extractPriority(d draft) draft {
	found := PriorityNone
	visit := func(m []string) {
		if found == PriorityNone {
			found, _ = ParsePriority(m[1])
		}
	}
	d.title = stripTokens(d.title, priorityToken, visit)
	d.body = stripTokens(d.body, priorityToken, visit)
	if d.story.Priority == PriorityNone {
		d.story.Priority = found
	}
	return d
}

func extractPoints(d draft) draft {
	seen := false
	points := 0
	visit := func(m []string) {
		if seen {
			return
		}
		seen = true
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			points = n
		}
	}
	d.title = stripTokens(d.title, pointsToken, visit)
	d.body = stripTokens(d.body, pointsToken, visit)
	if d.story.StoryPoints == 0 {
		d.story.StoryPoints = points
	}
	return d
}

// stripTokens removes every match of re, reporting each submatch to visit in
// text order. Only lines that contained a token are re-spaced.
func stripTokens(text string, re *regexp.Regexp, visit func([]string)) string {
	if text == "" || !re.MatchString(text) {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		matches := re.FindAllStringSubmatch(line, -1)
		if len(matches) == 0 {
			continue
		}
		for _, m := range matches {
			visit(m)
		}
		lines[i] = textutil.CollapseSpaces(re.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractTitle(d draft) draft {
	switch d.kind {
	case KindRecord:
		return d
	case KindLine:
		d.title = deriveTitle(d.body)
		return d
	}

	first, rest := splitFirstLine(d.body)
	switch {
	case first == "":
		return d
	case acceptanceMarker.MatchString(first):
		// Criteria-only block: keep the placeholder title.
	case titleMarker.MatchString(first):
		d.title = titleMarker.ReplaceAllString(first, "")
		d.body = rest
	case rest == "":
		first = stripBullet(first)
		d.title = deriveTitle(first)
		d.body = first
	case utf8.RuneCountInString(first) < shortLineLimit:
		d.title = first
		d.body = rest
	}
	return d
}

func splitAcceptance(d draft) draft {
	if d.story.AcceptanceCriteria != "" {
		d.story.Description = d.body
		return d
	}
	d.story.Description, d.story.AcceptanceCriteria = SplitAcceptance(d.body)
	return d
}

func finalize(d draft) draft {
	title := textutil.CollapseSpaces(d.title)
	if title == "" {
		title = PlaceholderTitle(d.index)
	}
	d.story.Title = textutil.Truncate(title, MaxTitleLength, "...")
	d.story.Description = strings.TrimSpace(d.story.Description)
	d.story.AcceptanceCriteria = strings.TrimSpace(d.story.AcceptanceCriteria)
	return d
}

// SplitAcceptance separates body text at the first line that opens an
// acceptance-criteria section ("Acceptance Criteria" or "AC:"). The marker
// label is dropped; without a marker the whole body is the description.
func SplitAcceptance(body string) (description, criteria string) {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		loc := acceptanceMarker.FindStringIndex(line)
		if loc == nil {
			continue
		}
		head := strings.TrimSpace(line[loc[1]:])
		tail := lines[i+1:]
		if head != "" {
			tail = append([]string{head}, tail...)
		}
		description = strings.TrimSpace(strings.Join(lines[:i], "\n"))
		criteria = strings.TrimSpace(strings.Join(tail, "\n"))
		return description, criteria
	}
	return strings.TrimSpace(body), ""
}

// deriveTitle builds a short title from a single-line story, preferring the
// "I want to <action>" clause up to a comma or "so that".
func deriveTitle(text string) string {
	text = textutil.CollapseSpaces(text)
	if m := wantClause.FindStringSubmatch(text); m != nil {
		action := m[1]
		if loc := soThatClause.FindStringIndex(action); loc != nil {
			action = action[:loc[0]]
		}
		if action = strings.TrimSpace(action); action != "" {
			return textutil.Truncate(textutil.UpperFirst(action), derivedTitleLimit, "...")
		}
	}
	return textutil.Truncate(text, derivedTitleLimit, "...")
}

// stripBullet drops a leading "-" or "*" list marker.
func stripBullet(line string) string {
	for _, bullet := range []string{"- ", "* ", "-\t", "*\t"} {
		if strings.HasPrefix(line, bullet) {
			return strings.TrimSpace(line[len(bullet):])
		}
	}
	return line
}

func splitFirstLine(text string) (string, string) {
	first, rest, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(first), strings.TrimSpace(rest)
}
