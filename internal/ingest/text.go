package ingest

import (
	"regexp"
	"strings"

	"storyloader/internal/story"
)

var separatorLine = regexp.MustCompile(`^(?:-{3,}|={3,})$`)

func isSeparator(line string) bool {
	return separatorLine.MatchString(line)
}

// isFreeformComment matches "//" lines, "#tag" lines with no space after the
// hash, and lines made only of hashes. "# Heading" is a title marker.
func isFreeformComment(line string) bool {
	if strings.HasPrefix(line, "//") {
		return true
	}
	if !strings.HasPrefix(line, "#") {
		return false
	}
	rest := strings.TrimLeft(line, "#")
	if rest == "" {
		return true
	}
	return len(rest) == len(line)-1 && rest[0] != ' ' && rest[0] != '\t'
}

// parseFreeform splits text into sections on blank-line runs and horizontal
// rules. Comment lines are dropped; sections left empty, or holding only
// "# Heading" lines with no body, produce nothing. Marker lines, when markers
// are given, end the current section and name the epic of the sections after
// them.
func parseFreeform(text string, markers []string) []story.Fragment {
	var (
		fragments []story.Fragment
		current   []string
		epic      string
	)
	flush := func() {
		if len(current) == 0 || headingsOnly(current) {
			current = nil
			return
		}
		fragments = append(fragments, story.Fragment{
			Index:    len(fragments),
			Kind:     story.KindBlock,
			Text:     strings.Join(current, "\n"),
			EpicName: epic,
		})
		current = nil
	}
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if name, ok := epicMarker(line, markers); ok {
			flush()
			if name == "" {
				name = story.UngroupedEpic
			}
			epic = name
			continue
		}
		switch {
		case line == "" || isSeparator(line):
			flush()
		case isFreeformComment(line):
		default:
			current = append(current, strings.TrimRight(raw, " \t"))
		}
	}
	flush()
	return fragments
}

func headingsOnly(lines []string) bool {
	for _, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "#") {
			return false
		}
	}
	return true
}

// epicMarker returns the epic name when line opens an epic scope. Markers
// match case-sensitively so prose such as "Epic: payments" stays text.
func epicMarker(line string, markers []string) (string, bool) {
	for _, marker := range markers {
		if marker != "" && strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):]), true
		}
	}
	return "", false
}

// parseText picks the epic layout when a marker line is present. A marker
// document with no "-" story lines is read as free-form sections grouped under
// the marker lines instead.
func parseText(text string, markers []string) ([]story.Fragment, bool, []Diagnostic) {
	if !isEpicDocument(text, markers) {
		return parseFreeform(text, nil), false, nil
	}
	fragments, diagnostics := parseEpicText(text, markers)
	if len(fragments) == 0 {
		if freeform := parseFreeform(text, markers); len(freeform) > 0 {
			return freeform, false, nil
		}
	}
	return fragments, true, diagnostics
}

func isEpicDocument(text string, markers []string) bool {
	for _, raw := range strings.Split(text, "\n") {
		if _, ok := epicMarker(strings.TrimSpace(raw), markers); ok {
			return true
		}
	}
	return false
}

// parseEpicText reads the epic-oriented layout: marker lines open an epic
// scope, "-" lines are stories in that scope, "#" lines are comments, and
// stories before the first marker fall under story.UngroupedEpic.
func parseEpicText(text string, markers []string) ([]story.Fragment, []Diagnostic) {
	var (
		fragments   []story.Fragment
		diagnostics []Diagnostic
	)
	current := story.UngroupedEpic
	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || isSeparator(line) {
			continue
		}
		if name, ok := epicMarker(line, markers); ok {
			if name == "" {
				diagnostics = append(diagnostics, Diagnostic{Source: "line", Index: lineNo, Message: "epic marker without a name; following stories are ungrouped"})
				name = story.UngroupedEpic
			}
			current = name
			continue
		}
		if !strings.HasPrefix(line, "-") {
			diagnostics = append(diagnostics, Diagnostic{Source: "line", Index: lineNo, Message: "ignored; expected an epic marker or a '-' story line"})
			continue
		}
		content := strings.TrimSpace(line[1:])
		if content == "" {
			diagnostics = append(diagnostics, Diagnostic{Source: "line", Index: lineNo, Message: "empty story line"})
			continue
		}
		fragments = append(fragments, story.Fragment{
			Index:    len(fragments),
			Kind:     story.KindLine,
			Text:     content,
			EpicName: current,
		})
	}
	return fragments, diagnostics
}
