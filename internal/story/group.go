package story

import "strings"

// UngroupedEpic collects epic-format stories that precede every heading.
const UngroupedEpic = "Ungrouped"

// Group is one epic and the indexes of its member stories in input order.
// A group with a Key resolves to an existing remote epic; a group with only a
// Name needs its epic created; a group with neither holds standalone stories.
type Group struct {
	Name    string
	Key     string
	Members []int
}

// Standalone reports whether members are created without a parent epic.
func (g Group) Standalone() bool {
	return g.Name == "" && g.Key == ""
}

// GroupStories associates stories with epics. A non-empty epicKey places every
// story under that existing epic. Otherwise stories carrying epic names are
// grouped by exact name in first-seen order, with unnamed stories under
// UngroupedEpic; input with no epic names at all becomes one standalone group.
func GroupStories(stories []Story, epicKey string) []Group {
	if len(stories) == 0 {
		return nil
	}
	if key := strings.TrimSpace(epicKey); key != "" {
		return []Group{{Key: key, Members: allIndexes(len(stories))}}
	}
	if !hasEpicNames(stories) {
		return []Group{{Members: allIndexes(len(stories))}}
	}

	positions := make(map[string]int)
	var groups []Group
	for i, s := range stories {
		name := s.EpicName
		if name == "" {
			name = UngroupedEpic
		}
		pos, ok := positions[name]
		if !ok {
			pos = len(groups)
			positions[name] = pos
			groups = append(groups, Group{Name: name})
		}
		groups[pos].Members = append(groups[pos].Members, i)
	}
	return groups
}

func hasEpicNames(stories []Story) bool {
	for _, s := range stories {
		if s.EpicName != "" {
			return true
		}
	}
	return false
}

func allIndexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
