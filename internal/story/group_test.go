package story

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGroupStoriesByEpicName(t *testing.T) {
	stories := []Story{
		{Title: "a"},
		{Title: "b", EpicName: "Auth"},
		{Title: "c", EpicName: "Billing"},
		{Title: "d", EpicName: "Auth"},
	}
	want := []Group{
		{Name: UngroupedEpic, Members: []int{0}},
		{Name: "Auth", Members: []int{1, 3}},
		{Name: "Billing", Members: []int{2}},
	}
	if diff := cmp.Diff(want, GroupStories(stories, "")); diff != "" {
		t.Fatalf("GroupStories mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupStoriesExactNameMatch(t *testing.T) {
	groups := GroupStories([]Story{{EpicName: "Auth"}, {EpicName: "auth"}}, "")
	if len(groups) != 2 {
		t.Fatalf("expected case-sensitive epic names to stay separate, got %+v", groups)
	}
}

func TestGroupStoriesWithExternalKey(t *testing.T) {
	groups := GroupStories([]Story{{EpicName: "Auth"}, {}}, " PROJ-7 ")
	want := []Group{{Key: "PROJ-7", Members: []int{0, 1}}}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Fatalf("GroupStories mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupStoriesStandalone(t *testing.T) {
	groups := GroupStories([]Story{{Title: "a"}, {Title: "b"}}, "")
	if len(groups) != 1 || !groups[0].Standalone() {
		t.Fatalf("expected one standalone group, got %+v", groups)
	}
	if diff := cmp.Diff([]int{0, 1}, groups[0].Members); diff != "" {
		t.Fatalf("members mismatch:\n%s", diff)
	}
	if GroupStories(nil, "PROJ-1") != nil {
		t.Fatal("expected nil groups for empty input")
	}
}
