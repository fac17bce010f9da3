package ingest_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"storyloader/internal/ingest"
	"storyloader/internal/story"
)

func mustParse(t *testing.T, data, filename string, opts ingest.Options) ingest.Result {
	t.Helper()
	result, err := ingest.Parse([]byte(data), filename, opts)
	if err != nil {
		t.Fatalf("Parse(%q): %v", filename, err)
	}
	return result
}

func TestParseEpicText(t *testing.T) {
	input := strings.Join([]string{
		"# Backlog for Q3",
		"- As a visitor, I want to browse anonymously",
		"EPIC: Authentication",
		"- As a user, I want to login so that I can access my account [High] {3}",
		"- As an admin, I want to reset passwords {5} [critical]",
		"  # comment inside an epic",
		"",
		"EPIC: Reporting",
		"-----",
		"- As a manager, I want to export reports, so that I can share them",
		"notes that are not stories",
	}, "\n")

	result := mustParse(t, input, "stories.txt", ingest.Options{})
	if !result.EpicLayout {
		t.Fatal("expected epic layout")
	}
	want := []story.Story{
		{Title: "Browse anonymously", Description: "As a visitor, I want to browse anonymously", EpicName: story.UngroupedEpic},
		{Title: "Login", Description: "As a user, I want to login so that I can access my account", Priority: story.PriorityHigh, StoryPoints: 3, EpicName: "Authentication"},
		{Title: "Reset passwords", Description: "As an admin, I want to reset passwords", Priority: story.PriorityCritical, StoryPoints: 5, EpicName: "Authentication"},
		{Title: "Export reports", Description: "As a manager, I want to export reports, so that I can share them", EpicName: "Reporting"},
	}
	if diff := cmp.Diff(want, result.Stories); diff != "" {
		t.Fatalf("stories mismatch (-want +got):\n%s", diff)
	}
	if len(result.Diagnostics) != 1 || result.Diagnostics[0].Index != 11 {
		t.Fatalf("expected one diagnostic for line 11, got %+v", result.Diagnostics)
	}

	groups := story.GroupStories(result.Stories, "")
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	if got := strings.Join(names, ","); got != "Ungrouped,Authentication,Reporting" {
		t.Fatalf("unexpected epic order %q", got)
	}
}

func TestParseEpicMarkersAreConfigurable(t *testing.T) {
	input := "Feature: Search\n- As a user, I want to search by tag\n"
	result := mustParse(t, input, "", ingest.Options{EpicMarkers: []string{"Feature:"}})
	if len(result.Stories) != 1 || result.Stories[0].EpicName != "Search" {
		t.Fatalf("unexpected stories %+v", result.Stories)
	}
}

func TestParseFreeformSections(t *testing.T) {
	input := strings.Join([]string{
		"# Login page",
		"As a user I want to log in.",
		"Acceptance Criteria:",
		"- valid credentials work",
		"",
		"---",
		"",
		"Title: Logout [low]",
		"Users can log out.",
		"AC: session cleared",
		"",
		"// just a comment",
		"",
		"#internal-note",
		"Short story line",
		"",
		"=====",
		"",
	}, "\n")

	result := mustParse(t, input, "stories.md", ingest.Options{})
	if result.EpicLayout {
		t.Fatal("did not expect epic layout")
	}
	want := []story.Story{
		{Title: "Login page", Description: "As a user I want to log in.", AcceptanceCriteria: "- valid credentials work"},
		{Title: "Logout", Description: "Users can log out.", AcceptanceCriteria: "session cleared", Priority: story.PriorityLow},
		{Title: "Short story line", Description: "Short story line"},
	}
	if diff := cmp.Diff(want, result.Stories); diff != "" {
		t.Fatalf("stories mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFreeformSkipsHeadingOnlySections(t *testing.T) {
	input := "# Sprint 12 backlog\n\nLogin\nAs a user I want to log in\n\n## Notes\n### More\n"
	result := mustParse(t, input, "stories.md", ingest.Options{})
	want := []story.Story{{Title: "Login", Description: "As a user I want to log in"}}
	if diff := cmp.Diff(want, result.Stories); diff != "" {
		t.Fatalf("stories mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEpicMarkerIsCaseSensitive(t *testing.T) {
	input := "Checkout flow\nAs a buyer I want to pay.\nEpic: Payments\n\nRefunds\nAs support I want to refund orders.\n"
	result := mustParse(t, input, "stories.md", ingest.Options{})
	if result.EpicLayout {
		t.Fatal("lowercase marker must not switch to the epic layout")
	}
	if len(result.Stories) != 2 || result.Stories[0].Title != "Checkout flow" || result.Stories[1].Title != "Refunds" {
		t.Fatalf("unexpected stories %+v", result.Stories)
	}
	if len(result.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics %+v", result.Diagnostics)
	}
}

func TestParseEpicLayoutWithoutStoryLinesFallsBackToFreeform(t *testing.T) {
	input := "EPIC: Payments\n\nCheckout flow\nAs a buyer I want to pay.\n\nRefunds\nAs support I want to refund orders.\n"
	result := mustParse(t, input, "stories.md", ingest.Options{})
	if result.EpicLayout {
		t.Fatal("expected free-form fallback")
	}
	var got []string
	for _, s := range result.Stories {
		got = append(got, s.EpicName+"/"+s.Title)
	}
	want := []string{"Payments/Checkout flow", "Payments/Refunds"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stories mismatch (-want +got):\n%s", diff)
	}
	if len(result.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", result.Diagnostics)
	}
}

func TestParseFreeformCountsNonEmptySections(t *testing.T) {
	sections := []string{"one", "two\nmore", "// comment only", "three", "#tag"}
	input := strings.Join(sections, "\n\n\n")
	result := mustParse(t, input, "a.txt", ingest.Options{})
	if len(result.Stories) != 3 {
		t.Fatalf("expected 3 stories, got %d: %+v", len(result.Stories), result.Stories)
	}
}

func TestParseFreeformLongFirstLineUsesPlaceholder(t *testing.T) {
	long := strings.Repeat("word ", 30)
	input := "intro\n\n" + long + "\nsecond line"
	result := mustParse(t, input, "a.txt", ingest.Options{})
	if len(result.Stories) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(result.Stories))
	}
	if result.Stories[1].Title != "Story 2" {
		t.Fatalf("expected placeholder title, got %q", result.Stories[1].Title)
	}
	if !strings.HasSuffix(result.Stories[1].Description, "second line") {
		t.Fatalf("expected whole fragment as description, got %q", result.Stories[1].Description)
	}
}

func TestParseTableExample(t *testing.T) {
	input := "Title,Description,Acceptance Criteria\nLogin,As a user I want to log in,User enters credentials\n"
	result := mustParse(t, input, "stories.csv", ingest.Options{})
	want := []story.Story{{
		Title:              "Login",
		Description:        "As a user I want to log in",
		AcceptanceCriteria: "User enters credentials",
	}}
	if diff := cmp.Diff(want, result.Stories); diff != "" {
		t.Fatalf("stories mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTableRowCounts(t *testing.T) {
	input := strings.Join([]string{
		"Summary;Details;Priority;Story Points",
		"A;desc a;High;3",
		"B;desc b",
		"C;desc c;low;x",
		";;;",
	}, "\n")
	result := mustParse(t, input, "backlog.csv", ingest.Options{})
	want := []story.Story{
		{Title: "A", Description: "desc a", Priority: story.PriorityHigh, StoryPoints: 3},
		{Title: "C", Description: "desc c", Priority: story.PriorityLow},
	}
	if diff := cmp.Diff(want, result.Stories); diff != "" {
		t.Fatalf("stories mismatch (-want +got):\n%s", diff)
	}
	if len(result.Diagnostics) != 2 {
		t.Fatalf("expected 2 diagnostics, got %+v", result.Diagnostics)
	}
	if result.Diagnostics[0].Index != 2 || result.Diagnostics[1].Index != 4 {
		t.Fatalf("unexpected diagnostic rows %+v", result.Diagnostics)
	}
}

func TestParseTableValidRowsYieldOneStoryEach(t *testing.T) {
	for _, n := range []int{1, 2, 7} {
		rows := []string{"title\tdescription\tacceptance"}
		for i := 0; i < n; i++ {
			rows = append(rows, "t\td\ta")
		}
		result := mustParse(t, strings.Join(rows, "\n"), "a.tsv", ingest.Options{})
		if len(result.Stories) != n {
			t.Fatalf("expected %d stories, got %d", n, len(result.Stories))
		}
	}
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"header only", "Title,Description\n"},
		{"empty", ""},
		{"no recognised columns", "foo,bar\n1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ingest.Parse([]byte(tt.input), "a.csv", ingest.Options{})
			if !errors.Is(err, ingest.ErrMalformedTable) {
				t.Fatalf("expected ErrMalformedTable, got %v", err)
			}
			var perr *ingest.ParseError
			if !errors.As(err, &perr) || perr.Format != ingest.FormatTabular {
				t.Fatalf("expected tabular ParseError, got %#v", err)
			}
		})
	}
}

const bareJSON = `[
  {"title": "Login", "description": "As a user", "acceptance_criteria": ["enter creds", "see dashboard"], "priority": "HIGH", "story_points": 3},
  {"summary": "Logout", "details": null, "points": "2"},
  42
]`

const yamlDocument = `stories:
  - title: Login
    description: As a user
    acceptance_criteria:
      - enter creds
      - see dashboard
    priority: HIGH
    story_points: 3
  - summary: Logout
    details: ~
    points: "2"
  - 42
`

func TestParseDocumentShapesAgree(t *testing.T) {
	want := []story.Story{
		{Title: "Login", Description: "As a user", AcceptanceCriteria: "enter creds\nsee dashboard", Priority: story.PriorityHigh, StoryPoints: 3},
		{Title: "Logout", StoryPoints: 2},
	}
	inputs := map[string]string{
		"bare.json":    bareJSON,
		"wrapped.json": `{"stories": ` + bareJSON + `}`,
		"stories.yaml": yamlDocument,
	}
	for name, input := range inputs {
		result := mustParse(t, input, name, ingest.Options{})
		if result.Format != ingest.FormatStructuredDocument {
			t.Fatalf("%s: unexpected format %v", name, result.Format)
		}
		if diff := cmp.Diff(want, result.Stories); diff != "" {
			t.Fatalf("%s: stories mismatch (-want +got):\n%s", name, diff)
		}
		if len(result.Diagnostics) != 1 || result.Diagnostics[0].Index != 3 {
			t.Fatalf("%s: expected diagnostic for element 3, got %+v", name, result.Diagnostics)
		}
	}
}

func TestParseDocumentErrors(t *testing.T) {
	inputs := map[string]string{
		"scalar.json":  `"just a string"`,
		"nokey.json":   `{"items": []}`,
		"notlist.json": `{"stories": {"title": "x"}}`,
		"broken.json":  `[{"title": }]`,
		"broken.yaml":  "stories: [unterminated",
	}
	for name, input := range inputs {
		_, err := ingest.Parse([]byte(input), name, ingest.Options{})
		if !errors.Is(err, ingest.ErrMalformedDocument) {
			t.Fatalf("%s: expected ErrMalformedDocument, got %v", name, err)
		}
	}
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := ingest.Parse([]byte("As a user"), "stories.docx", ingest.Options{DisallowFallback: true})
	if !errors.Is(err, ingest.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}

	result := mustParse(t, "As a user", "stories.docx", ingest.Options{})
	if result.Format != ingest.FormatPlainText || len(result.Stories) != 1 {
		t.Fatalf("expected plain-text fallback, got %+v", result)
	}
}

func TestParseDecodesUTF16Table(t *testing.T) {
	text := "Title,Description\r\nLogin,Sign in\r\n"
	data := []byte{0xff, 0xfe}
	for _, r := range text {
		data = append(data, byte(r), 0)
	}
	result, err := ingest.Parse(data, "export.csv", ingest.Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(result.Stories) != 1 || result.Stories[0].Title != "Login" || result.Stories[0].Description != "Sign in" {
		t.Fatalf("unexpected stories %+v", result.Stories)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stories.json")
	if err := os.WriteFile(path, []byte(`[{"title":"One"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	result, err := ingest.ParseFile(path, ingest.Options{})
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(result.Stories) != 1 || result.Stories[0].Title != "One" {
		t.Fatalf("unexpected stories %+v", result.Stories)
	}
	if _, err := ingest.ParseFile(filepath.Join(t.TempDir(), "missing.txt"), ingest.Options{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseFreeformBulletedLineDropsListMarker(t *testing.T) {
	input := "- As a user, I want to login so that I can access my account\n"
	result := mustParse(t, input, "stories.md", ingest.Options{})
	if len(result.Stories) != 1 {
		t.Fatalf("expected 1 story, got %d", len(result.Stories))
	}
	got := result.Stories[0]
	if got.Title != "Login" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if got.Description != "As a user, I want to login so that I can access my account" {
		t.Fatalf("unexpected description %q", got.Description)
	}
}
