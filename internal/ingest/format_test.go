package ingest

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		declared string
		data     string
		want     Format
	}{
		{"markdown extension", "stories.md", "", "", FormatPlainText},
		{"upper-case csv", "BACKLOG.CSV", "", "", FormatTabular},
		{"tsv", "backlog.tsv", "", "", FormatTabular},
		{"yaml", "stories.yml", "", "", FormatStructuredDocument},
		{"extension beats declared type", "notes.md", "application/json", "{}", FormatPlainText},
		{"declared type with params", "", "application/json; charset=utf-8", "", FormatStructuredDocument},
		{"declared csv", "upload", "text/csv", "", FormatTabular},
		{"sniffed json without extension", "", "", "  [ {\"title\": \"x\"} ]", FormatStructuredDocument},
		{"sniffed json with bom", "", "", "\xef\xbb\xbf{}", FormatStructuredDocument},
		{"unknown extension is not sniffed", "stories.docx", "", "{}", FormatUnknown},
		{"plain words", "", "", "As a user", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.filename, tt.declared, []byte(tt.data)); got != tt.want {
				t.Fatalf("Detect(%q, %q) = %v, want %v", tt.filename, tt.declared, got, tt.want)
			}
		})
	}
}

func TestTableDelimiter(t *testing.T) {
	tests := []struct {
		filename string
		text     string
		want     rune
	}{
		{"a.tsv", "Title,Description", '\t'},
		{"a.csv", "Title,Description", ','},
		{"a.csv", "Title;Description;Priority", ';'},
		{"", "Title\tDescription\tPriority", '\t'},
		{"", "Title", ','},
	}
	for _, tt := range tests {
		if got := tableDelimiter(tt.filename, "", tt.text); got != tt.want {
			t.Errorf("tableDelimiter(%q, %q) = %q, want %q", tt.filename, tt.text, got, tt.want)
		}
	}
}

func TestIsFreeformComment(t *testing.T) {
	cases := map[string]bool{
		"// note":       true,
		"#tag":          true,
		"#":             true,
		"###":           true,
		"# Heading":     false,
		"## Sub":        false,
		"##nospace":     false,
		"plain text":    false,
		"Title: Logout": false,
	}
	for line, want := range cases {
		if got := isFreeformComment(line); got != want {
			t.Errorf("isFreeformComment(%q) = %v, want %v", line, got, want)
		}
	}
}
