// Package ingest turns raw story documents into normalized stories.
//
// Parse detects the input format from the filename extension, a declared
// content type, or the content itself, then hands the decoded text to one of
// the format parsers:
//
//   - plain text and markdown, split into sections on blank lines or
//     horizontal rules, or the epic-oriented layout where "EPIC:" lines open a
//     scope and "-" lines are stories;
//   - delimited tables (CSV/TSV) whose header cells locate the columns;
//   - structured JSON or YAML documents holding a list of story objects.
//
// Each parser produces story.Fragment values that story.Normalize converts
// into stories. Parse failures are *ParseError values matching
// ErrUnsupportedFormat, ErrMalformedTable, or ErrMalformedDocument; recoverable
// problems such as short rows are reported as Diagnostics instead.
package ingest
