package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"storyloader/internal/story"
)

type column int

const (
	colTitle column = iota
	colDescription
	colAcceptance
	colPriority
	colPoints
	columnCount
)

// headerSynonyms is checked in order, so "Acceptance Criteria" resolves to the
// acceptance column before any title or description synonym can claim it.
var headerSynonyms = []struct {
	col      column
	synonyms []string
}{
	{colAcceptance, []string{"acceptance", "criteria"}},
	{colTitle, []string{"title", "summary"}},
	{colDescription, []string{"description", "detail"}},
	{colPriority, []string{"priority"}},
	{colPoints, []string{"points", "estimate"}},
}

type columnMap [columnCount]int

func (m columnMap) cell(row []string, col column) string {
	idx := m[col]
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// width is the minimum cell count a row needs to reach every matched column.
func (m columnMap) width() int {
	width := 0
	for _, idx := range m {
		if idx+1 > width {
			width = idx + 1
		}
	}
	return width
}

func mapHeader(header []string) (columnMap, bool) {
	var m columnMap
	for i := range m {
		m[i] = -1
	}
	matched := false
	for idx, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		if name == "" {
			continue
		}
		for _, entry := range headerSynonyms {
			if !containsAny(name, entry.synonyms) {
				continue
			}
			if m[entry.col] < 0 {
				m[entry.col] = idx
				matched = true
			}
			break
		}
	}
	return m, matched
}

func containsAny(value string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(value, needle) {
			return true
		}
	}
	return false
}

// sniffDelimiter picks tab, semicolon, or comma by frequency in the header line.
func sniffDelimiter(text string) rune {
	header, _, _ := strings.Cut(text, "\n")
	best, bestCount := ',', strings.Count(header, ",")
	for _, candidate := range []rune{'\t', ';'} {
		if n := strings.Count(header, string(candidate)); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}

func tableDelimiter(filename, declaredType, text string) rune {
	switch extension(filename) {
	case ".tsv", ".tab":
		return '\t'
	case ".csv":
		return sniffCSV(text)
	}
	if mediaType(declaredType) == "text/tab-separated-values" {
		return '\t'
	}
	return sniffDelimiter(text)
}

// sniffCSV keeps comma for .csv files unless the header has no commas at all,
// which is how spreadsheet exports using semicolons look.
func sniffCSV(text string) rune {
	header, _, _ := strings.Cut(text, "\n")
	if strings.Contains(header, ",") {
		return ','
	}
	return sniffDelimiter(text)
}

// parseTable reads a delimited table. It needs a header row plus at least one
// data row; short or blank rows are skipped with a diagnostic.
func parseTable(text string, delimiter rune) ([]story.Fragment, []Diagnostic, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, newParseError(ErrMalformedTable, FormatTabular, err)
	}
	if len(rows) < 2 {
		return nil, nil, newParseError(ErrMalformedTable, FormatTabular,
			fmt.Errorf("need a header row and at least one data row, got %d row(s)", len(rows)))
	}
	columns, ok := mapHeader(rows[0])
	if !ok {
		return nil, nil, newParseError(ErrMalformedTable, FormatTabular,
			errors.New("header names no title, description, or acceptance criteria column"))
	}

	width := columns.width()
	var (
		fragments   []story.Fragment
		diagnostics []Diagnostic
	)
	for i, row := range rows[1:] {
		rowNo := i + 1
		if len(row) < width {
			diagnostics = append(diagnostics, Diagnostic{
				Source:  "row",
				Index:   rowNo,
				Message: fmt.Sprintf("skipped; has %d cell(s), needs %d", len(row), width),
			})
			continue
		}
		if blankRow(row) {
			diagnostics = append(diagnostics, Diagnostic{Source: "row", Index: rowNo, Message: "skipped; row is empty"})
			continue
		}
		fragments = append(fragments, story.Fragment{
			Index: len(fragments),
			Kind:  story.KindRecord,
			Fields: story.Fields{
				Title:              columns.cell(row, colTitle),
				Description:        columns.cell(row, colDescription),
				AcceptanceCriteria: columns.cell(row, colAcceptance),
				Priority:           columns.cell(row, colPriority),
				Points:             columns.cell(row, colPoints),
			},
		})
	}
	return fragments, diagnostics, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
