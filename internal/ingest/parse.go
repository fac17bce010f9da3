package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"storyloader/internal/story"
	"storyloader/internal/textutil"
)

// DefaultEpicMarkers open an epic scope in plain-text input.
var DefaultEpicMarkers = []string{"EPIC:"}

// Options tunes Parse.
type Options struct {
	// DeclaredType is a content type supplied by the caller, consulted when
	// the filename has no recognised extension.
	DeclaredType string
	// DisallowFallback turns undetectable input into ErrUnsupportedFormat
	// instead of parsing it as plain text.
	DisallowFallback bool
	// EpicMarkers overrides DefaultEpicMarkers.
	EpicMarkers []string
}

func (o Options) markers() []string {
	if len(o.EpicMarkers) == 0 {
		return DefaultEpicMarkers
	}
	return o.EpicMarkers
}

// Result is the outcome of a successful parse.
type Result struct {
	Format      Format
	EpicLayout  bool
	Stories     []story.Story
	Diagnostics []Diagnostic
}

// Parse converts raw bytes into normalized stories. filenameHint selects the
// format by extension and may be empty.
func Parse(data []byte, filenameHint string, opts Options) (Result, error) {
	format := Detect(filenameHint, opts.DeclaredType, data)
	if format == FormatUnknown {
		if opts.DisallowFallback {
			return Result{}, newParseError(ErrUnsupportedFormat, FormatUnknown,
				fmt.Errorf("cannot detect format of %q", filepath.Base(filenameHint)))
		}
		format = FormatPlainText
	}

	text, err := textutil.DecodeInput(data)
	if err != nil {
		return Result{}, newParseError(ErrUnsupportedFormat, format, err)
	}

	result := Result{Format: format}
	var fragments []story.Fragment
	switch format {
	case FormatTabular:
		fragments, result.Diagnostics, err = parseTable(text, tableDelimiter(filenameHint, opts.DeclaredType, text))
	case FormatStructuredDocument:
		fragments, result.Diagnostics, err = parseDocument(text, isYAML(filenameHint, opts.DeclaredType, text))
	default:
		fragments, result.EpicLayout, result.Diagnostics = parseText(text, opts.markers())
	}
	if err != nil {
		return Result{}, err
	}
	result.Stories = story.NormalizeAll(fragments)
	return result, nil
}

// ParseFile reads path and parses it using the path as the filename hint.
func ParseFile(path string, opts Options) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data, path, opts)
}
