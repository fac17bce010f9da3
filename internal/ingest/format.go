package ingest

import (
	"bytes"
	"mime"
	"path/filepath"
	"strings"
)

// Format identifies the parsing strategy for an input.
type Format int

const (
	FormatUnknown Format = iota
	FormatPlainText
	FormatTabular
	FormatStructuredDocument
)

func (f Format) String() string {
	switch f {
	case FormatPlainText:
		return "text"
	case FormatTabular:
		return "table"
	case FormatStructuredDocument:
		return "document"
	default:
		return "unknown"
	}
}

var extensionFormats = map[string]Format{
	".txt":      FormatPlainText,
	".text":     FormatPlainText,
	".md":       FormatPlainText,
	".markdown": FormatPlainText,
	".csv":      FormatTabular,
	".tsv":      FormatTabular,
	".tab":      FormatTabular,
	".json":     FormatStructuredDocument,
	".yaml":     FormatStructuredDocument,
	".yml":      FormatStructuredDocument,
}

var contentTypeFormats = map[string]Format{
	"text/plain":                FormatPlainText,
	"text/markdown":             FormatPlainText,
	"text/x-markdown":           FormatPlainText,
	"text/csv":                  FormatTabular,
	"text/tab-separated-values": FormatTabular,
	"application/csv":           FormatTabular,
	"application/vnd.ms-excel":  FormatTabular,
	"application/json":          FormatStructuredDocument,
	"text/json":                 FormatStructuredDocument,
	"application/yaml":          FormatStructuredDocument,
	"application/x-yaml":        FormatStructuredDocument,
	"text/yaml":                 FormatStructuredDocument,
	"text/x-yaml":               FormatStructuredDocument,
}

// Detect chooses a format from the filename extension, then the declared
// content type, then the content. A recognised extension always wins;
// FormatUnknown means no signal matched.
func Detect(filename, declaredType string, data []byte) Format {
	if f, ok := extensionFormats[extension(filename)]; ok {
		return f
	}
	if f, ok := contentTypeFormats[mediaType(declaredType)]; ok {
		return f
	}
	if extension(filename) == "" && looksLikeJSON(data) {
		return FormatStructuredDocument
	}
	return FormatUnknown
}

func extension(filename string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
}

func mediaType(declared string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return strings.ToLower(declared)
	}
	return parsed
}

func looksLikeJSON(data []byte) bool {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// isYAML reports whether a structured document should be decoded as YAML
// rather than JSON.
func isYAML(filename, declaredType, text string) bool {
	switch extension(filename) {
	case ".yaml", ".yml":
		return true
	case ".json":
		return false
	}
	if strings.Contains(mediaType(declaredType), "yaml") {
		return true
	}
	trimmed := strings.TrimSpace(text)
	return trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[')
}
