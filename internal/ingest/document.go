package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"storyloader/internal/story"
)

// wrapperKey is the conventional key holding the story list when the document
// is an object.
const wrapperKey = "stories"

// fieldNames lists the accepted keys per field; the first present key wins.
var fieldNames = struct {
	title, description, acceptance, priority, points []string
}{
	title:       []string{"title", "summary"},
	description: []string{"description", "details"},
	acceptance:  []string{"acceptance_criteria", "acceptanceCriteria"},
	priority:    []string{"priority", "severity"},
	points:      []string{"story_points", "points"},
}

func decodeDocument(text string, asYAML bool) (any, error) {
	var root any
	if asYAML {
		if err := yaml.Unmarshal([]byte(text), &root); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return root, nil
	}
	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber()
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if decoder.More() {
		return nil, errors.New("decode json: trailing data after top-level value")
	}
	return root, nil
}

// parseDocument accepts a list of story objects or an object wrapping the
// list under "stories". Elements that are not objects are skipped with a
// diagnostic.
func parseDocument(text string, asYAML bool) ([]story.Fragment, []Diagnostic, error) {
	root, err := decodeDocument(text, asYAML)
	if err != nil {
		return nil, nil, newParseError(ErrMalformedDocument, FormatStructuredDocument, err)
	}
	items, err := storyList(root)
	if err != nil {
		return nil, nil, newParseError(ErrMalformedDocument, FormatStructuredDocument, err)
	}

	var (
		fragments   []story.Fragment
		diagnostics []Diagnostic
	)
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			diagnostics = append(diagnostics, Diagnostic{
				Source:  "element",
				Index:   i + 1,
				Message: fmt.Sprintf("skipped; expected an object, got %s", describe(item)),
			})
			continue
		}
		fragments = append(fragments, story.Fragment{
			Index: len(fragments),
			Kind:  story.KindRecord,
			Fields: story.Fields{
				Title:              lookup(obj, fieldNames.title),
				Description:        lookup(obj, fieldNames.description),
				AcceptanceCriteria: lookup(obj, fieldNames.acceptance),
				Priority:           lookup(obj, fieldNames.priority),
				Points:             lookup(obj, fieldNames.points),
			},
		})
	}
	return fragments, diagnostics, nil
}

func storyList(root any) ([]any, error) {
	switch v := root.(type) {
	case []any:
		return v, nil
	case map[string]any:
		wrapped, ok := v[wrapperKey]
		if !ok {
			return nil, fmt.Errorf("object has no %q list", wrapperKey)
		}
		list, ok := wrapped.([]any)
		if !ok {
			return nil, fmt.Errorf("%q is %s, expected a list", wrapperKey, describe(wrapped))
		}
		return list, nil
	default:
		return nil, fmt.Errorf("top-level value is %s, expected a list or an object", describe(root))
	}
}

// lookup returns the first present key as text. Missing and null values
// become "".
func lookup(obj map[string]any, names []string) string {
	for _, name := range names {
		if value, ok := obj[name]; ok && value != nil {
			return stringify(value)
		}
	}
	return ""
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return numberText(v.String())
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return numberText(strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		return strconv.FormatBool(v)
	case []any:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			if text := stringify(item); text != "" {
				lines = append(lines, text)
			}
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

// numberText renders whole floats such as "3.0" as "3" so point estimates
// survive either encoding.
func numberText(text string) string {
	if f, err := strconv.ParseFloat(text, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return text
}

func describe(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case []any:
		return "a list"
	case map[string]any:
		return "an object"
	case bool:
		return "a boolean"
	default:
		return "a number"
	}
}
