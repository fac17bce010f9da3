package jira

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

const maxBodySnippet = 300

// ProviderError is a non-2xx tracker response.
type ProviderError struct {
	StatusCode  int
	Status      string
	Messages    []string
	FieldErrors map[string]string
	Body        string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("jira http %d: %s", e.StatusCode, e.Detail())
}

// Detail renders the human-readable payload: error messages first, then field
// errors sorted by field name, then a body snippet when nothing was decoded.
func (e *ProviderError) Detail() string {
	parts := make([]string, 0, len(e.Messages)+len(e.FieldErrors))
	for _, msg := range e.Messages {
		if msg = strings.TrimSpace(msg); msg != "" {
			parts = append(parts, msg)
		}
	}
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.TrimSpace(e.FieldErrors[field])))
	}
	if len(parts) > 0 {
		return strings.Join(parts, "; ")
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		return body
	}
	return firstNonEmpty(e.Status, http.StatusText(e.StatusCode))
}

type errorPayload struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

func newProviderError(resp *http.Response, body []byte) *ProviderError {
	perr := &ProviderError{StatusCode: resp.StatusCode, Status: resp.Status}
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		perr.Messages = payload.ErrorMessages
		perr.FieldErrors = payload.Errors
	}
	if len(perr.Messages) == 0 && len(perr.FieldErrors) == 0 {
		snippet := strings.TrimSpace(string(body))
		if runes := []rune(snippet); len(runes) > maxBodySnippet {
			snippet = string(runes[:maxBodySnippet]) + "..."
		}
		perr.Body = snippet
	}
	return perr
}
