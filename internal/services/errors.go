package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProvider      = errors.New("provider error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap tags err with a classification marker and prefixes the batch stage and
// operation. A nil marker is treated as transient.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Hint returns a short operator-facing next step for a wrapped error.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "check tracker credentials and permissions (storyloader check)"
	case errors.Is(err, ErrNotFound):
		return "verify the project key, epic key, and issue type names"
	case errors.Is(err, ErrValidation):
		return "the tracker rejected a field; compare field ids with the project screen"
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrTransient):
		return "tracker unavailable or rate limited; re-run the failed stories later"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{stage, operation, message} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "tracker failure"
	}
	return strings.Join(parts, ": ")
}
