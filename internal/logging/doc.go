// Package logging assembles structured slog loggers and formatting helpers used
// across storyloader.
//
// It owns the configurable console/JSON handlers, the file tee that keeps a
// JSON log next to the console output, and context-aware helpers that tag log
// lines with batch identifiers, stages, and project keys. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
