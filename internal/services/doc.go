// Package services defines shared utilities consumed by the batch creator and
// the issue-tracker integration.
//
// Key responsibilities:
//   - Context helpers that stamp batch identifiers, pipeline stages, and
//     project keys for logging.
//   - Structured error markers plus the Wrap helper that keep provider,
//     configuration, and transient failures distinguishable with errors.Is.
//   - Hint, which turns a marker into the next step shown to operators.
//
// Use these helpers when wiring new tracker calls so error handling and
// observability stay uniform across the pipeline.
package services
