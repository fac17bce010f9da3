// Package main hosts the storyloader CLI entrypoint and command graph.
//
// The Cobra-based command tree parses story documents, previews them, creates
// them in the tracker as one batch, and inspects the tracker and the local
// batch history. It centralizes configuration resolution, logger setup, and
// tracker client construction so subcommands can focus on output.
//
// Keep this package lean: parsing lives in internal/ingest, creation in
// internal/batch, and persistence in internal/history.
package main
