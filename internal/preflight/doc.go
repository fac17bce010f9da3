// Package preflight verifies that storyloader can run a batch: local
// directories are writable, the history ledger opens, the tracker accepts the
// credentials, and the target project offers the configured issue types.
//
// Each check returns a Result rather than an error so the CLI can print every
// problem in one pass.
package preflight
