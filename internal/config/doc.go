// Package config loads, normalizes, and validates storyloader configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies the JIRA_* environment overrides.
// The Config type centralizes the tracker credentials, story-parsing options,
// history ledger location, and logging knobs the CLI needs.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
