// Package logs reads storyloader's own log files: it locates the newest daily
// file, prints its tail, optionally follows appended lines, and filters lines
// down to a single batch.
package logs
