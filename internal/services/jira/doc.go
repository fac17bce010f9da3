// Package jira implements the issue-tracker client used by the batch creator.
//
// The client speaks the Jira REST v2 API: it lists projects and epics, creates
// epics and stories (with priority, story points, and parent linkage), and adds
// comments. Non-2xx responses become *ProviderError values wrapped with the
// services error markers so callers can classify them with errors.Is.
package jira
