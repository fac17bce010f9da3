package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"storyloader/internal/batch"
	"storyloader/internal/ingest"
	"storyloader/internal/story"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
)

func shouldColorize(writer io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func paint(colorize bool, color, value string) string {
	if !colorize || color == "" {
		return value
	}
	return color + value + ansiReset
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	return []string{paint(colorize, ansiBlue, line), paint(colorize, ansiBlue, rule)}
}

// renderStories prints one table per epic group in creation order.
func renderStories(out io.Writer, stories []story.Story, groups []story.Group, colorize bool) {
	for _, group := range groups {
		title := "Standalone stories"
		switch {
		case group.Key != "":
			title = "Existing epic " + group.Key
		case group.Name != "":
			title = "Epic: " + group.Name
		}
		for _, line := range renderSectionHeader(fmt.Sprintf("%s (%d)", title, len(group.Members)), colorize) {
			fmt.Fprintln(out, line)
		}
		rows := make([][]string, 0, len(group.Members))
		for _, idx := range group.Members {
			s := stories[idx]
			rows = append(rows, []string{
				strconv.Itoa(idx + 1),
				s.Title,
				string(s.Priority),
				pointsLabel(s),
				yesNo(s.AcceptanceCriteria != ""),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Title", "Priority", "Points", "AC"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
		))
	}
}

func pointsLabel(s story.Story) string {
	if !s.HasEstimate() {
		return ""
	}
	return strconv.Itoa(s.StoryPoints)
}

func renderDiagnostics(out io.Writer, diagnostics []ingest.Diagnostic, colorize bool) {
	for _, d := range diagnostics {
		fmt.Fprintln(out, paint(colorize, ansiYellow, "warning: "+d.String()))
	}
}

// renderOutcome is the single progress line streamed while a batch runs.
func renderOutcome(o batch.Outcome, colorize bool) string {
	label := fmt.Sprintf("story %d", o.LocalID+1)
	if o.LocalID == batch.EpicLocalID {
		label = "epic"
	}
	switch {
	case o.Warning != "":
		return paint(colorize, ansiYellow, fmt.Sprintf("! %s %s %q: %s", label, o.RemoteKey, o.Title, o.Warning))
	case o.Succeeded():
		return paint(colorize, ansiGreen, fmt.Sprintf("+ %s %s %q", label, o.RemoteKey, o.Title))
	default:
		return paint(colorize, ansiRed, fmt.Sprintf("x %s %q: %s", label, o.Title, o.ErrorDetail))
	}
}

// renderReport prints the summary line and the outcome tables, followed by
// browser links when issueURL is set.
func renderReport(out io.Writer, report batch.Report, projectURL string, issueURL func(string) string, colorize bool) {
	status := ansiGreen
	switch {
	case report.Failed > 0 && report.Successful == 0:
		status = ansiRed
	case report.Failed > 0 || report.Warnings > 0:
		status = ansiYellow
	}
	summary := fmt.Sprintf("Created %d of %d stories (%d failed, %d warnings) in %s",
		report.Successful, report.Total, report.Failed, report.Warnings, report.Duration().Round(time.Millisecond))
	fmt.Fprintln(out, paint(colorize, status, summary))

	if len(report.Epics) > 0 {
		rows := make([][]string, 0, len(report.Epics))
		for _, o := range report.Epics {
			rows = append(rows, []string{o.Title, o.RemoteKey, outcomeStatus(o), o.ErrorDetail})
		}
		fmt.Fprintln(out, renderTable([]string{"Epic", "Key", "Status", "Detail"}, rows, nil))
	}
	if len(report.Stories) > 0 {
		rows := make([][]string, 0, len(report.Stories))
		for _, o := range report.Stories {
			detail := o.ErrorDetail
			if detail == "" {
				detail = o.Warning
			}
			rows = append(rows, []string{strconv.Itoa(o.LocalID + 1), o.Title, o.RemoteKey, outcomeStatus(o), detail})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Title", "Key", "Status", "Detail"},
			rows,
			[]columnAlignment{alignRight},
		))
	}
	if issueURL != nil {
		renderLinks(out, report, issueURL)
	}
	if projectURL != "" && report.Successful > 0 {
		fmt.Fprintf(out, "Project: %s\n", projectURL)
	}
	fmt.Fprintf(out, "Batch: %s\n", report.BatchID)
}

func renderLinks(out io.Writer, report batch.Report, issueURL func(string) string) {
	var lines []string
	for _, group := range [][]batch.Outcome{report.Epics, report.Stories} {
		for _, o := range group {
			if o.Succeeded() && o.RemoteKey != "" {
				lines = append(lines, fmt.Sprintf("  %s %s", o.RemoteKey, issueURL(o.RemoteKey)))
			}
		}
	}
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(out, "Links:")
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}

func outcomeStatus(o batch.Outcome) string {
	switch {
	case o.Warning != "":
		return "created (warning)"
	case o.Succeeded():
		return "created"
	case o.Reason == batch.ReasonEpicUnavailable:
		return "skipped"
	default:
		return "failed"
	}
}
