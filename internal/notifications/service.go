package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyloader/internal/batch"
	"storyloader/internal/config"
)

const (
	userAgent = "storyloader/0.1"

	// maxListedFailures bounds the failure lines included in one message.
	maxListedFailures = 5
)

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyBatchCompleted(ctx context.Context, report batch.Report, projectURL string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil || cfg.Notifications.NtfyTopic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:     cfg.Notifications.NtfyTopic,
		onlyFailures: cfg.Notifications.OnlyFailures,
		client:       &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
	click    string
}

type ntfyService struct {
	endpoint     string
	onlyFailures bool
	client       *http.Client
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, report batch.Report, projectURL string) error {
	if n.onlyFailures && report.Failed == 0 {
		return nil
	}

	duration := report.Duration().Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Created %d of %d stories in %s", report.Successful, report.Total, report.ProjectKey)
	if report.Failed > 0 || report.Warnings > 0 {
		fmt.Fprintf(&b, " (%d failed, %d warnings)", report.Failed, report.Warnings)
	}
	fmt.Fprintf(&b, " in %s", duration)

	failures := report.FailedStories()
	for i, o := range failures {
		if i == maxListedFailures {
			fmt.Fprintf(&b, "\n... and %d more", len(failures)-maxListedFailures)
			break
		}
		fmt.Fprintf(&b, "\n#%d %s: %s", o.LocalID, o.Title, o.ErrorDetail)
	}

	data := payload{
		title:   "storyloader - Batch Complete",
		message: b.String(),
		tags:    []string{"storyloader", "batch", "completed"},
		click:   projectURL,
	}
	if report.Failed > 0 {
		data.title = "storyloader - Batch Complete (with failures)"
		data.tags = []string{"storyloader", "batch", "failed"}
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "storyloader - Test",
		message:  "Notification system test",
		tags:     []string{"storyloader", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}
	if data.click != "" {
		req.Header.Set("Click", data.click)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyBatchCompleted(context.Context, batch.Report, string) error { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
