package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storyloader/internal/services"
)

const (
	defaultHTTPTimeout      = 30 * time.Second
	defaultEpicIssueType    = "Epic"
	defaultStoryIssueType   = "Story"
	defaultStoryPointsField = "customfield_10016"
	epicPageSize            = 100
	apiPrefix               = "/rest/api/2"
)

// Config captures the runtime settings required to talk to the tracker.
type Config struct {
	BaseURL          string
	Username         string
	APIToken         string
	EpicIssueType    string
	StoryIssueType   string
	StoryPointsField string
	EpicNameField    string
	EpicLinkField    string
	TimeoutSeconds   int
}

// Client wraps the Jira REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a tracker client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:          strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Username:         strings.TrimSpace(cfg.Username),
			APIToken:         strings.TrimSpace(cfg.APIToken),
			EpicIssueType:    firstNonEmpty(cfg.EpicIssueType, defaultEpicIssueType),
			StoryIssueType:   firstNonEmpty(cfg.StoryIssueType, defaultStoryIssueType),
			StoryPointsField: firstNonEmpty(cfg.StoryPointsField, defaultStoryPointsField),
			EpicNameField:    strings.TrimSpace(cfg.EpicNameField),
			EpicLinkField:    strings.TrimSpace(cfg.EpicLinkField),
			TimeoutSeconds:   cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// ProjectURL returns the browser URL of a project.
func (c *Client) ProjectURL(projectKey string) string {
	return fmt.Sprintf("%s/projects/%s", c.cfg.BaseURL, strings.TrimSpace(projectKey))
}

// IssueURL returns the browser URL of an issue.
func (c *Client) IssueURL(issueKey string) string {
	return fmt.Sprintf("%s/browse/%s", c.cfg.BaseURL, strings.TrimSpace(issueKey))
}

// CurrentUser returns the account the credentials authenticate as.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var payload userPayload
	if err := c.do(ctx, "current user", http.MethodGet, "/myself", nil, nil, &payload); err != nil {
		return User{}, err
	}
	return payload.toUser(), nil
}

// ListProjects returns every project visible to the credentials.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var payload []projectPayload
	if err := c.do(ctx, "list projects", http.MethodGet, "/project", nil, nil, &payload); err != nil {
		return nil, err
	}
	projects := make([]Project, 0, len(payload))
	for _, p := range payload {
		projects = append(projects, p.toProject())
	}
	return projects, nil
}

// Project returns details for one project, including its issue types.
func (c *Client) Project(ctx context.Context, projectKey string) (Project, error) {
	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		return Project{}, services.Wrap(services.ErrValidation, "jira", "get project", "project key required", nil)
	}
	var payload projectPayload
	if err := c.do(ctx, "get project", http.MethodGet, "/project/"+url.PathEscape(projectKey), nil, nil, &payload); err != nil {
		return Project{}, err
	}
	return payload.toProject(), nil
}

// ListEpics returns the epics in a project, newest first.
func (c *Client) ListEpics(ctx context.Context, projectKey string) ([]Epic, error) {
	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		return nil, services.Wrap(services.ErrValidation, "jira", "list epics", "project key required", nil)
	}
	jql := fmt.Sprintf("project = %q AND issuetype = %q ORDER BY created DESC", projectKey, c.cfg.EpicIssueType)
	var epics []Epic
	for startAt := 0; ; {
		query := url.Values{}
		query.Set("jql", jql)
		query.Set("fields", "summary,status")
		query.Set("startAt", strconv.Itoa(startAt))
		query.Set("maxResults", strconv.Itoa(epicPageSize))

		var page searchPayload
		if err := c.do(ctx, "list epics", http.MethodGet, "/search", query, nil, &page); err != nil {
			return nil, err
		}
		for _, issue := range page.Issues {
			epics = append(epics, Epic{
				Key:     issue.Key,
				Summary: issue.Fields.Summary,
				Status:  issue.Fields.Status.Name,
			})
		}
		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			break
		}
	}
	return epics, nil
}

// CreateEpic creates an epic issue and returns its key.
func (c *Client) CreateEpic(ctx context.Context, projectKey, title, description string) (string, error) {
	fields := map[string]any{
		"project":     map[string]string{"key": strings.TrimSpace(projectKey)},
		"summary":     title,
		"description": description,
		"issuetype":   map[string]string{"name": c.cfg.EpicIssueType},
	}
	if c.cfg.EpicNameField != "" {
		fields[c.cfg.EpicNameField] = title
	}
	return c.createIssue(ctx, "create epic", fields)
}

// CreateIssue creates a story issue, optionally parented to an epic, and
// returns its key.
func (c *Client) CreateIssue(ctx context.Context, projectKey string, issue IssueFields, parentKey string) (string, error) {
	fields := map[string]any{
		"project":     map[string]string{"key": strings.TrimSpace(projectKey)},
		"summary":     issue.Summary,
		"description": issue.Description,
		"issuetype":   map[string]string{"name": c.cfg.StoryIssueType},
	}
	if issue.Priority != "" {
		fields["priority"] = map[string]string{"name": issue.Priority}
	}
	if issue.StoryPoints > 0 {
		fields[c.cfg.StoryPointsField] = issue.StoryPoints
	}
	if parentKey = strings.TrimSpace(parentKey); parentKey != "" {
		if c.cfg.EpicLinkField != "" {
			fields[c.cfg.EpicLinkField] = parentKey
		} else {
			fields["parent"] = map[string]string{"key": parentKey}
		}
	}
	return c.createIssue(ctx, "create issue", fields)
}

// AddComment attaches a plain-text comment to an issue.
func (c *Client) AddComment(ctx context.Context, issueKey, body string) error {
	issueKey = strings.TrimSpace(issueKey)
	if issueKey == "" {
		return services.Wrap(services.ErrValidation, "jira", "add comment", "issue key required", nil)
	}
	path := "/issue/" + url.PathEscape(issueKey) + "/comment"
	return c.do(ctx, "add comment", http.MethodPost, path, nil, map[string]string{"body": body}, nil)
}

func (c *Client) createIssue(ctx context.Context, op string, fields map[string]any) (string, error) {
	var created createdPayload
	if err := c.do(ctx, op, http.MethodPost, "/issue", nil, map[string]any{"fields": fields}, &created); err != nil {
		return "", err
	}
	if strings.TrimSpace(created.Key) == "" {
		return "", services.Wrap(services.ErrProvider, "jira", op, "response missing issue key", nil)
	}
	return created.Key, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	if c.cfg.BaseURL == "" {
		return services.Wrap(services.ErrConfiguration, "jira", op, "base url required", nil)
	}
	endpoint := c.cfg.BaseURL + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrValidation, "jira", op, "encode body", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "jira", op, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(transportMarker(ctx, err), "jira", op, "http request", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrTransient, "jira", op, "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		perr := newProviderError(resp, payload)
		return services.Wrap(statusMarker(resp.StatusCode), "jira", op, "", perr)
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return services.Wrap(services.ErrProvider, "jira", op, "decode response", err)
	}
	return nil
}

// authorize uses basic auth when a username is configured and a bearer
// personal access token otherwise.
func (c *Client) authorize(req *http.Request) {
	if c.cfg.APIToken == "" {
		return
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.APIToken)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
}

func transportMarker(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.ErrTimeout
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.ErrTimeout
	}
	return services.ErrTransient
}

func statusMarker(code int) error {
	switch {
	case code == http.StatusNotFound:
		return services.ErrNotFound
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return services.ErrConfiguration
	case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		return services.ErrTransient
	case code == http.StatusBadRequest:
		return services.ErrValidation
	default:
		return services.ErrProvider
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
