package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// applyEnv lets JIRA_* variables take precedence over file values.
func (c *Config) applyEnv() {
	overrides := []struct {
		name   string
		target *string
	}{
		{EnvServer, &c.Tracker.Server},
		{EnvUsername, &c.Tracker.Username},
		{EnvAPIToken, &c.Tracker.APIToken},
		{EnvProjectKey, &c.Tracker.ProjectKey},
	}
	for _, o := range overrides {
		if value, ok := os.LookupEnv(o.name); ok && strings.TrimSpace(value) != "" {
			*o.target = value
		}
	}
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTracker()
	c.normalizeStories()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTracker() {
	c.Tracker.Server = strings.TrimRight(strings.TrimSpace(c.Tracker.Server), "/")
	c.Tracker.Username = strings.TrimSpace(c.Tracker.Username)
	c.Tracker.APIToken = strings.TrimSpace(c.Tracker.APIToken)
	c.Tracker.ProjectKey = strings.ToUpper(strings.TrimSpace(c.Tracker.ProjectKey))
	c.Tracker.EpicNameField = strings.TrimSpace(c.Tracker.EpicNameField)
	c.Tracker.EpicLinkField = strings.TrimSpace(c.Tracker.EpicLinkField)
	if c.Tracker.EpicIssueType = strings.TrimSpace(c.Tracker.EpicIssueType); c.Tracker.EpicIssueType == "" {
		c.Tracker.EpicIssueType = defaultEpicIssueType
	}
	if c.Tracker.StoryIssueType = strings.TrimSpace(c.Tracker.StoryIssueType); c.Tracker.StoryIssueType == "" {
		c.Tracker.StoryIssueType = defaultStoryIssueType
	}
	if c.Tracker.StoryPointsField = strings.TrimSpace(c.Tracker.StoryPointsField); c.Tracker.StoryPointsField == "" {
		c.Tracker.StoryPointsField = defaultStoryPointsField
	}
	if c.Tracker.TimeoutSeconds == 0 {
		c.Tracker.TimeoutSeconds = defaultTrackerTimeout
	}
}

func (c *Config) normalizeStories() {
	markers := make([]string, 0, len(c.Stories.EpicMarkers))
	seen := make(map[string]struct{}, len(c.Stories.EpicMarkers))
	for _, marker := range c.Stories.EpicMarkers {
		marker = strings.TrimSpace(marker)
		if marker == "" {
			continue
		}
		if _, ok := seen[marker]; ok {
			continue
		}
		seen[marker] = struct{}{}
		markers = append(markers, marker)
	}
	if len(markers) == 0 {
		markers = []string{defaultEpicMarker}
	}
	c.Stories.EpicMarkers = markers
}

func (c *Config) normalizeHistory() error {
	path := strings.TrimSpace(c.History.Path)
	if path == "" {
		c.History.Path = filepath.Join(c.Paths.DataDir, defaultHistoryFile)
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	c.History.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
}
