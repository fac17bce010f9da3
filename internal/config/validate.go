package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is structurally usable. Credentials are
// checked separately by ValidateTracker so offline commands work without them.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateTrackerFields(); err != nil {
		return err
	}
	if topic := c.Notifications.NtfyTopic; topic != "" {
		parsed, err := url.Parse(topic)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("notifications.ntfy_topic must be a full topic URL, got %q", topic)
		}
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateTrackerFields() error {
	if c.Tracker.TimeoutSeconds < 0 {
		return errors.New("tracker.timeout_seconds must be >= 0")
	}
	if c.Tracker.Server != "" && !isPlaceholder(c.Tracker.Server) {
		parsed, err := url.Parse(c.Tracker.Server)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("tracker.server must be an http(s) URL, got %q", c.Tracker.Server)
		}
	}
	return nil
}

// ValidateTracker checks the credentials required by remote commands. Every
// missing or placeholder key is named in the error.
func (c *Config) ValidateTracker() error {
	required := []struct {
		key, env, value string
	}{
		{"tracker.server", EnvServer, c.Tracker.Server},
		{"tracker.username", EnvUsername, c.Tracker.Username},
		{"tracker.api_token", EnvAPIToken, c.Tracker.APIToken},
	}
	var missing []string
	for _, r := range required {
		if r.key == "tracker.username" && r.value == "" {
			// A bearer personal access token needs no username.
			continue
		}
		if r.value == "" || isPlaceholder(r.value) {
			missing = append(missing, fmt.Sprintf("%s (%s)", r.key, r.env))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("missing tracker configuration: %s. Set the env vars or edit %s (create with 'storyloader config init')",
		strings.Join(missing, ", "), defaultPath)
}

// ValidateProject requires a project key from the flag or configuration.
func (c *Config) ValidateProject(override string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(override))
	if key == "" {
		key = c.Tracker.ProjectKey
	}
	if key == "" || isPlaceholder(key) {
		return "", fmt.Errorf("project key is required: pass --project, set %s, or set tracker.project_key", EnvProjectKey)
	}
	return key, nil
}

// isPlaceholder matches values left over from the sample configuration.
func isPlaceholder(value string) bool {
	lower := strings.ToLower(value)
	return strings.Contains(lower, "your-") || strings.Contains(lower, "your_")
}
