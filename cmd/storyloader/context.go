package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"storyloader/internal/config"
	"storyloader/internal/history"
	"storyloader/internal/ingest"
	"storyloader/internal/logging"
	"storyloader/internal/services/jira"
)

type commandContext struct {
	configFlag *string
	quiet      *bool
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, quiet, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		quiet:      quiet,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// loggerValue builds the process logger once and prunes expired log files.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logCfg := *cfg
		if c.verbose != nil && *c.verbose {
			logCfg.Logging.Level = "debug"
		}
		logger, err := logging.NewFromConfig(&logCfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		if c.quiet != nil && *c.quiet {
			logger = logging.WithLevelOverride(logger, slog.LevelWarn)
		}
		logger = logging.NewComponentLogger(logger, "cli")
		now := time.Now()
		logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, now, logging.RetentionTarget{
			Dir:     cfg.Paths.LogDir,
			Pattern: logging.LogFilePattern,
			Exclude: []string{logging.LogFilePath(cfg.Paths.LogDir, now)},
		})
		c.logger = logger
	})
	return c.logger
}

// trackerClient validates the tracker credentials and builds a client.
func (c *commandContext) trackerClient() (*jira.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateTracker(); err != nil {
		return nil, err
	}
	return jira.NewClient(jira.Config{
		BaseURL:          cfg.Tracker.Server,
		Username:         cfg.Tracker.Username,
		APIToken:         cfg.Tracker.APIToken,
		EpicIssueType:    cfg.Tracker.EpicIssueType,
		StoryIssueType:   cfg.Tracker.StoryIssueType,
		StoryPointsField: cfg.Tracker.StoryPointsField,
		EpicNameField:    cfg.Tracker.EpicNameField,
		EpicLinkField:    cfg.Tracker.EpicLinkField,
		TimeoutSeconds:   cfg.Tracker.TimeoutSeconds,
	}), nil
}

func (c *commandContext) parseOptions(declaredType string, strict bool) ingest.Options {
	opts := ingest.Options{DeclaredType: strings.TrimSpace(declaredType), DisallowFallback: strict}
	if c.config != nil {
		opts.EpicMarkers = c.config.Stories.EpicMarkers
		opts.DisallowFallback = opts.DisallowFallback || c.config.Stories.DisallowFallback
	}
	return opts
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("batch history is disabled (history.enabled = false)")
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
