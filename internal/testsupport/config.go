package testsupport

import (
	"path/filepath"
	"testing"

	"storyloader/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Tracker credentials are filled with non-placeholder test values so remote
// commands pass validation; point Server at a FakeTracker with WithTracker.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Path = filepath.Join(base, "data", "history.db")
	cfgVal.Tracker.Server = "http://127.0.0.1:1"
	cfgVal.Tracker.Username = "tester@example.com"
	cfgVal.Tracker.APIToken = "test-token"
	cfgVal.Tracker.ProjectKey = "PROJ"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTracker points the config at a fake tracker server.
func WithTracker(tracker *FakeTracker) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tracker.Server = tracker.URL()
	}
}

// WithProjectKey overrides the default project key.
func WithProjectKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tracker.ProjectKey = key
	}
}

// WithoutHistory disables the batch ledger.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithNtfyTopic enables batch notifications against the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
