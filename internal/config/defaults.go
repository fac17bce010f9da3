package config

const (
	defaultConfigPath       = "~/.config/storyloader/config.toml"
	projectConfigName       = "storyloader.toml"
	defaultDataDir          = "~/.local/share/storyloader"
	defaultLogDir           = "~/.local/share/storyloader/logs"
	defaultHistoryFile      = "history.db"
	defaultLogRetentionDays = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultEpicIssueType    = "Epic"
	defaultStoryIssueType   = "Story"
	defaultStoryPointsField = "customfield_10016"
	defaultTrackerTimeout   = 30
	defaultEpicMarker       = "EPIC:"
	defaultNtfyTimeout      = 10
)

// Environment variables that override file values.
const (
	EnvServer     = "JIRA_SERVER"
	EnvUsername   = "JIRA_USERNAME"
	EnvAPIToken   = "JIRA_API_TOKEN"
	EnvProjectKey = "JIRA_PROJECT_KEY"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Tracker: Tracker{
			EpicIssueType:    defaultEpicIssueType,
			StoryIssueType:   defaultStoryIssueType,
			StoryPointsField: defaultStoryPointsField,
			TimeoutSeconds:   defaultTrackerTimeout,
		},
		Stories: Stories{
			EpicMarkers:       []string{defaultEpicMarker},
			CommentAcceptance: true,
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
