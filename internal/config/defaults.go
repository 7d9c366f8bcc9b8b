package config

const (
	defaultDataDir             = "~/.local/share/naturatag"
	defaultTempDir             = "~/.local/share/naturatag/tmp"
	defaultBaseURL             = "https://api.inaturalist.org"
	defaultTokenURL            = "https://www.inaturalist.org/users/api_token"
	defaultUserAgent           = "naturatag/0.1"
	defaultRequestTimeout      = 30
	defaultConfidenceThreshold = 5.0
	defaultAccentFolding       = "french"
	defaultLongEdge            = 1024
	defaultQuality             = 90
	defaultRequireGPS          = true
	defaultRepoOwner           = "naturatag"
	defaultRepoName            = "naturatag"
	defaultNtfyTimeout         = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			TempDir: defaultTempDir,
		},
		INaturalist: INaturalist{
			BaseURL:        defaultBaseURL,
			TokenURL:       defaultTokenURL,
			UserAgent:      defaultUserAgent,
			RequestTimeout: defaultRequestTimeout,
		},
		Identify: Identify{
			ConfidenceThreshold: defaultConfidenceThreshold,
			AccentFolding:       defaultAccentFolding,
		},
		Export: Export{
			LongEdge: defaultLongEdge,
			Quality:  defaultQuality,
		},
		Observation: Observation{
			RequireGPS: defaultRequireGPS,
		},
		Update: Update{
			RepoOwner: defaultRepoOwner,
			RepoName:  defaultRepoName,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			Identification: true,
			Observation:    true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
