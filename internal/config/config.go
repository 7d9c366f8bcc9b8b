package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// DataDir holds the keyword catalog, token state, and log file.
	DataDir string `toml:"data_dir"`
	// TempDir is the private single-slot area for upload exports.
	TempDir string `toml:"temp_dir"`
}

// INaturalist contains connection settings for the iNaturalist API.
type INaturalist struct {
	BaseURL        string `toml:"base_url"`
	TokenURL       string `toml:"token_url"`
	UserAgent      string `toml:"user_agent"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Identify contains settings for candidate filtering and normalization.
type Identify struct {
	// ConfidenceThreshold is the minimum combined score, in percent,
	// a candidate needs to be offered to the user. Boundary inclusive.
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	// AccentFolding is "french" (fixed diacritic map) or "unicode"
	// (full combining-mark strip).
	AccentFolding string `toml:"accent_folding"`
}

// Export contains settings for the temp JPEG export.
type Export struct {
	LongEdge int `toml:"long_edge"`
	Quality  int `toml:"quality"`
}

// Observation contains policy for observation submission.
type Observation struct {
	// RequireGPS makes submission fail fast when the photo carries no
	// GPS coordinates. When false the coordinate fields are omitted.
	RequireGPS bool `toml:"require_gps"`
}

// Tagging contains settings for keyword application.
type Tagging struct {
	// WriteMetadata also writes chosen keywords into the photo file
	// via exiftool, in addition to the catalog.
	WriteMetadata bool `toml:"write_metadata"`
}

// Update contains the GitHub release source for version checks.
type Update struct {
	RepoOwner string `toml:"repo_owner"`
	RepoName  string `toml:"repo_name"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Identification bool   `toml:"identification"`
	Observation    bool   `toml:"observation"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for naturatag.
//
// Configuration sections by subsystem:
//   - Paths: data and temp directories
//   - INaturalist: API endpoints, token page URL, timeouts
//   - Identify: confidence threshold and accent folding mode
//   - Export: temp JPEG geometry and quality
//   - Observation: GPS requirement policy
//   - Tagging: keyword write-back into photo files
//   - Update: GitHub repository for release checks
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	INaturalist   INaturalist   `toml:"inaturalist"`
	Identify      Identify      `toml:"identify"`
	Export        Export        `toml:"export"`
	Observation   Observation   `toml:"observation"`
	Tagging       Tagging       `toml:"tagging"`
	Update        Update        `toml:"update"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/naturatag/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The boolean reports whether a
// file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("naturatag.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and temp directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CatalogPath returns the keyword catalog database location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// TokenStatePath returns the persisted token state location.
func (c *Config) TokenStatePath() string {
	return filepath.Join(c.Paths.DataDir, "token_state.json")
}

// LogPath returns the log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.DataDir, "naturatag.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
