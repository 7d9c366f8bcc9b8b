// Package update checks GitHub releases for a newer build. Checking never
// downloads anything; when an update exists the user is pointed at (or
// browsed to) the release page.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/browser"

	"naturatag/internal/config"
	"naturatag/internal/logging"
	"naturatag/internal/services"
	"naturatag/internal/version"
)

const defaultAPIBase = "https://api.github.com"

// Asset is one downloadable artifact attached to a release.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
}

// Release is the latest published release of the tracked repository.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

// Result pairs the release lookup with the comparison against the running
// build.
type Result struct {
	Status  version.Status
	Current string
	Latest  Release
}

// CheckerOption customises Checker construction.
type CheckerOption func(*Checker)

// WithAPIBase overrides the GitHub API base URL (used in tests).
func WithAPIBase(base string) CheckerOption {
	return func(c *Checker) {
		c.apiBase = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) CheckerOption {
	return func(c *Checker) {
		c.httpClient = client
	}
}

// Checker queries GitHub for the latest release of the configured repository.
type Checker struct {
	apiBase    string
	owner      string
	repo       string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewChecker builds a Checker from configuration.
func NewChecker(cfg *config.Config, logger *slog.Logger, opts ...CheckerOption) *Checker {
	checker := &Checker{
		apiBase:    defaultAPIBase,
		owner:      cfg.Update.RepoOwner,
		repo:       cfg.Update.RepoName,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.WithComponent(logger, "update"),
	}
	for _, opt := range opts {
		opt(checker)
	}
	return checker
}

// Check fetches the latest release and compares its tag against the running
// build version.
func (c *Checker) Check(ctx context.Context) (Result, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.apiBase, c.owner, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build release request: %w", err)
	}
	// GitHub rejects requests without a User-Agent.
	req.Header.Set("User-Agent", "naturatag/"+version.Current)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, services.Wrap(services.ErrNoResponse, "update", "check", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Result{}, services.Wrap(services.ErrInvalidResponse, "update", "check",
			fmt.Sprintf("endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return Result{}, services.Wrap(services.ErrInvalidResponse, "update", "check", "invalid response format", err)
	}
	if strings.TrimSpace(release.TagName) == "" {
		return Result{}, services.Wrap(services.ErrInvalidResponse, "update", "check", "release has no tag", nil)
	}

	status := version.CompareTags(version.Current, release.TagName)
	c.logger.Debug("checked for update",
		logging.String("current", version.Current),
		logging.String("latest", release.TagName),
		logging.String("status", status.String()),
	)
	return Result{Status: status, Current: version.Current, Latest: release}, nil
}

// OpenReleasePage opens the release in the default browser.
func (c *Checker) OpenReleasePage(release Release) error {
	url := release.HTMLURL
	if strings.TrimSpace(url) == "" {
		url = fmt.Sprintf("https://github.com/%s/%s/releases", c.owner, c.repo)
	}
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("open release page: %w", err)
	}
	return nil
}
