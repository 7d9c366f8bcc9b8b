package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeINaturalist()
	c.normalizeIdentify()
	c.normalizeUpdate()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaultTempDir
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeINaturalist() {
	c.INaturalist.BaseURL = strings.TrimRight(strings.TrimSpace(c.INaturalist.BaseURL), "/")
	if c.INaturalist.BaseURL == "" {
		c.INaturalist.BaseURL = defaultBaseURL
	}
	c.INaturalist.TokenURL = strings.TrimSpace(c.INaturalist.TokenURL)
	if c.INaturalist.TokenURL == "" {
		c.INaturalist.TokenURL = defaultTokenURL
	}
	c.INaturalist.UserAgent = strings.TrimSpace(c.INaturalist.UserAgent)
	if c.INaturalist.UserAgent == "" {
		c.INaturalist.UserAgent = defaultUserAgent
	}
	if c.INaturalist.RequestTimeout <= 0 {
		c.INaturalist.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeIdentify() {
	c.Identify.AccentFolding = strings.ToLower(strings.TrimSpace(c.Identify.AccentFolding))
	if c.Identify.AccentFolding == "" {
		c.Identify.AccentFolding = defaultAccentFolding
	}
}

func (c *Config) normalizeUpdate() {
	c.Update.RepoOwner = strings.TrimSpace(c.Update.RepoOwner)
	c.Update.RepoName = strings.TrimSpace(c.Update.RepoName)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
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
