package config

import (
	"errors"
	"fmt"

	"naturatag/internal/species"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIdentify(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateUpdate(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateIdentify() error {
	if c.Identify.ConfidenceThreshold < 0 || c.Identify.ConfidenceThreshold > 100 {
		return errors.New("identify.confidence_threshold must be between 0 and 100")
	}
	if !species.ValidFoldMode(c.Identify.AccentFolding) {
		return fmt.Errorf("identify.accent_folding: unsupported value %q (use \"french\" or \"unicode\")", c.Identify.AccentFolding)
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.LongEdge <= 0 {
		return errors.New("export.long_edge must be positive")
	}
	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return errors.New("export.quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateUpdate() error {
	if c.Update.RepoOwner == "" {
		return errors.New("update.repo_owner must be set")
	}
	if c.Update.RepoName == "" {
		return errors.New("update.repo_name must be set")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
