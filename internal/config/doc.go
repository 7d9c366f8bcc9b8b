// Package config loads, normalizes, and validates naturatag configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI needs: data and temp directories, iNaturalist endpoints, identification
// thresholds, export geometry, observation policy, update source, ntfy
// notifications, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
