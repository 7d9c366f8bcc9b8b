// Package notifications pushes run updates to an ntfy topic. Without a
// configured topic every notification is a silent no-op, so callers never
// branch on whether notifications are enabled.
package notifications
