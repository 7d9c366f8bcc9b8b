// Package logging builds the slog loggers used across naturatag.
//
// Two output formats are supported: a console handler that renders
// "timestamp LEVEL component: message key=value" lines, and a JSON handler
// for machine consumption. NewFromConfig wires both stdout and the data-dir
// log file. Attr helpers mirror the slog constructors so call sites stay
// uniform.
package logging
