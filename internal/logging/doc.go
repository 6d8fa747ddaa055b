// Package logging builds the slog loggers used across chime.
//
// It provides a console handler that renders compact single-line output for
// interactive use, a JSON handler for file logs, attr helper aliases so other
// packages avoid importing log/slog directly, and the standardized field name
// constants shared by every component.
package logging
