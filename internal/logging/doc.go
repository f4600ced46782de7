// Package logging assembles the slog loggers used by the exporter and the CLI.
//
// It owns the console and JSON handlers, level parsing and a handful of
// attribute helpers so packages tag their log lines with the same keys. A
// no-op logger is provided for tests and for callers that pass nil.
package logging
