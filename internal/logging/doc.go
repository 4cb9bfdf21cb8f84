// Package logging assembles structured slog loggers and formatting helpers used
// across clipexport.
//
// It owns the console and JSON handlers, tees console output to a JSON log
// file when a log directory is configured, and exposes context-aware helpers
// so every line emitted during an export run carries its run ID. A no-op
// logger is provided for tests and library callers that pass nil.
package logging
