// Package history persists a record of every export run in SQLite so the CLI
// and the HTTP bridge can show what ran, what it selected, and whether the
// mapping artifact was refreshed.
package history
