// Package logging centralizes slog construction and the structured field
// vocabulary used across the daemon, the workflow executor, and the CLI.
//
// Loggers write to stdout/stderr and, when a log directory is configured, to a
// rotated file sink. Console output is a compact human format; the json format
// is for ingestion.
package logging
