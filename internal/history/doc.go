// Package history persists finished recovery runs to SQLite so the status
// and history commands can report what happened while nobody was watching.
package history
