// Package trigger coordinates the sources that may start a recovery run.
// At most one run executes at a time and every accepted trigger starts the
// shared cooldown, no matter which source asked.
package trigger
