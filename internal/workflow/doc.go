// Package workflow drives a single recovery run: stop the messaging app,
// cycle the sync client, wait for the sync backlog to drain, then bring the
// messaging app back. Steps retry individually and the whole run is bounded
// by one deadline. The final messaging-app restart is attempted even when an
// earlier step has already failed the run.
package workflow
