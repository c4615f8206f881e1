// Package main hosts the unjam CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC
// calls against the daemon. When no daemon socket is reachable, commands
// that can run standalone (run, test-sync, status, history, cooldown)
// fall back to operating directly on the shared state files.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
