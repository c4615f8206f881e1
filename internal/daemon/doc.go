// Package daemon ties the trigger sources to the coordinator and enforces
// single-instance execution through a lock file. It owns the background
// loops that watch for user idleness and scheduled times.
package daemon
