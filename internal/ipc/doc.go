// Package ipc exposes daemon control over a Unix domain socket using
// JSON-RPC. The CLI is the only intended client; requests cover status,
// manual runs, cooldown management, and run history.
package ipc
