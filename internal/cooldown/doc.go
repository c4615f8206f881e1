// Package cooldown gates how often a recovery run may start. The timestamp of
// the last accepted trigger is persisted so the gate survives daemon
// restarts.
package cooldown
