// Package config loads, normalizes, and validates unjam configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and validates trigger thresholds and schedule
// rules before the engine starts. The Config type centralizes every knob the
// daemon and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical schedule times, and clear validation errors.
package config
