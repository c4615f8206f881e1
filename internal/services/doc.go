// Package services defines shared utilities consumed by the trigger
// coordinator, the workflow executor, and the process-control integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, step names, and trigger sources for
//     logging and correlation.
//   - Structured error markers plus the Wrap helper that classify failures
//     (process control vs timeout vs rejected trigger) consistently.
//
// Use these helpers when wiring new workflow logic so operational behaviour
// (error handling, observability, retries) stays uniform across the engine.
package services
