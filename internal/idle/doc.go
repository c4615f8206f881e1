// Package idle reports how long the interactive session has been without
// keyboard or mouse input and raises an event when that duration crosses a
// configured threshold.
package idle
