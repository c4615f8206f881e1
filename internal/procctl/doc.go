// Package procctl abstracts process-level control of the managed desktop
// applications. The workflow executor depends only on the Controller
// interface, so the command-driven implementation here can be swapped for a
// simulator in tests and dry runs.
package procctl
