package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks invalid configuration detected before the engine starts.
	ErrConfiguration = errors.New("configuration error")
	// ErrProcessControl marks a failed stop/start/query against a managed application.
	ErrProcessControl = errors.New("process control error")
	// ErrTimeout marks a step-level or run-level deadline expiry.
	ErrTimeout = errors.New("timeout")
	// ErrAlreadyRunning marks a trigger rejected because a run is in flight.
	ErrAlreadyRunning = errors.New("run already in progress")
	// ErrCooldownActive marks a trigger rejected by the cooldown gate.
	ErrCooldownActive = errors.New("cooldown active")
	// ErrPersistence marks a state-file read or write failure.
	ErrPersistence = errors.New("persistence error")
	// ErrUnavailable marks a platform facility that cannot be queried on this host.
	ErrUnavailable = errors.New("unavailable")
)

// Wrap builds an error message that includes step context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrProcessControl
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorDetails carries the user-facing portion of a wrapped error.
type ErrorDetails struct {
	Message string
}

// Details extracts the human-readable message from a wrapped error, stripping
// the sentinel prefix when present.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	msg := err.Error()
	for _, marker := range []error{
		ErrConfiguration, ErrProcessControl, ErrTimeout,
		ErrAlreadyRunning, ErrCooldownActive, ErrPersistence, ErrUnavailable,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			msg = strings.TrimPrefix(msg, prefix)
			break
		}
	}
	return ErrorDetails{Message: strings.TrimSpace(msg)}
}

// Rejected reports whether err represents a dropped trigger rather than a
// failure of the engine itself.
func Rejected(err error) bool {
	return errors.Is(err, ErrAlreadyRunning) || errors.Is(err, ErrCooldownActive)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
