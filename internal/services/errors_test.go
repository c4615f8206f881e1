package services_test

import (
	"errors"
	"strings"
	"testing"

	"unjam/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrProcessControl, "workflow", "stop messaging app", "terminate failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrProcessControl) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"workflow", "stop messaging app", "terminate failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestDetailsStripsMarker(t *testing.T) {
	err := services.Wrap(services.ErrTimeout, "workflow", "wait for sync", "deadline exceeded", nil)
	details := services.Details(err)
	if strings.HasPrefix(details.Message, "timeout:") {
		t.Fatalf("expected marker stripped, got %q", details.Message)
	}
	if !strings.Contains(details.Message, "wait for sync") {
		t.Fatalf("expected operation in message, got %q", details.Message)
	}
	if services.Details(nil).Message != "" {
		t.Fatal("expected empty message for nil error")
	}
}

func TestRejectedClassification(t *testing.T) {
	if !services.Rejected(services.Wrap(services.ErrCooldownActive, "trigger", "idle", "denied", nil)) {
		t.Fatal("expected cooldown rejection to classify as rejected")
	}
	if !services.Rejected(services.ErrAlreadyRunning) {
		t.Fatal("expected already-running to classify as rejected")
	}
	if services.Rejected(services.ErrTimeout) {
		t.Fatal("timeout must not classify as rejected")
	}
	if services.Rejected(nil) {
		t.Fatal("nil must not classify as rejected")
	}
}
