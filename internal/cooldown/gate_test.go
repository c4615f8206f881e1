package cooldown

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func statePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cooldown_state.json")
}

func TestGateDeniesDuringCooldown(t *testing.T) {
	gate := NewGate(statePath(t), 1200*time.Second, nil)

	start := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	if ok, _ := gate.TryAcquire(start); !ok {
		t.Fatal("fresh gate should accept")
	}
	if err := gate.Acquire(start); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	ok, remaining := gate.TryAcquire(start.Add(600 * time.Second))
	if ok {
		t.Fatal("gate accepted inside the cooldown")
	}
	if remaining != 600*time.Second {
		t.Fatalf("remaining = %v, want 600s", remaining)
	}

	if ok, _ := gate.TryAcquire(start.Add(1201 * time.Second)); !ok {
		t.Fatal("gate should accept after the cooldown elapses")
	}
}

func TestAcquireRecordsUnconditionally(t *testing.T) {
	gate := NewGate(statePath(t), time.Hour, nil)
	start := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	if err := gate.Acquire(start); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	// Acquire commits the trigger even while a cooldown runs; admission
	// control is TryAcquire's job.
	later := start.Add(time.Minute)
	if err := gate.Acquire(later); err != nil {
		t.Fatalf("Acquire inside cooldown failed: %v", err)
	}
	_, _, last := gate.Status(later)
	if !last.Equal(later) {
		t.Fatalf("last trigger = %s, want %s", last, later)
	}
	if ok, remaining := gate.TryAcquire(later.Add(30 * time.Minute)); ok || remaining != 31*time.Minute {
		t.Fatalf("TryAcquire = %v, %s; want denial with 31m remaining", ok, remaining)
	}
}

func TestGateStateSurvivesRestart(t *testing.T) {
	path := statePath(t)
	start := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	gate := NewGate(path, time.Hour, nil)
	if err := gate.Acquire(start); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	reloaded := NewGate(path, time.Hour, nil)
	ok, remaining := reloaded.TryAcquire(start.Add(10 * time.Minute))
	if ok {
		t.Fatal("reloaded gate forgot the active cooldown")
	}
	if remaining != 50*time.Minute {
		t.Fatalf("remaining = %v, want 50m", remaining)
	}
}

func TestGateStartsOpenOnCorruptState(t *testing.T) {
	path := statePath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt state: %v", err)
	}
	gate := NewGate(path, time.Hour, nil)
	if ok, _ := gate.TryAcquire(time.Now()); !ok {
		t.Fatal("gate should open when state cannot be read")
	}
}

func TestReset(t *testing.T) {
	path := statePath(t)
	gate := NewGate(path, time.Hour, nil)
	now := time.Now()
	if err := gate.Acquire(now); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := gate.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if ok, _ := gate.TryAcquire(now.Add(time.Second)); !ok {
		t.Fatal("gate should accept immediately after reset")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("state file should be removed, stat err = %v", err)
	}
}

func TestApplyNow(t *testing.T) {
	gate := NewGate(statePath(t), time.Hour, nil)
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	if err := gate.ApplyNow(now); err != nil {
		t.Fatalf("ApplyNow failed: %v", err)
	}
	active, remaining, last := gate.Status(now.Add(time.Minute))
	if !active {
		t.Fatal("expected active cooldown after ApplyNow")
	}
	if remaining != 59*time.Minute {
		t.Fatalf("remaining = %v, want 59m", remaining)
	}
	if !last.Equal(now) {
		t.Fatalf("last trigger = %v, want %v", last, now)
	}
}

func TestMemoryOnlyGate(t *testing.T) {
	gate := NewGate("", time.Hour, nil)
	now := time.Now()
	if err := gate.Acquire(now); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if ok, _ := gate.TryAcquire(now.Add(time.Minute)); ok {
		t.Fatal("memory-only gate should still enforce the cooldown")
	}
}
