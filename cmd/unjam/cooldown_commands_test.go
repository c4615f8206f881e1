package main

import (
	"path/filepath"
	"testing"

	"unjam/internal/testsupport"
)

func TestCooldownCommandsWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	socket := filepath.Join(testsupport.BaseDir(cfg), "absent.sock")

	out, _, err := runCLI(t, []string{"cooldown", "status"}, socket, configPath)
	if err != nil {
		t.Fatalf("cooldown status: %v", err)
	}
	requireContains(t, out, "open, never triggered")

	out, _, err = runCLI(t, []string{"cooldown", "apply"}, socket, configPath)
	if err != nil {
		t.Fatalf("cooldown apply: %v", err)
	}
	requireContains(t, out, "Cooldown applied")

	out, _, err = runCLI(t, []string{"cooldown", "status"}, socket, configPath)
	if err != nil {
		t.Fatalf("cooldown status after apply: %v", err)
	}
	requireContains(t, out, "active")

	out, _, err = runCLI(t, []string{"cooldown", "reset"}, socket, configPath)
	if err != nil {
		t.Fatalf("cooldown reset: %v", err)
	}
	requireContains(t, out, "Cooldown cleared")

	out, _, err = runCLI(t, []string{"cooldown", "status"}, socket, configPath)
	if err != nil {
		t.Fatalf("cooldown status after reset: %v", err)
	}
	requireContains(t, out, "open")
}

func TestCooldownApplyBlocksDirectRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	socket := filepath.Join(testsupport.BaseDir(cfg), "absent.sock")

	if _, _, err := runCLI(t, []string{"cooldown", "apply"}, socket, configPath); err != nil {
		t.Fatalf("cooldown apply: %v", err)
	}

	_, _, err := runCLI(t, []string{"run"}, socket, configPath)
	if err == nil {
		t.Fatal("expected direct run to be rejected while cooldown is active")
	}
	if got := exitCodeFor(err); got != exitRejected {
		t.Fatalf("exit code = %d, want %d (%v)", got, exitRejected, err)
	}
}
