package main

import (
	"path/filepath"
	"testing"

	"unjam/internal/testsupport"
)

func TestTestSyncCommandCompletes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	socket := filepath.Join(testsupport.BaseDir(cfg), "absent.sock")

	out, _, err := runCLI(t, []string{"test-sync", "--step-delay", "5ms"}, socket, configPath)
	if err != nil {
		t.Fatalf("test-sync: %v", err)
	}
	requireContains(t, out, "completed in")
	requireContains(t, out, "restarting_messaging_app")
}

func TestTestSyncCommandInjectedFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	socket := filepath.Join(testsupport.BaseDir(cfg), "absent.sock")

	out, _, err := runCLI(t,
		[]string{"test-sync", "--step-delay", "1ms", "--fail", "start:sync:9"},
		socket, configPath)
	if err == nil {
		t.Fatal("expected injected start failure to fail the run")
	}
	requireContains(t, out, "failed")
	if got := exitCodeFor(err); got != exitFailure {
		t.Fatalf("exit code = %d, want %d", got, exitFailure)
	}
}

func TestTestSyncCommandRejectsBadFailSpec(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	socket := filepath.Join(testsupport.BaseDir(cfg), "absent.sock")

	_, _, err := runCLI(t,
		[]string{"test-sync", "--fail", "reboot:everything"},
		socket, configPath)
	if err == nil {
		t.Fatal("expected invalid --fail spec to be rejected")
	}
}
