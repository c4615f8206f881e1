package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"unjam/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unjam.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
[messaging_app]
process_name = "WeChat.exe"

[sync_client]
process_name = "OneDrive.exe"
`

func TestLoadAppliesDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := writeConfig(t, minimalConfig)
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected existing resolved config, got %q %v", resolved, exists)
	}

	wantState := filepath.Join(tempHome, ".local", "share", "unjam")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Triggers.IdleThresholdMinutes != 10 {
		t.Fatalf("unexpected idle threshold: %v", cfg.Triggers.IdleThresholdMinutes)
	}
	if cfg.Triggers.CooldownMinutes != 60 {
		t.Fatalf("unexpected cooldown: %v", cfg.Triggers.CooldownMinutes)
	}
	if cfg.Workflow.MaxRetryAttempts != 3 {
		t.Fatalf("unexpected retry attempts: %d", cfg.Workflow.MaxRetryAttempts)
	}
	if cfg.Workflow.SyncWaitTimeoutSeconds != 400 {
		t.Fatalf("unexpected sync wait timeout: %d", cfg.Workflow.SyncWaitTimeoutSeconds)
	}
	if cfg.MessagingApp.DisplayName != "messaging app" {
		t.Fatalf("expected default display name, got %q", cfg.MessagingApp.DisplayName)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if got := cfg.CooldownStatePath(); !strings.HasPrefix(got, wantState) {
		t.Fatalf("cooldown state path outside state dir: %q", got)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.LogDir); err != nil {
		t.Fatalf("expected log dir created: %v", err)
	}
}

func TestLoadRejectsMissingProcessNames(t *testing.T) {
	path := writeConfig(t, `
[messaging_app]
display_name = "WeChat"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for missing process names")
	}
}

func TestLoadRejectsInvalidScheduleTime(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[[triggers.schedule]]
enabled = true
time = "25:99"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for invalid schedule time")
	}
}

func TestLoadRejectsUnknownScheduleDay(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[[triggers.schedule]]
enabled = true
time = "05:00"
days = ["funday"]
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown day")
	}
}

func TestLoadRejectsNonPositiveIdleThreshold(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[triggers]
idle_enabled = true
idle_threshold_minutes = 0.0
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for zero idle threshold")
	}
}

func TestScheduleRuleClockAndDaily(t *testing.T) {
	rule := config.ScheduleRule{Time: "05:30", Days: []string{"daily"}}
	hour, minute, err := rule.Clock()
	if err != nil {
		t.Fatalf("Clock returned error: %v", err)
	}
	if hour != 5 || minute != 30 {
		t.Fatalf("unexpected clock: %d:%d", hour, minute)
	}
	if !rule.Daily() {
		t.Fatal("expected daily rule")
	}

	weekly := config.ScheduleRule{Time: "23:00", Days: []string{"monday", "friday"}}
	if weekly.Daily() {
		t.Fatal("expected non-daily rule")
	}
}

func TestNormalizeDefaultsScheduleDays(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[[triggers.schedule]]
enabled = true
time = "05:00"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.Triggers.Schedules) != 1 {
		t.Fatalf("expected one schedule rule, got %d", len(cfg.Triggers.Schedules))
	}
	if !cfg.Triggers.Schedules[0].Daily() {
		t.Fatal("expected empty days to normalize to daily")
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[messaging_app]") {
		t.Fatal("sample config missing messaging_app section")
	}
}
