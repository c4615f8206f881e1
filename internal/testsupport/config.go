package testsupport

import (
	"path/filepath"
	"testing"

	"unjam/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test
// and timings short enough for fast tests. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.MessagingApp.DisplayName = "Messenger"
	cfgVal.MessagingApp.ProcessName = "Messenger.exe"
	cfgVal.SyncClient.DisplayName = "CloudSync"
	cfgVal.SyncClient.ProcessName = "CloudSync.exe"
	cfgVal.Workflow.RetryDelaySeconds = 0
	cfgVal.Workflow.StopSettleSeconds = 1
	cfgVal.Workflow.SyncWaitTimeoutSeconds = 2
	cfgVal.Workflow.RunTimeoutSeconds = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWorkflowTimings overrides the retry count and per-step timings.
func WithWorkflowTimings(maxAttempts, stopSettle, syncWait, runTimeout int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.MaxRetryAttempts = maxAttempts
		b.cfg.Workflow.StopSettleSeconds = stopSettle
		b.cfg.Workflow.SyncWaitTimeoutSeconds = syncWait
		b.cfg.Workflow.RunTimeoutSeconds = runTimeout
	}
}

// WithCooldownMinutes sets the trigger cooldown on the test config.
func WithCooldownMinutes(minutes float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Triggers.CooldownMinutes = minutes
	}
}

// WithIdleTrigger enables the idle trigger with the given threshold.
func WithIdleTrigger(thresholdMinutes float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Triggers.IdleEnabled = true
		b.cfg.Triggers.IdleThresholdMinutes = thresholdMinutes
	}
}

// WithSchedule appends an enabled schedule rule.
func WithSchedule(at string, days ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(days) == 0 {
			days = []string{"daily"}
		}
		b.cfg.Triggers.Schedules = append(b.cfg.Triggers.Schedules, config.ScheduleRule{
			Enabled: true,
			Time:    at,
			Days:    days,
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
