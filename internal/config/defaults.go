package config

const (
	defaultStateDir = "~/.local/share/unjam"
	defaultLogDir   = "~/.local/share/unjam/logs"

	defaultLogFormat  = "console"
	defaultLogLevel   = "info"
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 5

	defaultIdleThresholdMinutes = 10
	defaultIdlePollSeconds      = 1
	defaultSchedulePollSeconds  = 10
	defaultCooldownMinutes      = 60

	defaultMaxRetryAttempts       = 3
	defaultRetryDelaySeconds      = 2
	defaultStopSettleSeconds      = 3
	defaultSyncWaitTimeoutSeconds = 400
	defaultRunTimeoutSeconds      = 900

	defaultSyncCheckIntervalSeconds = 5
	defaultSyncSettleSeconds        = 300
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		MessagingApp: App{
			DisplayName: "messaging app",
		},
		SyncClient: SyncClient{
			App: App{
				DisplayName: "sync client",
			},
			SyncCheckIntervalSeconds: defaultSyncCheckIntervalSeconds,
			SettleSeconds:            defaultSyncSettleSeconds,
		},
		Triggers: Triggers{
			IdleEnabled:          true,
			IdleThresholdMinutes: defaultIdleThresholdMinutes,
			IdlePollSeconds:      defaultIdlePollSeconds,
			SchedulePollSeconds:  defaultSchedulePollSeconds,
			CooldownMinutes:      defaultCooldownMinutes,
		},
		Workflow: Workflow{
			MaxRetryAttempts:       defaultMaxRetryAttempts,
			RetryDelaySeconds:      defaultRetryDelaySeconds,
			StopSettleSeconds:      defaultStopSettleSeconds,
			SyncWaitTimeoutSeconds: defaultSyncWaitTimeoutSeconds,
			RunTimeoutSeconds:      defaultRunTimeoutSeconds,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultMaxSizeMB,
			MaxBackups: defaultMaxBackups,
		},
	}
}
