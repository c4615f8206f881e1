package procctl

import (
	"context"
	"time"

	"unjam/internal/config"
)

// Condition names an observable application state WaitForCondition can poll for.
type Condition string

const (
	// ConditionStopped is satisfied when no process with the app's image name runs.
	ConditionStopped Condition = "stopped"
	// ConditionRunning is satisfied when at least one matching process runs.
	ConditionRunning Condition = "running"
	// ConditionSyncComplete is satisfied when the app's sync-check command
	// exits 0, or after the settle wait when no command is configured.
	ConditionSyncComplete Condition = "sync_complete"
)

// App carries everything a controller needs to manage one application.
type App struct {
	DisplayName  string
	ProcessName  string
	StartCommand []string
	StopCommand  []string

	// Sync-completion probing, used only for ConditionSyncComplete.
	SyncCheckCommand  []string
	SyncCheckInterval time.Duration
	SettleWait        time.Duration
}

// FromConfigApp maps a configured application to a controller App.
func FromConfigApp(app config.App) App {
	return App{
		DisplayName:  app.DisplayName,
		ProcessName:  app.ProcessName,
		StartCommand: append([]string(nil), app.StartCommand...),
		StopCommand:  append([]string(nil), app.StopCommand...),
	}
}

// FromSyncClient maps the configured sync client to a controller App.
func FromSyncClient(client config.SyncClient) App {
	app := FromConfigApp(client.App)
	app.SyncCheckCommand = append([]string(nil), client.SyncCheckCommand...)
	app.SyncCheckInterval = time.Duration(client.SyncCheckIntervalSeconds) * time.Second
	app.SettleWait = time.Duration(client.SettleSeconds) * time.Second
	return app
}

// Controller is the process-control contract the workflow executor drives.
// Implementations must not block indefinitely; every call observes ctx.
type Controller interface {
	Stop(ctx context.Context, app App) error
	Start(ctx context.Context, app App) error
	IsRunning(ctx context.Context, app App) (bool, error)
	WaitForCondition(ctx context.Context, app App, cond Condition, timeout time.Duration) error
}
