package procctl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"unjam/internal/logging"
	"unjam/internal/services"
)

const (
	defaultCallTimeout = 30 * time.Second
	defaultPollEvery   = time.Second
)

// CommandController drives applications through platform process commands
// (taskkill/tasklist on Windows, pkill/pgrep elsewhere), with per-app
// overrides from configuration.
type CommandController struct {
	logger      *slog.Logger
	callTimeout time.Duration
}

// NewCommandController constructs a controller that shells out to the
// platform's process tooling.
func NewCommandController(logger *slog.Logger) *CommandController {
	return &CommandController{
		logger:      logging.NewComponentLogger(logger, "procctl"),
		callTimeout: defaultCallTimeout,
	}
}

// Stop terminates all processes matching the app's image name. Stopping an
// app that is not running succeeds without side effects.
func (c *CommandController) Stop(ctx context.Context, app App) error {
	running, err := c.IsRunning(ctx, app)
	if err != nil {
		return err
	}
	if !running {
		c.logger.Debug("app not running, nothing to stop", logging.String("app", app.DisplayName))
		return nil
	}

	argv := app.StopCommand
	if len(argv) == 0 {
		argv = defaultStopCommand(app.ProcessName)
	}
	if len(argv) == 0 {
		return services.Wrap(services.ErrProcessControl, "procctl", "stop "+app.DisplayName, "no stop command available", nil)
	}
	if _, err := c.run(ctx, argv); err != nil {
		return services.Wrap(services.ErrProcessControl, "procctl", "stop "+app.DisplayName, "stop command failed", err)
	}
	return nil
}

// Start launches the app and returns without waiting for it to initialize.
func (c *CommandController) Start(ctx context.Context, app App) error {
	argv := app.StartCommand
	if len(argv) == 0 {
		// Fall back to launching the image name through PATH.
		argv = []string{app.ProcessName}
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrProcessControl, "procctl", "start "+app.DisplayName, "launch failed", err)
	}
	// The app outlives us; detach instead of waiting.
	if err := cmd.Process.Release(); err != nil {
		c.logger.Debug("release started process", logging.Error(err))
	}
	c.logger.Debug("app launched", logging.String("app", app.DisplayName), logging.String("command", argv[0]))
	return nil
}

// IsRunning probes for processes matching the app's image name.
func (c *CommandController) IsRunning(ctx context.Context, app App) (bool, error) {
	name := strings.TrimSpace(app.ProcessName)
	if name == "" {
		return false, services.Wrap(services.ErrProcessControl, "procctl", "probe "+app.DisplayName, "process name not configured", nil)
	}

	if runtime.GOOS == "windows" {
		out, err := c.run(ctx, []string{"tasklist", "/fi", fmt.Sprintf("imagename eq %s", name), "/fo", "csv", "/nh"})
		if err != nil {
			return false, services.Wrap(services.ErrProcessControl, "procctl", "probe "+app.DisplayName, "tasklist failed", err)
		}
		return strings.Contains(strings.ToLower(out), strings.ToLower(name)), nil
	}

	out, err := c.run(ctx, []string{"pgrep", "-x", imageBase(name)})
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return false, nil
		}
		return false, services.Wrap(services.ErrProcessControl, "procctl", "probe "+app.DisplayName, "pgrep failed", err)
	}
	return strings.TrimSpace(out) != "", nil
}

// WaitForCondition polls until the condition is satisfied or the timeout
// elapses. The sync-complete condition uses the app's sync-check command when
// configured and a fixed settle wait otherwise.
func (c *CommandController) WaitForCondition(ctx context.Context, app App, cond Condition, timeout time.Duration) error {
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if cond == ConditionSyncComplete && len(app.SyncCheckCommand) == 0 {
		return c.settle(waitCtx, app)
	}

	interval := defaultPollEvery
	if cond == ConditionSyncComplete && app.SyncCheckInterval > 0 {
		interval = app.SyncCheckInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		ok, err := c.checkCondition(waitCtx, app, cond)
		if err != nil && waitCtx.Err() == nil {
			c.logger.Debug("condition probe failed",
				logging.String("app", app.DisplayName),
				logging.String("condition", string(cond)),
				logging.Error(err))
		}
		if ok {
			return nil
		}
		select {
		case <-waitCtx.Done():
			return c.waitErr(waitCtx, ctx, app, cond)
		case <-ticker.C:
		}
	}
}

func (c *CommandController) checkCondition(ctx context.Context, app App, cond Condition) (bool, error) {
	switch cond {
	case ConditionStopped:
		running, err := c.IsRunning(ctx, app)
		return err == nil && !running, err
	case ConditionRunning:
		running, err := c.IsRunning(ctx, app)
		return err == nil && running, err
	case ConditionSyncComplete:
		_, err := c.run(ctx, app.SyncCheckCommand)
		return err == nil, err
	default:
		return false, services.Wrap(services.ErrProcessControl, "procctl", "wait", fmt.Sprintf("unknown condition %q", cond), nil)
	}
}

// settle waits the fixed settle duration used when sync completion cannot be
// probed directly.
func (c *CommandController) settle(ctx context.Context, app App) error {
	wait := app.SettleWait
	if wait <= 0 {
		return nil
	}
	c.logger.Debug("no sync check configured, using settle wait",
		logging.String("app", app.DisplayName),
		logging.Duration("settle", wait))
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return services.Wrap(services.ErrTimeout, "procctl", "wait for "+app.DisplayName, "settle wait interrupted", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (c *CommandController) waitErr(waitCtx, parent context.Context, app App, cond Condition) error {
	if parent.Err() != nil {
		return services.Wrap(services.ErrTimeout, "procctl", "wait for "+app.DisplayName, "canceled", parent.Err())
	}
	return services.Wrap(services.ErrTimeout, "procctl", "wait for "+app.DisplayName,
		fmt.Sprintf("condition %q not reached", cond), waitCtx.Err())
}

func (c *CommandController) run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", errors.New("empty command")
	}
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	cmd := exec.CommandContext(callCtx, argv[0], argv[1:]...) //nolint:gosec
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func defaultStopCommand(processName string) []string {
	if runtime.GOOS == "windows" {
		return []string{"taskkill", "/f", "/im", processName}
	}
	return []string{"pkill", "-x", imageBase(processName)}
}

// imageBase strips a trailing .exe so Windows-style image names work with
// pgrep/pkill on other platforms.
func imageBase(name string) string {
	return strings.TrimSuffix(strings.TrimSuffix(name, ".exe"), ".EXE")
}
