// Package daemonrun boots the daemon process: configuration, logging,
// persistence, the workflow stack, and the IPC server. Shared by unjamd and
// the CLI's foreground daemon command.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"unjam/internal/config"
	"unjam/internal/cooldown"
	"unjam/internal/daemon"
	"unjam/internal/history"
	"unjam/internal/ipc"
	"unjam/internal/logging"
	"unjam/internal/procctl"
	"unjam/internal/trigger"
	"unjam/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	ConfigPath string
	LogLevel   string
	Console    bool
}

// Run starts the daemon runtime loop and blocks until the context is
// canceled or a termination signal arrives.
func Run(cmdCtx context.Context, opts Options) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Optional .env in the working directory, for overrides like
	// UNJAM_CONFIG during development.
	_ = godotenv.Load()

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = os.Getenv("UNJAM_CONFIG")
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logOpts := logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		FilePath:   cfg.LogFilePath(),
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}
	if opts.LogLevel != "" {
		logOpts.Level = opts.LogLevel
	}
	if opts.Console {
		logOpts.Console = os.Stdout
	}
	logger, err := logging.New(logOpts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := history.Open(cfg)
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return err
	}
	defer store.Close()

	gate := cooldown.NewGate(cfg.CooldownStatePath(),
		time.Duration(cfg.Triggers.CooldownMinutes*float64(time.Minute)), logger)
	controller := procctl.NewCommandController(logger)
	executor := workflow.NewExecutor(controller, cfg, logger)
	coordinator := trigger.NewCoordinator(executor, gate, store, logger)

	d, err := daemon.New(cfg, store, coordinator, gate, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	// The instance lock must be held before the socket or pid file are
	// touched; a losing second start must not disturb the live daemon's
	// files on its way out.
	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	pidPath := cfg.LockPath() + ".pid"
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	<-signalCtx.Done()
	logger.Info("daemon shutting down",
		logging.String(logging.FieldEventType, "daemon_shutdown"))
	d.Stop()
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
