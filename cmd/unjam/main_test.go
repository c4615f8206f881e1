package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"unjam/internal/config"
	"unjam/internal/cooldown"
	"unjam/internal/daemon"
	"unjam/internal/history"
	"unjam/internal/ipc"
	"unjam/internal/logging"
	"unjam/internal/procctl"
	"unjam/internal/testsupport"
	"unjam/internal/trigger"
	"unjam/internal/workflow"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *history.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	sim        *procctl.Simulator
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	gate := cooldown.NewGate(cfg.CooldownStatePath(),
		time.Duration(cfg.Triggers.CooldownMinutes*float64(time.Minute)), logger)

	sim := procctl.NewSimulator(10 * time.Millisecond)
	sim.SetRunning(cfg.MessagingApp.ProcessName, true)
	sim.SetRunning(cfg.SyncClient.ProcessName, true)

	executor := workflow.NewExecutor(sim, cfg, logger)
	coordinator := trigger.NewCoordinator(executor, gate, store, logger)

	d, err := daemon.New(cfg, store, coordinator, gate, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(testsupport.BaseDir(cfg), "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	env := &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		server:     srv,
		sim:        sim,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Stop()
		d.Close()
	})

	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func TestCLIRunStatusAndHistory(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCooldownMinutes(60))

	out, _, err := runCLI(t, []string{"run"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "completed in")

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "running (pid")
	requireContains(t, out, "Completed runs")

	out, _, err = runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "manual")

	// The run above consumed the cooldown, so a second request is rejected.
	_, _, err = runCLI(t, []string{"run"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected second run to be rejected by the cooldown")
	}
	if got := exitCodeFor(err); got != exitRejected {
		t.Fatalf("expected exit code %d for cooldown rejection, got %d (%v)", exitRejected, got, err)
	}
}

func TestCLIRunWithoutDaemonFallsBackToDirect(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	absentSocket := filepath.Join(testsupport.BaseDir(cfg), "no-daemon.sock")

	// The configured commands point at executables that do not exist, so
	// the direct run fails, but only after the fallback path engaged.
	out, _, err := runCLI(t, []string{"run"}, absentSocket, configPath)
	if err == nil {
		t.Fatal("expected direct run against missing executables to fail")
	}
	requireContains(t, out, "No daemon running")
	if got := exitCodeFor(err); got != exitFailure {
		t.Fatalf("expected exit code %d, got %d (%v)", exitFailure, got, err)
	}
}
