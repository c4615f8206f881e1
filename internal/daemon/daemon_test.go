package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"unjam/internal/cooldown"
	"unjam/internal/procctl"
	"unjam/internal/testsupport"
	"unjam/internal/trigger"
	"unjam/internal/workflow"
)

type staticIdle struct {
	mu   sync.Mutex
	idle time.Duration
}

func (s *staticIdle) set(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idle = d
}

func (s *staticIdle) IdleDuration() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle, nil
}

func newTestDaemon(t *testing.T) (*Daemon, *staticIdle, *procctl.Simulator) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithIdleTrigger(1))
	cfg.Triggers.IdlePollSeconds = 1
	cfg.Triggers.CooldownMinutes = 60

	store := testsupport.MustOpenStore(t, cfg)
	sim := procctl.NewSimulator(0)
	sim.SetRunning(cfg.MessagingApp.ProcessName, true)
	sim.SetRunning(cfg.SyncClient.ProcessName, true)

	gate := cooldown.NewGate(cfg.CooldownStatePath(), time.Duration(cfg.Triggers.CooldownMinutes*float64(time.Minute)), nil)
	exec := workflow.NewExecutor(sim, cfg, nil)
	coord := trigger.NewCoordinator(exec, gate, store, nil)

	d, err := New(cfg, store, coord, gate, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	provider := &staticIdle{}
	d.SetIdleProvider(provider)
	return d, provider, sim
}

func TestDaemonSingleInstance(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("second Start on the same daemon must fail")
	}
}

func TestDaemonIdleTriggerRunsWorkflow(t *testing.T) {
	d, provider, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	provider.set(5 * time.Minute)

	deadline := time.After(10 * time.Second)
	for {
		status := d.Status(context.Background())
		if status.RunsCompleted == 1 {
			if status.LastRun == nil || !status.LastRun.Succeeded() {
				t.Fatalf("unexpected last run: %+v", status.LastRun)
			}
			if status.LastRun.TriggerSource != trigger.SourceIdle {
				t.Fatalf("trigger source = %q", status.LastRun.TriggerSource)
			}
			if !status.CooldownActive {
				t.Fatal("cooldown should be active after an accepted trigger")
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("idle trigger never produced a run")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestDaemonStatusWhileStopped(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	status := d.Status(context.Background())
	if status.Running {
		t.Fatal("daemon reports running before Start")
	}
	if status.PID == 0 {
		t.Fatal("status should carry the daemon pid")
	}
	if !status.IdleEnabled {
		t.Fatal("idle trigger should be enabled by the test config")
	}
}

func TestDaemonStopWaitsForRun(t *testing.T) {
	d, provider, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	provider.set(10 * time.Minute)

	deadline := time.After(10 * time.Second)
	for d.coordinator.LastRun() == nil {
		select {
		case <-deadline:
			t.Fatal("run never started")
		case <-time.After(50 * time.Millisecond):
		}
	}
	d.Stop()

	if _, ok := d.coordinator.Active(); ok {
		t.Fatal("Stop returned while a run was still active")
	}
}

func TestScheduleToleranceTracksPollInterval(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Triggers.SchedulePollSeconds = 10

	if got, want := scheduleTolerance(cfg), 11*time.Second; got != want {
		t.Fatalf("tolerance = %s, want %s", got, want)
	}

	// A wake-up later than one poll interval past the rule time must not
	// fire the rule.
	cfg.Triggers.SchedulePollSeconds = 30
	if got, want := scheduleTolerance(cfg), 31*time.Second; got != want {
		t.Fatalf("tolerance = %s, want %s", got, want)
	}
}
