package procctl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"unjam/internal/services"
)

// Call records one operation observed by the Simulator.
type Call struct {
	Op  string
	App string
}

// Simulator implements Controller entirely in memory. It backs the
// `test-sync` dry run and the workflow tests: per-operation failures can be
// scheduled and every call is recorded.
type Simulator struct {
	mu        sync.Mutex
	stepDelay time.Duration
	running   map[string]bool
	failures  map[string]int
	calls     []Call
}

// NewSimulator constructs a simulator whose operations take stepDelay each.
func NewSimulator(stepDelay time.Duration) *Simulator {
	return &Simulator{
		stepDelay: stepDelay,
		running:   make(map[string]bool),
		failures:  make(map[string]int),
	}
}

// SetRunning seeds the simulated process table.
func (s *Simulator) SetRunning(processName string, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[processName] = running
}

// FailNext schedules the next n calls of op ("stop", "start", "wait") against
// the given process to fail with a process-control error.
func (s *Simulator) FailNext(op, processName string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op+":"+processName] = n
}

// Calls returns the operations observed so far.
func (s *Simulator) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Simulator) Stop(ctx context.Context, app App) error {
	if err := s.begin(ctx, "stop", app); err != nil {
		return err
	}
	s.mu.Lock()
	s.running[app.ProcessName] = false
	s.mu.Unlock()
	return nil
}

func (s *Simulator) Start(ctx context.Context, app App) error {
	if err := s.begin(ctx, "start", app); err != nil {
		return err
	}
	s.mu.Lock()
	s.running[app.ProcessName] = true
	s.mu.Unlock()
	return nil
}

func (s *Simulator) IsRunning(ctx context.Context, app App) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "probe", App: app.ProcessName})
	return s.running[app.ProcessName], nil
}

func (s *Simulator) WaitForCondition(ctx context.Context, app App, cond Condition, timeout time.Duration) error {
	if err := s.begin(ctx, "wait", app); err != nil {
		return err
	}
	s.mu.Lock()
	running := s.running[app.ProcessName]
	s.mu.Unlock()
	switch cond {
	case ConditionStopped:
		if running {
			return services.Wrap(services.ErrTimeout, "procctl", "wait for "+app.DisplayName, "still running", nil)
		}
	case ConditionRunning:
		if !running {
			return services.Wrap(services.ErrTimeout, "procctl", "wait for "+app.DisplayName, "not running", nil)
		}
	case ConditionSyncComplete:
		// Sync completes after the simulated delay consumed by begin.
	}
	return nil
}

func (s *Simulator) begin(ctx context.Context, op string, app App) error {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Op: op, App: app.ProcessName})
	key := op + ":" + app.ProcessName
	failing := s.failures[key] > 0
	if failing {
		s.failures[key]--
	}
	delay := s.stepDelay
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return services.Wrap(services.ErrTimeout, "procctl", op+" "+app.DisplayName, "canceled", ctx.Err())
		case <-timer.C:
		}
	}
	if failing {
		return services.Wrap(services.ErrProcessControl, "procctl", op+" "+app.DisplayName, fmt.Sprintf("simulated %s failure", op), nil)
	}
	return nil
}
