package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"unjam/internal/cooldown"
	"unjam/internal/history"
	"unjam/internal/logging"
	"unjam/internal/services"
	"unjam/internal/workflow"
)

// Source names where a trigger came from.
const (
	SourceIdle     = "idle"
	SourceSchedule = "schedule"
	SourceManual   = "manual"
)

// Runner executes one recovery run and reports state transitions through the
// callback. Satisfied by workflow.Executor.
type Runner interface {
	ExecuteObserved(ctx context.Context, triggerSource string, onUpdate func(*workflow.Run)) *workflow.Run
}

// ActiveRun describes the run in flight, if any.
type ActiveRun struct {
	RunID         string
	TriggerSource string
	State         workflow.State
	StartedAt     time.Time
}

// Coordinator serializes trigger requests. A request is accepted only when no
// run is active and the cooldown gate opens; the cooldown starts the moment a
// run is accepted, not when it finishes.
type Coordinator struct {
	runner Runner
	gate   *cooldown.Gate
	store  *history.Store
	logger *slog.Logger

	mu      sync.Mutex
	active  *ActiveRun
	wg      sync.WaitGroup
	lastRun *workflow.Run
}

// NewCoordinator wires the runner, gate, and optional history store. A nil
// store skips run recording.
func NewCoordinator(runner Runner, gate *cooldown.Gate, store *history.Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Coordinator{
		runner: runner,
		gate:   gate,
		store:  store,
		logger: logging.NewComponentLogger(logger, "trigger"),
	}
}

// Trigger requests a run from the given source. On acceptance it returns a
// channel that yields the finished run; on rejection the error wraps either
// ErrAlreadyRunning or ErrCooldownActive.
func (c *Coordinator) Trigger(ctx context.Context, source string) (<-chan *workflow.Run, error) {
	now := time.Now()

	c.mu.Lock()
	if c.active != nil {
		active := *c.active
		c.mu.Unlock()
		return nil, services.Wrap(services.ErrAlreadyRunning, "trigger", source,
			fmt.Sprintf("run %s from %s in progress", active.RunID, active.TriggerSource), nil)
	}
	if ok, remaining := c.gate.TryAcquire(now); !ok {
		c.mu.Unlock()
		c.logger.Info("trigger rejected by cooldown",
			logging.String(logging.FieldTriggerSource, source),
			logging.Duration("remaining", remaining))
		return nil, services.Wrap(services.ErrCooldownActive, "trigger", source,
			fmt.Sprintf("%s remaining", remaining.Round(time.Second)), nil)
	}
	if err := c.gate.Acquire(now); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.active = &ActiveRun{TriggerSource: source, State: workflow.StateIdle, StartedAt: now}
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Info("trigger accepted",
		logging.String(logging.FieldEventType, "trigger_accepted"),
		logging.String(logging.FieldTriggerSource, source))

	done := make(chan *workflow.Run, 1)
	go c.execute(ctx, source, done)
	return done, nil
}

// TriggerAndWait requests a run and blocks until it finishes or ctx expires.
// The run keeps going in the background if ctx expires first.
func (c *Coordinator) TriggerAndWait(ctx context.Context, source string) (*workflow.Run, error) {
	done, err := c.Trigger(ctx, source)
	if err != nil {
		return nil, err
	}
	select {
	case run := <-done:
		return run, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Active returns a copy of the in-flight run descriptor, if any.
func (c *Coordinator) Active() (ActiveRun, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return ActiveRun{}, false
	}
	return *c.active, true
}

// LastRun returns the most recent finished run in this process, if any.
func (c *Coordinator) LastRun() *workflow.Run {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRun
}

// Wait blocks until any in-flight run has finished. Used during shutdown.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) execute(ctx context.Context, source string, done chan<- *workflow.Run) {
	defer c.wg.Done()

	run := c.runner.ExecuteObserved(ctx, source, func(r *workflow.Run) {
		c.mu.Lock()
		if c.active != nil {
			c.active.RunID = r.ID
			c.active.State = r.State
		}
		c.mu.Unlock()
	})

	c.mu.Lock()
	c.active = nil
	c.lastRun = run
	c.mu.Unlock()

	if c.store != nil {
		// Recording must survive daemon shutdown, so it gets its own context.
		recordCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := c.store.Record(recordCtx, run); err != nil {
			c.logger.Error("failed to record run history",
				logging.String(logging.FieldRunID, run.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check history database access"))
		}
		cancel()
	}

	done <- run
}
