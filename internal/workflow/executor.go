package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"unjam/internal/config"
	"unjam/internal/logging"
	"unjam/internal/procctl"
	"unjam/internal/services"
)

// Executor runs the recovery workflow against a process controller.
type Executor struct {
	controller procctl.Controller
	messaging  procctl.App
	sync       procctl.App
	logger     *slog.Logger

	maxAttempts     int
	retryDelay      time.Duration
	stopSettle      time.Duration
	syncWaitTimeout time.Duration
	runTimeout      time.Duration
}

func NewExecutor(controller procctl.Controller, cfg *config.Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		controller:      controller,
		messaging:       procctl.FromConfigApp(cfg.MessagingApp),
		sync:            procctl.FromSyncClient(cfg.SyncClient),
		logger:          logging.NewComponentLogger(logger, "workflow"),
		maxAttempts:     cfg.Workflow.MaxRetryAttempts,
		retryDelay:      time.Duration(cfg.Workflow.RetryDelaySeconds) * time.Second,
		stopSettle:      time.Duration(cfg.Workflow.StopSettleSeconds) * time.Second,
		syncWaitTimeout: time.Duration(cfg.Workflow.SyncWaitTimeoutSeconds) * time.Second,
		runTimeout:      time.Duration(cfg.Workflow.RunTimeoutSeconds) * time.Second,
	}
}

// Execute performs one full recovery run. It always returns a finished run
// record; the run's State and FailureKind describe the outcome.
func (e *Executor) Execute(ctx context.Context, triggerSource string) *Run {
	return e.ExecuteObserved(ctx, triggerSource, nil)
}

// ExecuteObserved is Execute with a transition callback. onUpdate is invoked
// with the run record right after creation and after every state change, from
// the run's own goroutine.
func (e *Executor) ExecuteObserved(ctx context.Context, triggerSource string, onUpdate func(*Run)) *Run {
	run := NewRun(triggerSource)
	notify := func() {
		if onUpdate != nil {
			onUpdate(run)
		}
	}
	notify()
	runCtx := services.WithRunID(ctx, run.ID)
	runCtx = services.WithTriggerSource(runCtx, triggerSource)
	if e.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, e.runTimeout)
		defer cancel()
	}
	logger := logging.WithContext(runCtx, e.logger)

	logger.Info("recovery run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("messaging_app", e.messaging.DisplayName),
		logging.String("sync_client", e.sync.DisplayName))

	var runErr error

	// The messaging app must be out of the way before the sync client is
	// touched; its lock on the synced files is the whole problem.
	if err := e.step(runCtx, run, notify, StateStoppingMessagingApp, e.maxAttempts, e.stopMessaging); err != nil {
		runErr = err
	}

	if runErr == nil {
		// A sync client that is not running is fine here; only the restart
		// below is mandatory.
		if err := e.step(runCtx, run, notify, StateStoppingSyncClient, e.maxAttempts, e.stopSync); err != nil {
			logger.Warn("sync client stop failed, continuing with restart",
				logging.String(logging.FieldStep, string(StateStoppingSyncClient)),
				logging.Error(err))
		}

		if err := e.step(runCtx, run, notify, StateRestartingSyncClient, e.maxAttempts, e.startSync); err != nil {
			runErr = err
		}
	}

	if runErr == nil {
		if err := e.step(runCtx, run, notify, StateWaitingForSync, 1, e.waitForSync); err != nil {
			runErr = err
		}
	}

	// Best effort: the user gets their messaging app back even when the run
	// already failed or ran out its deadline.
	restartCtx := runCtx
	if runCtx.Err() != nil {
		var cancel context.CancelFunc
		restartCtx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		restartCtx = services.WithRunID(restartCtx, run.ID)
	}
	if err := e.step(restartCtx, run, notify, StateRestartingMessagingApp, e.maxAttempts, e.startMessaging); err != nil {
		if runErr == nil {
			runErr = err
		}
	}

	run.FinishedAt = time.Now().UTC()
	if runErr != nil {
		run.State = StateFailed
		run.FailureKind = classifyFailure(runErr)
		run.ErrorMessage = runErr.Error()
		notify()
		logger.Error("recovery run failed",
			logging.String(logging.FieldEventType, "run_failed"),
			logging.String("failure_kind", string(run.FailureKind)),
			logging.Duration("run_duration", run.Duration()),
			logging.Error(runErr))
		return run
	}
	run.State = StateCompleted
	notify()
	logger.Info("recovery run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Duration("run_duration", run.Duration()))
	return run
}

func (e *Executor) step(ctx context.Context, run *Run, notify func(), state State, attempts int, fn func(context.Context) error) error {
	run.State = state
	notify()
	result := StepResult{State: state, StartedAt: time.Now().UTC()}
	stepCtx := services.WithStep(ctx, string(state))
	logger := logging.WithContext(stepCtx, e.logger)
	logger.Info("step started", logging.String(logging.FieldEventType, "step_start"))

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		result.Attempts = attempt
		err = fn(stepCtx)
		if err == nil {
			break
		}
		logger.Warn("step attempt failed",
			logging.Int(logging.FieldAttempt, attempt),
			logging.Error(err))
		if attempt == attempts || ctx.Err() != nil {
			break
		}
		if e.retryDelay > 0 {
			timer := time.NewTimer(e.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	}
	if err != nil && ctx.Err() != nil && !errors.Is(err, services.ErrTimeout) {
		if errors.Is(ctx.Err(), context.Canceled) {
			err = services.Wrap(services.ErrTimeout, "workflow", string(state), "run canceled", context.Canceled)
		} else {
			err = services.Wrap(services.ErrTimeout, "workflow", string(state), "run deadline exceeded", ctx.Err())
		}
	}

	result.FinishedAt = time.Now().UTC()
	if err != nil {
		result.Error = err.Error()
	}
	run.Steps = append(run.Steps, result)
	if err == nil {
		logger.Info("step completed",
			logging.String(logging.FieldEventType, "step_complete"),
			logging.Int(logging.FieldAttempt, result.Attempts),
			logging.Duration("step_duration", result.FinishedAt.Sub(result.StartedAt)))
	}
	return err
}

func (e *Executor) stopMessaging(ctx context.Context) error {
	if err := e.controller.Stop(ctx, e.messaging); err != nil {
		return err
	}
	return e.controller.WaitForCondition(ctx, e.messaging, procctl.ConditionStopped, e.stopSettle)
}

func (e *Executor) stopSync(ctx context.Context) error {
	if err := e.controller.Stop(ctx, e.sync); err != nil {
		return err
	}
	return e.controller.WaitForCondition(ctx, e.sync, procctl.ConditionStopped, e.stopSettle)
}

func (e *Executor) startSync(ctx context.Context) error {
	if err := e.controller.Start(ctx, e.sync); err != nil {
		return err
	}
	return e.controller.WaitForCondition(ctx, e.sync, procctl.ConditionRunning, e.stopSettle)
}

func (e *Executor) waitForSync(ctx context.Context) error {
	return e.controller.WaitForCondition(ctx, e.sync, procctl.ConditionSyncComplete, e.syncWaitTimeout)
}

func (e *Executor) startMessaging(ctx context.Context) error {
	return e.controller.Start(ctx, e.messaging)
}

func classifyFailure(err error) FailureKind {
	switch {
	case errors.Is(err, context.Canceled):
		return FailureCanceled
	case errors.Is(err, services.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return FailureTimedOut
	default:
		return FailureStepFailed
	}
}
