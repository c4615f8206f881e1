package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"unjam/internal/config"
	"unjam/internal/cooldown"
	"unjam/internal/history"
	"unjam/internal/idle"
	"unjam/internal/logging"
	"unjam/internal/schedule"
	"unjam/internal/services"
	"unjam/internal/trigger"
	"unjam/internal/workflow"
)

// Daemon runs the trigger loops and serializes recovery runs through the
// coordinator.
type Daemon struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       *history.Store
	coordinator *trigger.Coordinator
	gate        *cooldown.Gate
	schedules   *schedule.Engine
	logPath     string

	lockPath string
	lock     *flock.Flock

	idleProvider idle.Provider
	idleWatcher  *idle.Watcher
	idleDisabled string // reason, empty while the idle trigger works

	running   atomic.Bool
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	StartedAt     time.Time
	LockFilePath  string
	HistoryDBPath string

	CooldownActive    bool
	CooldownRemaining time.Duration
	LastTrigger       time.Time

	ActiveRun *trigger.ActiveRun
	LastRun   *workflow.Run

	IdleEnabled  bool
	IdleDisabled string
	IdleFor      time.Duration

	ScheduleRules int
	NextScheduled time.Time
	RunsCompleted int
	RunsFailed    int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *history.Store, coordinator *trigger.Coordinator, gate *cooldown.Gate, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || coordinator == nil || gate == nil {
		return nil, errors.New("daemon requires config, coordinator, and cooldown gate")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	engine, err := schedule.NewEngine(cfg.Triggers.Schedules, scheduleTolerance(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("build schedule engine: %w", err)
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "daemon"),
		store:       store,
		coordinator: coordinator,
		gate:        gate,
		schedules:   engine,
		logPath:     cfg.LogFilePath(),
		lockPath:    lockPath,
		lock:        flock.New(lockPath),
	}, nil
}

// SetIdleProvider overrides the platform idle source. Must be called before
// Start; tests use it to feed synthetic idle readings.
func (d *Daemon) SetIdleProvider(provider idle.Provider) {
	d.idleProvider = provider
}

// Start acquires the instance lock and launches the trigger loops.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return services.Wrap(services.ErrAlreadyRunning, "daemon", "start",
			"another instance holds "+d.lockPath, nil)
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.startedAt = time.Now()

	d.startIdleWatcher()
	d.startScheduleLoop()

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.Int("schedule_rules", d.schedules.RuleCount()),
		logging.Bool("idle_trigger", d.cfg.Triggers.IdleEnabled && d.idleDisabled == ""))
	return nil
}

// Stop halts the trigger loops, waits for any in-flight run, and releases
// the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.coordinator.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// TriggerRun requests a run on behalf of a client and waits for the result.
func (d *Daemon) TriggerRun(ctx context.Context, source string) (*workflow.Run, error) {
	return d.coordinator.TriggerAndWait(ctx, source)
}

// CooldownReset clears the cooldown gate.
func (d *Daemon) CooldownReset() error {
	return d.gate.Reset()
}

// CooldownApply starts a fresh cooldown immediately.
func (d *Daemon) CooldownApply() error {
	return d.gate.ApplyNow(time.Now())
}

// History returns recent finished runs, newest first.
func (d *Daemon) History(ctx context.Context, limit int) ([]*workflow.Run, error) {
	if d.store == nil {
		return nil, errors.New("history store unavailable")
	}
	return d.store.Recent(ctx, limit)
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	now := time.Now()
	active, remaining, last := d.gate.Status(now)
	status := Status{
		Running:           d.running.Load(),
		PID:               os.Getpid(),
		StartedAt:         d.startedAt,
		LockFilePath:      d.lockPath,
		HistoryDBPath:     d.cfg.HistoryDBPath(),
		CooldownActive:    active,
		CooldownRemaining: remaining,
		LastTrigger:       last,
		IdleEnabled:       d.cfg.Triggers.IdleEnabled,
		IdleDisabled:      d.idleDisabled,
		ScheduleRules:     d.schedules.RuleCount(),
		LastRun:           d.coordinator.LastRun(),
	}
	if run, ok := d.coordinator.Active(); ok {
		status.ActiveRun = &run
	}
	if d.idleWatcher != nil {
		if sample, err := d.idleWatcher.Sample(); err == nil {
			status.IdleFor = sample
		}
	}
	if next, ok := d.schedules.NextFire(now); ok {
		status.NextScheduled = next
	}
	if d.store != nil {
		if completed, failed, err := d.store.Counts(ctx); err == nil {
			status.RunsCompleted = completed
			status.RunsFailed = failed
		}
	}
	return status
}

func (d *Daemon) startIdleWatcher() {
	if !d.cfg.Triggers.IdleEnabled {
		return
	}
	provider := d.idleProvider
	if provider == nil {
		var err error
		provider, err = idle.SystemProvider()
		if err != nil {
			d.idleDisabled = err.Error()
			d.logger.Warn("idle trigger disabled",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "schedule and manual triggers keep working"))
			return
		}
	}

	threshold := time.Duration(d.cfg.Triggers.IdleThresholdMinutes * float64(time.Minute))
	interval := time.Duration(d.cfg.Triggers.IdlePollSeconds) * time.Second
	d.idleWatcher = idle.NewWatcher(provider, threshold, interval, func(idleFor time.Duration) {
		d.fire(trigger.SourceIdle, logging.Duration("idle_for", idleFor))
	}, d.logger)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.idleWatcher.Run(d.ctx)
	}()
}

func (d *Daemon) startScheduleLoop() {
	if d.schedules.RuleCount() == 0 {
		return
	}
	interval := time.Duration(d.cfg.Triggers.SchedulePollSeconds) * time.Second

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-d.ctx.Done():
				return
			case <-ticker.C:
				for _, fired := range d.schedules.Tick(time.Now()) {
					d.fire(trigger.SourceSchedule, logging.String("rule_time", fired.Rule.Time))
				}
			}
		}
	}()
}

// fire requests a run and downgrades expected rejections to info logs.
func (d *Daemon) fire(source string, attrs ...slog.Attr) {
	_, err := d.coordinator.Trigger(d.ctx, source)
	if err == nil {
		return
	}
	args := logging.Args(append([]slog.Attr{
		logging.String(logging.FieldTriggerSource, source),
	}, attrs...)...)
	if services.Rejected(err) {
		d.logger.Info("trigger not accepted", append(args, logging.Error(err))...)
		return
	}
	d.logger.Error("trigger failed", append(args, logging.Error(err))...)
}

// scheduleTolerance is the poll interval plus one second of ticker slack; a
// rule whose window the daemon slept through waits for the next day.
func scheduleTolerance(cfg *config.Config) time.Duration {
	poll := time.Duration(cfg.Triggers.SchedulePollSeconds) * time.Second
	return poll + time.Second
}
