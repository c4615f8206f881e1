package cooldown

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"unjam/internal/logging"
	"unjam/internal/services"
)

type state struct {
	LastTriggerUnixTime int64   `json:"last_trigger_unix_time"`
	CooldownSeconds     float64 `json:"cooldown_seconds"`
}

// Gate enforces a minimum interval between accepted triggers. The last
// accepted trigger time is persisted atomically so restarts cannot shorten an
// active cooldown. If path is empty the gate is memory-only.
type Gate struct {
	path     string
	duration time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	lastTrigger time.Time
}

func NewGate(path string, duration time.Duration, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "cooldown")

	g := &Gate{path: path, duration: duration, logger: logger}
	if path == "" {
		return g
	}
	if err := g.load(); err != nil {
		logger.Warn("failed to load cooldown state",
			logging.String(logging.FieldEventType, "cooldown_load_failed"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "gate starts open; the next run re-creates the state file"))
	}
	return g
}

// Duration returns the configured cooldown interval.
func (g *Gate) Duration() time.Duration {
	return g.duration
}

// TryAcquire reports whether a trigger would be accepted at now. It does not
// change state; callers that go on to start a run must call Acquire.
func (g *Gate) TryAcquire(now time.Time) (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.check(now)
}

// Acquire records an accepted trigger at now and persists it,
// unconditionally. Admission control lives in TryAcquire; callers check it
// under their own coordination lock and then commit here.
func (g *Gate) Acquire(now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.record(now)
}

// ApplyNow starts a fresh cooldown at now regardless of the current state.
func (g *Gate) ApplyNow(now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.record(now)
}

// Reset clears the cooldown so the next trigger is accepted immediately.
func (g *Gate) Reset() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastTrigger = time.Time{}
	if g.path == "" {
		return nil
	}
	if err := os.Remove(g.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrPersistence, "cooldown", "reset", "remove state file", err)
	}
	g.logger.Info("cooldown reset",
		logging.String(logging.FieldEventType, "cooldown_reset"))
	return nil
}

// Status returns whether the cooldown is active at now, the remaining wait,
// and the last accepted trigger time (zero when none recorded).
func (g *Gate) Status(now time.Time) (active bool, remaining time.Duration, last time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ok, rem := g.check(now)
	return !ok, rem, g.lastTrigger
}

func (g *Gate) check(now time.Time) (bool, time.Duration) {
	if g.lastTrigger.IsZero() || g.duration <= 0 {
		return true, 0
	}
	elapsed := now.Sub(g.lastTrigger)
	if elapsed >= g.duration {
		return true, 0
	}
	return false, g.duration - elapsed
}

func (g *Gate) record(now time.Time) error {
	g.lastTrigger = now
	if g.path == "" {
		return nil
	}
	if err := g.save(); err != nil {
		return services.Wrap(services.ErrPersistence, "cooldown", "record trigger", "", err)
	}
	g.logger.Debug("cooldown started",
		logging.Time("last_trigger", now),
		logging.Duration("duration", g.duration))
	return nil
}

func (g *Gate) load() error {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read state file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parse state file: %w", err)
	}
	if s.LastTriggerUnixTime > 0 {
		g.lastTrigger = time.Unix(s.LastTriggerUnixTime, 0)
	}
	return nil
}

// save writes the state to disk atomically via temp file plus rename.
func (g *Gate) save() error {
	s := state{
		LastTriggerUnixTime: g.lastTrigger.Unix(),
		CooldownSeconds:     g.duration.Seconds(),
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmpPath := g.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, g.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
