package idle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"unjam/internal/logging"
)

// Watcher polls a Provider and invokes notify once each time the idle
// duration crosses the threshold. After firing it stays quiet until the user
// becomes active again, which rearms the watcher.
type Watcher struct {
	provider  Provider
	threshold time.Duration
	interval  time.Duration
	notify    func(idleFor time.Duration)
	logger    *slog.Logger

	mu         sync.Mutex
	armed      bool
	lastSample time.Duration
	lastErr    error
	errLogged  bool
}

func NewWatcher(provider Provider, threshold, interval time.Duration, notify func(time.Duration), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		provider:  provider,
		threshold: threshold,
		interval:  interval,
		notify:    notify,
		logger:    logger,
		armed:     true,
	}
}

// Run polls until ctx is canceled. Provider read failures are logged once and
// polling continues; a later successful read clears the fault.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.tick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick()
		}
	}
}

// Sample returns the most recent idle reading and any read fault in effect.
func (w *Watcher) Sample() (time.Duration, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSample, w.lastErr
}

func (w *Watcher) tick() {
	idleFor, err := w.provider.IdleDuration()

	w.mu.Lock()
	if err != nil {
		w.lastErr = err
		logIt := !w.errLogged
		w.errLogged = true
		w.mu.Unlock()
		if logIt {
			w.logger.Warn("idle probe failed, idle trigger degraded",
				logging.String(logging.FieldComponent, "idle"),
				logging.Error(err))
		}
		return
	}
	if w.errLogged {
		w.logger.Info("idle probe recovered",
			logging.String(logging.FieldComponent, "idle"))
	}
	w.lastErr = nil
	w.errLogged = false
	w.lastSample = idleFor

	fire := false
	if idleFor >= w.threshold {
		if w.armed {
			w.armed = false
			fire = true
		}
	} else {
		w.armed = true
	}
	w.mu.Unlock()

	if fire && w.notify != nil {
		w.notify(idleFor)
	}
}
