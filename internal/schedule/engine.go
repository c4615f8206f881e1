package schedule

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"unjam/internal/config"
	"unjam/internal/logging"
	"unjam/internal/services"
)

// DefaultTolerance bounds how far past the configured time a rule may still
// fire. A daemon that wakes up later than this skips the occurrence.
const DefaultTolerance = 90 * time.Second

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Fired describes one rule occurrence that just became due.
type Fired struct {
	Rule      config.ScheduleRule
	Scheduled time.Time
}

type rule struct {
	cfg       config.ScheduleRule
	hour      int
	minute    int
	days      map[time.Weekday]bool // nil means every day
	cronSched cron.Schedule
	lastFired string // local date of the last occurrence fired
}

// Engine holds the configured rules and tracks per-day firing state in
// memory. State resets on restart, which at worst re-fires a rule whose
// window is still open; the cooldown gate absorbs that.
type Engine struct {
	rules     []rule
	tolerance time.Duration
	logger    *slog.Logger
}

func NewEngine(rules []config.ScheduleRule, tolerance time.Duration, logger *slog.Logger) (*Engine, error) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Engine{tolerance: tolerance, logger: logger}
	for _, cfg := range rules {
		if !cfg.Enabled {
			continue
		}
		hour, minute, err := cfg.Clock()
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "schedule", "parse rule", cfg.Time, err)
		}
		r := rule{cfg: cfg, hour: hour, minute: minute}
		if !cfg.Daily() {
			r.days = make(map[time.Weekday]bool, len(cfg.Days))
			for _, day := range cfg.Days {
				wd, ok := weekdays[day]
				if !ok {
					return nil, services.Wrap(services.ErrConfiguration, "schedule", "parse rule", "unknown day "+day, nil)
				}
				r.days[wd] = true
			}
		}
		sched, err := cron.ParseStandard(cronSpec(hour, minute, cfg.Days, cfg.Daily()))
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "schedule", "parse rule", cfg.Time, err)
		}
		r.cronSched = sched
		e.rules = append(e.rules, r)
	}
	return e, nil
}

// RuleCount reports how many enabled rules the engine carries.
func (e *Engine) RuleCount() int {
	return len(e.rules)
}

// Tick evaluates every rule against now and returns the ones that just
// became due. A returned rule is marked fired for the day before Tick
// returns, so concurrent run rejection downstream cannot cause a replay.
func (e *Engine) Tick(now time.Time) []Fired {
	var due []Fired
	for i := range e.rules {
		r := &e.rules[i]
		if r.days != nil && !r.days[now.Weekday()] {
			continue
		}
		scheduled := time.Date(now.Year(), now.Month(), now.Day(), r.hour, r.minute, 0, 0, now.Location())
		if now.Before(scheduled) || now.Sub(scheduled) >= e.tolerance {
			continue
		}
		date := now.Format("2006-01-02")
		if r.lastFired == date {
			continue
		}
		r.lastFired = date
		due = append(due, Fired{Rule: r.cfg, Scheduled: scheduled})
		e.logger.Info("schedule rule due",
			logging.String(logging.FieldComponent, "schedule"),
			logging.String("rule_time", r.cfg.Time),
			logging.Time("scheduled", scheduled))
	}
	return due
}

// NextFire returns the earliest upcoming occurrence across all rules.
func (e *Engine) NextFire(now time.Time) (time.Time, bool) {
	var next time.Time
	for i := range e.rules {
		candidate := e.rules[i].cronSched.Next(now)
		if candidate.IsZero() {
			continue
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next, !next.IsZero()
}

func cronSpec(hour, minute int, days []string, daily bool) string {
	dow := "*"
	if !daily {
		abbrev := make([]string, 0, len(days))
		for _, day := range days {
			if len(day) >= 3 {
				abbrev = append(abbrev, day[:3])
			}
		}
		if len(abbrev) > 0 {
			dow = strings.Join(abbrev, ",")
		}
	}
	return fmt.Sprintf("%d %d * * %s", minute, hour, dow)
}
