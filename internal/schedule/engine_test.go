package schedule

import (
	"testing"
	"time"

	"unjam/internal/config"
)

func newEngine(t *testing.T, rules ...config.ScheduleRule) *Engine {
	t.Helper()
	e, err := NewEngine(rules, 0, nil)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func dailyRule(at string) config.ScheduleRule {
	return config.ScheduleRule{Enabled: true, Time: at, Days: []string{"daily"}}
}

func TestTickFiresExactlyOncePerDay(t *testing.T) {
	e := newEngine(t, dailyRule("05:00"))

	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local)
	before := day.Add(4*time.Hour + 59*time.Minute + 50*time.Second)
	if due := e.Tick(before); len(due) != 0 {
		t.Fatalf("fired before the scheduled time: %+v", due)
	}

	at := day.Add(5 * time.Hour)
	due := e.Tick(at)
	if len(due) != 1 {
		t.Fatalf("expected one firing at 05:00, got %d", len(due))
	}
	if !due[0].Scheduled.Equal(at) {
		t.Fatalf("unexpected scheduled time: %v", due[0].Scheduled)
	}

	shortly := day.Add(5*time.Hour + time.Minute)
	if due := e.Tick(shortly); len(due) != 0 {
		t.Fatalf("rule fired twice in one day: %+v", due)
	}

	nextDay := at.AddDate(0, 0, 1)
	if due := e.Tick(nextDay); len(due) != 1 {
		t.Fatalf("rule did not fire on the following day: %d", len(due))
	}
}

func TestTickSkipsMissedWindow(t *testing.T) {
	e := newEngine(t, dailyRule("05:00"))
	late := time.Date(2026, 3, 9, 5, 2, 0, 0, time.Local)
	if due := e.Tick(late); len(due) != 0 {
		t.Fatalf("fired outside tolerance window: %+v", due)
	}
}

func TestTickHonorsWeekdayFilter(t *testing.T) {
	rule := config.ScheduleRule{Enabled: true, Time: "12:00", Days: []string{"monday", "wednesday"}}
	e := newEngine(t, rule)

	monday := time.Date(2026, 3, 9, 12, 0, 10, 0, time.Local)
	if monday.Weekday() != time.Monday {
		t.Fatalf("test date is not a Monday: %v", monday.Weekday())
	}
	if due := e.Tick(monday); len(due) != 1 {
		t.Fatalf("expected firing on Monday, got %d", len(due))
	}
	tuesday := monday.AddDate(0, 0, 1)
	if due := e.Tick(tuesday); len(due) != 0 {
		t.Fatalf("fired on a filtered-out weekday: %+v", due)
	}
}

func TestDisabledRulesAreDropped(t *testing.T) {
	rule := config.ScheduleRule{Enabled: false, Time: "05:00", Days: []string{"daily"}}
	e := newEngine(t, rule)
	if e.RuleCount() != 0 {
		t.Fatalf("disabled rule kept: %d", e.RuleCount())
	}
}

func TestNextFire(t *testing.T) {
	e := newEngine(t, dailyRule("05:00"), dailyRule("22:30"))
	now := time.Date(2026, 3, 9, 6, 0, 0, 0, time.Local)
	next, ok := e.NextFire(now)
	if !ok {
		t.Fatal("expected an upcoming occurrence")
	}
	want := time.Date(2026, 3, 9, 22, 30, 0, 0, time.Local)
	if !next.Equal(want) {
		t.Fatalf("next fire = %v, want %v", next, want)
	}
}

func TestNewEngineRejectsBadTime(t *testing.T) {
	if _, err := NewEngine([]config.ScheduleRule{{Enabled: true, Time: "25:00", Days: []string{"daily"}}}, 0, nil); err == nil {
		t.Fatal("expected error for invalid clock time")
	}
}
