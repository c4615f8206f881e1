package testsupport

import (
	"context"
	"testing"
	"time"

	"unjam/internal/config"
	"unjam/internal/history"
	"unjam/internal/workflow"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordRun stores a finished run for tests, failing fast on error.
func RecordRun(t testing.TB, store *history.Store, run *workflow.Run) {
	t.Helper()

	if err := store.Record(context.Background(), run); err != nil {
		t.Fatalf("store.Record: %v", err)
	}
}

// FinishedRun builds a completed or failed run record for seeding history.
func FinishedRun(triggerSource string, succeeded bool, startedAt time.Time) *workflow.Run {
	run := workflow.NewRun(triggerSource)
	run.StartedAt = startedAt.UTC()
	run.FinishedAt = run.StartedAt.Add(time.Minute)
	if succeeded {
		run.State = workflow.StateCompleted
	} else {
		run.State = workflow.StateFailed
		run.FailureKind = workflow.FailureStepFailed
		run.ErrorMessage = "step failed"
	}
	return run
}
