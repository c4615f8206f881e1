package workflow

import (
	"time"

	"github.com/google/uuid"
)

// State names the phase a run is in. A run walks the states in order and
// lands on Completed or Failed.
type State string

const (
	StateIdle                   State = "idle"
	StateStoppingMessagingApp   State = "stopping_messaging_app"
	StateStoppingSyncClient     State = "stopping_sync_client"
	StateRestartingSyncClient   State = "restarting_sync_client"
	StateWaitingForSync         State = "waiting_for_sync"
	StateRestartingMessagingApp State = "restarting_messaging_app"
	StateCompleted              State = "completed"
	StateFailed                 State = "failed"
)

// FailureKind classifies why a run failed.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureStepFailed FailureKind = "step_failed"
	FailureTimedOut   FailureKind = "timed_out"
	FailureCanceled   FailureKind = "canceled"
)

// StepResult records one executed step, including how many attempts it took.
type StepResult struct {
	State      State     `json:"state"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Run is the record of one recovery attempt.
type Run struct {
	ID            string       `json:"id"`
	TriggerSource string       `json:"trigger_source"`
	State         State        `json:"state"`
	FailureKind   FailureKind  `json:"failure_kind,omitempty"`
	ErrorMessage  string       `json:"error_message,omitempty"`
	Steps         []StepResult `json:"steps"`
	StartedAt     time.Time    `json:"started_at"`
	FinishedAt    time.Time    `json:"finished_at"`
}

// NewRun allocates a run record in the initial state.
func NewRun(triggerSource string) *Run {
	return &Run{
		ID:            uuid.NewString(),
		TriggerSource: triggerSource,
		State:         StateIdle,
		StartedAt:     time.Now().UTC(),
	}
}

// Succeeded reports whether the run completed every mandatory step.
func (r *Run) Succeeded() bool {
	return r.State == StateCompleted
}

// Duration returns how long the run took, or time since start while running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StepFor returns the recorded result for a state, if the run reached it.
func (r *Run) StepFor(state State) (StepResult, bool) {
	for _, step := range r.Steps {
		if step.State == state {
			return step, true
		}
	}
	return StepResult{}, false
}
