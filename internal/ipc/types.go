package ipc

import (
	"time"

	"unjam/internal/trigger"
	"unjam/internal/workflow"
)

// Rejection reasons reported in RunResponse.
const (
	RejectAlreadyRunning = "already_running"
	RejectCooldown       = "cooldown"
)

// StepSummary mirrors one workflow step for transport.
type StepSummary struct {
	State           string  `json:"state"`
	Attempts        int     `json:"attempts"`
	Error           string  `json:"error,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// RunSummary mirrors a workflow run for transport.
type RunSummary struct {
	ID            string        `json:"id"`
	TriggerSource string        `json:"trigger_source"`
	State         string        `json:"state"`
	FailureKind   string        `json:"failure_kind,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	Steps         []StepSummary `json:"steps,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
}

// FromRun converts a workflow run into its transport form.
func FromRun(run *workflow.Run) *RunSummary {
	if run == nil {
		return nil
	}
	summary := &RunSummary{
		ID:            run.ID,
		TriggerSource: run.TriggerSource,
		State:         string(run.State),
		FailureKind:   string(run.FailureKind),
		ErrorMessage:  run.ErrorMessage,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
	}
	for _, step := range run.Steps {
		summary.Steps = append(summary.Steps, StepSummary{
			State:           string(step.State),
			Attempts:        step.Attempts,
			Error:           step.Error,
			DurationSeconds: step.FinishedAt.Sub(step.StartedAt).Seconds(),
		})
	}
	return summary
}

// ActiveRunSummary mirrors the in-flight run descriptor.
type ActiveRunSummary struct {
	RunID         string    `json:"run_id"`
	TriggerSource string    `json:"trigger_source"`
	State         string    `json:"state"`
	StartedAt     time.Time `json:"started_at"`
}

func fromActive(active *trigger.ActiveRun) *ActiveRunSummary {
	if active == nil {
		return nil
	}
	return &ActiveRunSummary{
		RunID:         active.RunID,
		TriggerSource: active.TriggerSource,
		State:         string(active.State),
		StartedAt:     active.StartedAt,
	}
}

type StatusRequest struct{}

type StatusResponse struct {
	Running       bool      `json:"running"`
	PID           int       `json:"pid"`
	StartedAt     time.Time `json:"started_at"`
	LockPath      string    `json:"lock_path"`
	HistoryDBPath string    `json:"history_db_path"`
	LogFilePath   string    `json:"log_file_path"`

	CooldownActive           bool      `json:"cooldown_active"`
	CooldownRemainingSeconds float64   `json:"cooldown_remaining_seconds"`
	LastTrigger              time.Time `json:"last_trigger"`

	ActiveRun *ActiveRunSummary `json:"active_run,omitempty"`
	LastRun   *RunSummary       `json:"last_run,omitempty"`

	IdleEnabled    bool    `json:"idle_enabled"`
	IdleDisabled   string  `json:"idle_disabled,omitempty"`
	IdleForSeconds float64 `json:"idle_for_seconds"`

	ScheduleRules int       `json:"schedule_rules"`
	NextScheduled time.Time `json:"next_scheduled"`
	RunsCompleted int       `json:"runs_completed"`
	RunsFailed    int       `json:"runs_failed"`
}

type RunRequest struct {
	Source string `json:"source"`
}

type RunResponse struct {
	Accepted                 bool        `json:"accepted"`
	RejectReason             string      `json:"reject_reason,omitempty"`
	CooldownRemainingSeconds float64     `json:"cooldown_remaining_seconds,omitempty"`
	Run                      *RunSummary `json:"run,omitempty"`
}

type CooldownResetRequest struct{}

type CooldownResetResponse struct {
	Reset bool `json:"reset"`
}

type CooldownApplyRequest struct{}

type CooldownApplyResponse struct {
	Applied bool `json:"applied"`
}

type HistoryRequest struct {
	Limit int `json:"limit"`
}

type HistoryResponse struct {
	Runs []RunSummary `json:"runs"`
}
