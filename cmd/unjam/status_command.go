package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"unjam/internal/history"
	"unjam/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, cooldown, and trigger state",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			connected, err := ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				printDaemonStatus(stdout, status)
				return nil
			})
			if err != nil {
				return err
			}
			if connected {
				return nil
			}
			return printOfflineStatus(cmd.Context(), stdout, ctx)
		},
	}
}

func printDaemonStatus(w io.Writer, status *ipc.StatusResponse) {
	rows := [][]string{
		{"Daemon", fmt.Sprintf("running (pid %d)", status.PID)},
		{"Started", formatTime(status.StartedAt)},
		{"Completed runs", fmt.Sprintf("%d", status.RunsCompleted)},
		{"Failed runs", fmt.Sprintf("%d", status.RunsFailed)},
	}

	if status.ActiveRun != nil {
		rows = append(rows, []string{"Active run", fmt.Sprintf("%s (%s, %s)",
			shortID(status.ActiveRun.RunID), status.ActiveRun.TriggerSource, status.ActiveRun.State)})
	} else {
		rows = append(rows, []string{"Active run", "none"})
	}
	if status.LastRun != nil {
		outcome := status.LastRun.State
		if status.LastRun.FailureKind != "" {
			outcome = fmt.Sprintf("%s (%s)", status.LastRun.State, status.LastRun.FailureKind)
		}
		rows = append(rows, []string{"Last run", fmt.Sprintf("%s at %s, %s",
			shortID(status.LastRun.ID), formatTime(status.LastRun.StartedAt), outcome)})
	} else {
		rows = append(rows, []string{"Last run", "never"})
	}

	rows = append(rows, []string{"Cooldown", describeCooldown(status.CooldownActive,
		time.Duration(status.CooldownRemainingSeconds*float64(time.Second)), status.LastTrigger)})

	switch {
	case status.IdleDisabled != "":
		rows = append(rows, []string{"Idle trigger", "disabled: " + status.IdleDisabled})
	case status.IdleEnabled:
		rows = append(rows, []string{"Idle trigger", fmt.Sprintf("enabled, idle for %s",
			formatSeconds(status.IdleForSeconds))})
	default:
		rows = append(rows, []string{"Idle trigger", "off"})
	}

	if status.ScheduleRules > 0 {
		next := "none today"
		if !status.NextScheduled.IsZero() {
			next = formatTime(status.NextScheduled)
		}
		rows = append(rows, []string{"Schedules", fmt.Sprintf("%d rule(s), next fire %s",
			status.ScheduleRules, next)})
	} else {
		rows = append(rows, []string{"Schedules", "none configured"})
	}

	rows = append(rows, []string{"Log file", status.LogFilePath})

	fmt.Fprintln(w, renderTable(nil, rows, []columnAlignment{alignLeft, alignLeft}))
}

// printOfflineStatus reports what can be known without a daemon: the shared
// cooldown state file and the history database.
func printOfflineStatus(cmdCtx context.Context, w io.Writer, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	gate, err := ctx.localGate()
	if err != nil {
		return err
	}
	active, remaining, last := gate.Status(time.Now())

	rows := [][]string{
		{"Daemon", "not running"},
		{"Cooldown", describeCooldown(active, remaining, last)},
	}

	store, err := history.Open(cfg)
	if err == nil {
		defer store.Close()
		completed, failed, countErr := store.Counts(cmdCtx)
		if countErr == nil {
			rows = append(rows,
				[]string{"Completed runs", fmt.Sprintf("%d", completed)},
				[]string{"Failed runs", fmt.Sprintf("%d", failed)})
		}
		if lastRun, lastErr := store.Last(cmdCtx); lastErr == nil && lastRun != nil {
			outcome := string(lastRun.State)
			if lastRun.FailureKind != "" {
				outcome = fmt.Sprintf("%s (%s)", lastRun.State, lastRun.FailureKind)
			}
			rows = append(rows, []string{"Last run", fmt.Sprintf("%s at %s, %s",
				shortID(lastRun.ID), formatTime(lastRun.StartedAt), outcome)})
		}
	}

	fmt.Fprintln(w, renderTable(nil, rows, []columnAlignment{alignLeft, alignLeft}))
	return nil
}

func describeCooldown(active bool, remaining time.Duration, last time.Time) string {
	if active {
		return fmt.Sprintf("active, %s remaining (last trigger %s)",
			formatDuration(remaining), formatTime(last))
	}
	if last.IsZero() {
		return "open, never triggered"
	}
	return fmt.Sprintf("open (last trigger %s)", formatTime(last))
}
