package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"unjam/internal/history"
	"unjam/internal/ipc"
	"unjam/internal/logging"
	"unjam/internal/procctl"
	"unjam/internal/services"
	"unjam/internal/trigger"
	"unjam/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Trigger a recovery run immediately",
		Long: "Requests a recovery run from the daemon, or performs one directly " +
			"when no daemon is listening. The run is still subject to the cooldown " +
			"and to the one-run-at-a-time rule.",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			connected, err := ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Run(trigger.SourceManual)
				if err != nil {
					return err
				}
				return reportRunResponse(stdout, resp)
			})
			if err != nil {
				return err
			}
			if connected {
				return nil
			}

			fmt.Fprintln(stdout, "No daemon running, performing the run directly...")
			run, err := directRun(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			return reportRun(stdout, ipc.FromRun(run))
		},
	}
}

// directRun executes one recovery run in-process, sharing the cooldown state
// file and history database with any future daemon.
func directRun(runCtx context.Context, ctx *commandContext) (*workflow.Run, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	gate, err := ctx.localGate()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	logger := logging.NewNop()
	controller := procctl.NewCommandController(logger)
	executor := workflow.NewExecutor(controller, cfg, logger)
	coordinator := trigger.NewCoordinator(executor, gate, store, logger)
	return coordinator.TriggerAndWait(runCtx, trigger.SourceManual)
}

func reportRunResponse(w io.Writer, resp *ipc.RunResponse) error {
	if !resp.Accepted {
		switch resp.RejectReason {
		case ipc.RejectCooldown:
			return services.Wrap(services.ErrCooldownActive, "cli", "run",
				fmt.Sprintf("%s remaining", formatSeconds(resp.CooldownRemainingSeconds)), nil)
		case ipc.RejectAlreadyRunning:
			return services.Wrap(services.ErrAlreadyRunning, "cli", "run", "a run is already in progress", nil)
		default:
			return fmt.Errorf("run rejected: %s", resp.RejectReason)
		}
	}
	return reportRun(w, resp.Run)
}

func reportRun(w io.Writer, run *ipc.RunSummary) error {
	if run == nil {
		return fmt.Errorf("daemon returned no run record")
	}
	colorize := shouldColorize(w)

	rows := make([][]string, 0, len(run.Steps))
	for _, step := range run.Steps {
		outcome := okLabel(colorize)
		if step.Error != "" {
			outcome = failedLabel(colorize)
		}
		rows = append(rows, []string{
			step.State,
			fmt.Sprintf("%d", step.Attempts),
			formatSeconds(step.DurationSeconds),
			outcome,
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Step", "Attempts", "Duration", "Outcome"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
	))

	duration := run.FinishedAt.Sub(run.StartedAt)
	if run.State == string(workflow.StateCompleted) {
		fmt.Fprintf(w, "Run %s completed in %s\n", shortID(run.ID), formatDuration(duration))
		return nil
	}
	fmt.Fprintf(w, "Run %s failed (%s): %s\n", shortID(run.ID), run.FailureKind, run.ErrorMessage)
	return fmt.Errorf("recovery run failed: %s", run.ErrorMessage)
}
