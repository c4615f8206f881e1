package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"unjam/internal/config"
	"unjam/internal/ipc"
	"unjam/internal/logging"
	"unjam/internal/procctl"
	"unjam/internal/workflow"
)

func newTestSyncCommand(ctx *commandContext) *cobra.Command {
	var (
		stepDelay time.Duration
		failSpecs []string
	)

	cmd := &cobra.Command{
		Use:   "test-sync",
		Short: "Dry-run the recovery workflow against simulated processes",
		Long: "Executes the full workflow with an in-memory process controller " +
			"instead of real process commands. Nothing is stopped or started, the " +
			"cooldown is not consumed, and no history is recorded. Use --fail to " +
			"inject process-control failures and exercise the retry behavior.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			sim := procctl.NewSimulator(stepDelay)
			sim.SetRunning(cfg.MessagingApp.ProcessName, true)
			sim.SetRunning(cfg.SyncClient.ProcessName, true)
			for _, spec := range failSpecs {
				op, process, n, err := parseFailSpec(spec, cfg)
				if err != nil {
					return err
				}
				sim.FailNext(op, process, n)
			}

			// Simulated steps finish instantly, so the real settle and
			// sync-wait timings would only add dead air.
			simCfg := *cfg
			simCfg.Workflow.StopSettleSeconds = 0
			simCfg.Workflow.SyncWaitTimeoutSeconds = 1
			simCfg.Workflow.RetryDelaySeconds = 0

			executor := workflow.NewExecutor(sim, &simCfg, logging.NewNop())
			run := executor.Execute(cmd.Context(), "test-sync")
			return reportRun(cmd.OutOrStdout(), ipc.FromRun(run))
		},
	}

	cmd.Flags().DurationVar(&stepDelay, "step-delay", 100*time.Millisecond,
		"simulated duration of each process operation")
	cmd.Flags().StringArrayVar(&failSpecs, "fail", nil,
		"inject failures, as op:target[:count] where op is stop|start|wait and target is messaging|sync")
	return cmd
}

// parseFailSpec turns "stop:messaging" or "start:sync:2" into simulator terms.
func parseFailSpec(spec string, cfg *config.Config) (op, process string, n int, err error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", "", 0, fmt.Errorf("invalid --fail value %q, want op:target[:count]", spec)
	}

	op = parts[0]
	switch op {
	case "stop", "start", "wait":
	default:
		return "", "", 0, fmt.Errorf("invalid --fail op %q, want stop, start, or wait", op)
	}

	switch parts[1] {
	case "messaging":
		process = cfg.MessagingApp.ProcessName
	case "sync":
		process = cfg.SyncClient.ProcessName
	default:
		return "", "", 0, fmt.Errorf("invalid --fail target %q, want messaging or sync", parts[1])
	}

	n = 1
	if len(parts) == 3 {
		n, err = strconv.Atoi(parts[2])
		if err != nil || n < 1 {
			return "", "", 0, fmt.Errorf("invalid --fail count %q", parts[2])
		}
	}
	return op, process, n, nil
}
