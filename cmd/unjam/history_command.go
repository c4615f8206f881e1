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

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var pruneDays int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent recovery runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			if pruneDays > 0 {
				if err := pruneHistory(cmd.Context(), stdout, ctx, pruneDays); err != nil {
					return err
				}
			}

			connected, err := ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				runs := make([]*ipc.RunSummary, 0, len(resp.Runs))
				for i := range resp.Runs {
					runs = append(runs, &resp.Runs[i])
				}
				printHistory(stdout, runs)
				return nil
			})
			if err != nil {
				return err
			}
			if connected {
				return nil
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			recent, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			runs := make([]*ipc.RunSummary, 0, len(recent))
			for _, run := range recent {
				runs = append(runs, ipc.FromRun(run))
			}
			printHistory(stdout, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().IntVar(&pruneDays, "prune-days", 0, "before listing, delete runs older than this many days")
	return cmd
}

// pruneHistory opens the shared database directly; SQLite's WAL mode keeps
// this safe alongside a running daemon.
func pruneHistory(cmdCtx context.Context, w io.Writer, ctx *commandContext, days int) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	cutoff := time.Now().AddDate(0, 0, -days)
	pruned, err := store.PruneOlderThan(cmdCtx, cutoff)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	fmt.Fprintf(w, "Pruned %d run(s) older than %d day(s).\n", pruned, days)
	return nil
}

func printHistory(w io.Writer, runs []*ipc.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}
	colorize := shouldColorize(w)

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		outcome := okLabel(colorize)
		if run.FailureKind != "" {
			outcome = fmt.Sprintf("%s (%s)", failedLabel(colorize), run.FailureKind)
		}
		detail := run.ErrorMessage
		if len(detail) > 60 {
			detail = detail[:57] + "..."
		}
		rows = append(rows, []string{
			shortID(run.ID),
			run.TriggerSource,
			formatTime(run.StartedAt),
			formatDuration(run.FinishedAt.Sub(run.StartedAt)),
			outcome,
			detail,
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Run", "Source", "Started", "Duration", "Outcome", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
}
