package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"unjam/internal/ipc"
)

func newCooldownCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cooldown",
		Short: "Inspect or adjust the trigger cooldown",
	}
	cmd.AddCommand(
		newCooldownStatusCommand(ctx),
		newCooldownResetCommand(ctx),
		newCooldownApplyCommand(ctx),
	)
	return cmd
}

func newCooldownStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the cooldown currently blocks triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			connected, err := ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				remaining := time.Duration(status.CooldownRemainingSeconds * float64(time.Second))
				fmt.Fprintln(stdout, describeCooldown(status.CooldownActive, remaining, status.LastTrigger))
				return nil
			})
			if err != nil {
				return err
			}
			if connected {
				return nil
			}

			gate, err := ctx.localGate()
			if err != nil {
				return err
			}
			active, remaining, last := gate.Status(time.Now())
			fmt.Fprintln(stdout, describeCooldown(active, remaining, last))
			return nil
		},
	}
}

func newCooldownResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the cooldown so the next trigger fires immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			connected, err := ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.CooldownReset(); err != nil {
					return err
				}
				fmt.Fprintln(stdout, "Cooldown cleared.")
				return nil
			})
			if err != nil {
				return err
			}
			if connected {
				return nil
			}

			gate, err := ctx.localGate()
			if err != nil {
				return err
			}
			if err := gate.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Cooldown cleared.")
			return nil
		},
	}
}

func newCooldownApplyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Start a full cooldown period now without running the workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			connected, err := ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.CooldownApply(); err != nil {
					return err
				}
				return nil
			})
			if err != nil {
				return err
			}
			if !connected {
				gate, err := ctx.localGate()
				if err != nil {
					return err
				}
				if err := gate.ApplyNow(time.Now()); err != nil {
					return err
				}
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			duration := time.Duration(cfg.Triggers.CooldownMinutes * float64(time.Minute))
			fmt.Fprintf(stdout, "Cooldown applied, triggers blocked for %s.\n", formatDuration(duration))
			return nil
		},
	}
}
