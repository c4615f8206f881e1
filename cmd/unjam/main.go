package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"unjam/internal/services"
)

// Exit codes: 0 success, 1 run or command failure, 2 invalid configuration,
// 3 request rejected (already running or cooldown active).
const (
	exitFailure       = 1
	exitConfiguration = 2
	exitRejected      = 3
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return exitConfiguration
	case services.Rejected(err):
		return exitRejected
	default:
		return exitFailure
	}
}
