// Command unjamd runs the recovery daemon in the foreground.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"unjam/internal/daemonrun"
)

func main() {
	var opts daemonrun.Options
	flag.StringVar(&opts.ConfigPath, "config", "", "configuration file path")
	flag.StringVar(&opts.LogLevel, "log-level", "", "override the configured log level")
	flag.BoolVar(&opts.Console, "console", true, "mirror logs to stdout")
	flag.Parse()

	if err := daemonrun.Run(context.Background(), opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
