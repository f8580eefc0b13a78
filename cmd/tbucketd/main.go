// Command tbucketd serves, drives, and inspects tbucket rate limiters.
// It is grounded on the teacher's cmd/nmq bootstrap (cmd/nmq/nmq.go,
// pkg/nmq/nmq.go): a cobra root command built by a small app.App, with
// subcommands attached before Execute runs.
package main

import (
	"fmt"
	"os"

	"github.com/relaygate/tbucket/internal/app"
)

func main() {
	a := app.New(
		app.SetEnableGoPs(true),
		app.SetEnablePyroscope(false),
	)
	if err := a.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "tbucketd: init:", err)
		os.Exit(1)
	}

	a.AddCommand(
		newServeCommand(a),
		newBenchCommand(a),
		newWatchCommand(a),
		newStatusCommand(a),
	)

	if err := a.Execute(); err != nil {
		a.Logger().Sugar().Errorf("tbucketd: %v", err)
		os.Exit(1)
	}
}
