// Command r3000 runs the interpreter against a BIOS image, either to completion (run) or
// interactively, single-stepped through a terminal console (debug).
package main

import (
	"os"

	"github.com/marrow-systems/r3000/internal/cli"
	"github.com/marrow-systems/r3000/internal/log"
)

func main() {
	logger := log.DefaultLogger()
	log.SetDefault(logger)

	commander := cli.NewCommander(os.Stdout,
		cli.NewRunCommand(os.Stdout, logger),
		cli.NewDebugCommand(os.Stdout, logger),
	)

	if err := commander.Run(os.Args[1:]); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}
