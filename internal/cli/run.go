package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/marrow-systems/r3000/internal/cpu"
	"github.com/marrow-systems/r3000/internal/debugger"
	"github.com/marrow-systems/r3000/internal/log"
)

// RunCommand boots a core from a BIOS image and steps it until a fault, a breakpoint, or a
// configured instruction limit, then reports the final status.
type RunCommand struct {
	out    io.Writer
	log    *log.Logger
	fs     *flag.FlagSet
	bios   string
	limit  int
	bpAddr uint
}

// NewRunCommand builds the "run" subcommand.
func NewRunCommand(out io.Writer, logger *log.Logger) *RunCommand {
	c := &RunCommand{out: out, log: logger}

	c.fs = flag.NewFlagSet("run", flag.ExitOnError)
	c.fs.StringVar(&c.bios, "bios", "", "path to the BIOS image (required)")
	c.fs.IntVar(&c.limit, "limit", 0, "maximum instructions to retire (0 = unbounded)")
	c.fs.UintVar(&c.bpAddr, "break", 0, "stop when the instruction at this PC address, e.g. 0xbfc00000, retires (0 = disabled)")
	logLevelFlag(c.fs)

	return c
}

func (c *RunCommand) Name() string           { return "run" }
func (c *RunCommand) Description() string    { return "run a BIOS image until it halts or faults" }
func (c *RunCommand) FlagSet() *flag.FlagSet { return c.fs }

func (c *RunCommand) Run() error {
	if c.bios == "" {
		return fmt.Errorf("run: -bios is required")
	}

	sess, err := debugger.NewSession(c.bios, c.log)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if c.bpAddr != 0 {
		sess.AddBreakpoint(uint32(c.bpAddr))
	}

	status, n := sess.Run(c.limit)

	fmt.Fprintf(c.out, "stopped after %d instructions: %s\n", n, status)
	fmt.Fprintf(c.out, "%s", sess.Core)

	if status == cpu.StatusError {
		return fmt.Errorf("run: %w", sess.Core.Err)
	}

	return nil
}
