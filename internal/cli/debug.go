package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/marrow-systems/r3000/internal/debugger"
	"github.com/marrow-systems/r3000/internal/log"
	"github.com/marrow-systems/r3000/internal/tty"
)

// DebugCommand drives a Session interactively: a line-oriented REPL over a raw-mode terminal,
// where available, falling back to a message that the terminal doesn't support interaction
// otherwise.
type DebugCommand struct {
	out  io.Writer
	log  *log.Logger
	fs   *flag.FlagSet
	bios string
}

// NewDebugCommand builds the "debug" subcommand.
func NewDebugCommand(out io.Writer, logger *log.Logger) *DebugCommand {
	c := &DebugCommand{out: out, log: logger}

	c.fs = flag.NewFlagSet("debug", flag.ExitOnError)
	c.fs.StringVar(&c.bios, "bios", "", "path to the BIOS image (required)")
	logLevelFlag(c.fs)

	return c
}

func (c *DebugCommand) Name() string           { return "debug" }
func (c *DebugCommand) Description() string    { return "step a BIOS image interactively" }
func (c *DebugCommand) FlagSet() *flag.FlagSet { return c.fs }

// Commands recognized by the debug console.
const helpText = "commands: break <hex>  run  pause  resume  step  reset  quit\r\n"

func (c *DebugCommand) Run() error {
	if c.bios == "" {
		return fmt.Errorf("debug: -bios is required")
	}

	sess, err := debugger.NewSession(c.bios, c.log)
	if err != nil {
		return fmt.Errorf("debug: %w", err)
	}

	console, err := tty.NewConsole(os.Stdin, os.Stdout)
	if errors.Is(err, tty.ErrNoTTY) {
		fmt.Fprintln(c.out, "debug: stdin is not a terminal; nothing to do interactively")
		return nil
	} else if err != nil {
		return fmt.Errorf("debug: %w", err)
	}
	defer console.Restore()

	fmt.Fprint(console.Writer(), helpText)

	for {
		line, err := console.ReadLine()
		if err != nil {
			return nil
		}

		if err := c.dispatch(console, sess, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}

			fmt.Fprintf(console.Writer(), "error: %s\r\n", err)
		}
	}
}

var errQuit = errors.New("debug: quit")

func (c *DebugCommand) dispatch(console *tty.Console, sess *debugger.Session, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	w := console.Writer()

	switch fields[0] {
	case "step":
		fmt.Fprintf(w, "%s\r\n", sess.Step())
	case "run":
		// A ctrl-C keystroke during the free run calls sess.Pause asynchronously; the watcher
		// is stopped before the REPL loop reads its next line so the two never read concurrently.
		stop := console.WatchInterrupt(sess.Pause)
		status, n := sess.Run(0)
		stop()

		fmt.Fprintf(w, "stopped after %d: %s\r\n", n, status)
	case "pause":
		sess.Pause()
	case "resume":
		sess.Resume()
	case "reset":
		if err := sess.Reset(); err != nil {
			return err
		}

		fmt.Fprint(w, "reset\r\n")
	case "break":
		if len(fields) != 2 {
			return fmt.Errorf("usage: break <hex address>")
		}

		addr, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 32)
		if err != nil {
			return fmt.Errorf("break: %w", err)
		}

		sess.AddBreakpoint(uint32(addr))
	case "quit":
		return errQuit
	default:
		fmt.Fprint(w, helpText)
	}

	fmt.Fprintf(w, "%s\r\n", sess.Core)

	return nil
}
