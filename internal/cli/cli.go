// Package cli implements the command-line surface over the interpreter: a small dispatcher of
// named subcommands, each describing its own flags.
package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/marrow-systems/r3000/internal/log"
)

// Command is one subcommand of the r3000 binary.
type Command interface {
	// Name is the word typed on the command line to select this command.
	Name() string

	// Description is a one-line summary shown in the command list.
	Description() string

	// FlagSet returns the flags this command accepts. Run is called with the set already
	// parsed against the remaining arguments.
	FlagSet() *flag.FlagSet

	// Run executes the command.
	Run() error
}

// Commander dispatches to one of a fixed set of commands by name.
type Commander struct {
	commands []Command
	out      io.Writer
}

// NewCommander builds a dispatcher over the given commands.
func NewCommander(out io.Writer, commands ...Command) *Commander {
	return &Commander{commands: commands, out: out}
}

// Run parses args[0] as a command name, parses the rest against that command's flag set, and
// runs it. An empty args or an unknown command name prints usage and returns an error.
func (c *Commander) Run(args []string) error {
	if len(args) == 0 {
		c.usage()
		return fmt.Errorf("cli: no command given")
	}

	for _, cmd := range c.commands {
		if cmd.Name() != args[0] {
			continue
		}

		fs := cmd.FlagSet()
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		return cmd.Run()
	}

	c.usage()

	return fmt.Errorf("cli: unknown command %q", args[0])
}

// logLevelFlag registers a -loglevel flag on fs that parses via slog's own text unmarshaling
// (DEBUG, INFO, WARN, ERROR), writing the result into log.LogLevel so it takes effect on the
// process-wide default logger.
func logLevelFlag(fs *flag.FlagSet) {
	fs.TextVar(log.LogLevel, "loglevel", log.Info, "minimum log level: DEBUG, INFO, WARN, ERROR")
}

func (c *Commander) usage() {
	fmt.Fprintln(c.out, "usage: r3000 <command> [flags]")
	fmt.Fprintln(c.out, "commands:")

	for _, cmd := range c.commands {
		fmt.Fprintf(c.out, "  %-10s %s\n", cmd.Name(), cmd.Description())
	}
}
