package cli_test

import (
	"bytes"
	"flag"
	"testing"

	"github.com/marrow-systems/r3000/internal/cli"
)

type fakeCommand struct {
	name string
	fs   *flag.FlagSet
	ran  bool
}

func newFakeCommand(name string) *fakeCommand {
	return &fakeCommand{name: name, fs: flag.NewFlagSet(name, flag.ContinueOnError)}
}

func (f *fakeCommand) Name() string           { return f.name }
func (f *fakeCommand) Description() string    { return "fake" }
func (f *fakeCommand) FlagSet() *flag.FlagSet { return f.fs }
func (f *fakeCommand) Run() error             { f.ran = true; return nil }

func TestCommanderDispatchesByName(t *testing.T) {
	var out bytes.Buffer

	a, b := newFakeCommand("a"), newFakeCommand("b")
	commander := cli.NewCommander(&out, a, b)

	if err := commander.Run([]string{"b"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if a.ran {
		t.Error("command a ran, want only b")
	}

	if !b.ran {
		t.Error("command b did not run")
	}
}

func TestCommanderRejectsUnknownCommand(t *testing.T) {
	var out bytes.Buffer

	commander := cli.NewCommander(&out, newFakeCommand("a"))

	if err := commander.Run([]string{"nope"}); err == nil {
		t.Fatal("Run: want error for unknown command")
	}
}

func TestCommanderRejectsEmptyArgs(t *testing.T) {
	var out bytes.Buffer

	commander := cli.NewCommander(&out, newFakeCommand("a"))

	if err := commander.Run(nil); err == nil {
		t.Fatal("Run: want error for no command")
	}
}
