// Package cpu implements the fetch/decode/execute core: a 32-register, 32-bit little-endian
// interpreter modeled on the MIPS-I instruction set, with branch-delay-slot semantics and a
// breakpoint-aware single-step contract meant to be driven by a debugger loop.
package cpu

import (
	"fmt"

	"github.com/marrow-systems/r3000/internal/log"
	"github.com/marrow-systems/r3000/internal/memory"
)

// ResetVector is the address the core starts fetching from: the base of the BIOS region,
// as seen through the KSEG1 (uncached) virtual mirror.
const ResetVector = 0xBFC0_0000

// Core is the interpreter's register and control state. It holds no memory of its own; all loads
// and stores are issued through Mem.
type Core struct {
	PC Word
	HI Word
	LO Word

	Reg  RegisterFile
	COP0 [16]Word

	Mem *memory.Bus

	// Current is the instruction Step is about to retire; Next is the instruction already
	// fetched for the following cycle, which becomes Current immediately after a taken branch
	// or jump (the delay slot).
	Current, Next Instruction

	// BranchDelay is true between a taken branch/jump and the retirement of its delay-slot
	// instruction. While true, Step promotes Next into Current instead of fetching.
	BranchDelay bool

	// Breakpoints is the set of addresses that convert a Running step into a Breakpoint step.
	// A match is consumed (removed) the instant it fires.
	Breakpoints []Word

	// Status is the outcome of the most recently completed Step.
	Status Status

	// Err holds the detail behind a StatusError outcome. It is cleared at the start of the
	// step that produced it and is otherwise nil.
	Err error

	// Cycles counts retired instructions, including the one that produced a Breakpoint or
	// Error status.
	Cycles uint64

	tookBranch bool

	log *log.Logger
}

// OptionFn configures a Core at construction.
type OptionFn func(*Core)

// WithLogger overrides the core's logger. Without it, New uses log.DefaultLogger().
func WithLogger(logger *log.Logger) OptionFn {
	return func(c *Core) { c.log = logger }
}

// New constructs a Core wired to bus, with the program counter at the reset vector and the first
// two instruction words pre-fetched, ready for Step.
func New(bus *memory.Bus, opts ...OptionFn) (*Core, error) {
	c := &Core{
		Mem:    bus,
		PC:     ResetVector,
		Status: StatusNone,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = log.DefaultLogger()
	}

	if err := c.fetch(); err != nil {
		return nil, fmt.Errorf("cpu: new: %w", err)
	}

	return c, nil
}

// AddBreakpoint installs addr as a one-shot breakpoint.
func (c *Core) AddBreakpoint(addr Word) {
	for _, bp := range c.Breakpoints {
		if bp == addr {
			return
		}
	}

	c.Breakpoints = append(c.Breakpoints, addr)
}

// RemoveBreakpoint removes addr from the breakpoint list, if present.
func (c *Core) RemoveBreakpoint(addr Word) {
	for i, bp := range c.Breakpoints {
		if bp == addr {
			c.Breakpoints = append(c.Breakpoints[:i], c.Breakpoints[i+1:]...)
			return
		}
	}
}

func (c *Core) String() string {
	return fmt.Sprintf("PC: %s  HI: %s  LO: %s  status: %s  cycles: %d\n"+
		"current: %s  next: %s  branch delay: %t\n%sCOP0: %v\n",
		c.PC, c.HI, c.LO, c.Status, c.Cycles, c.Current, c.Next, c.BranchDelay, c.Reg, c.COP0)
}

// fetch loads the instruction at PC into Current and the one at PC+4 into Next.
func (c *Core) fetch() error {
	cur, err := c.Mem.ReadWord(uint32(c.PC))
	if err != nil {
		return &memory.AccessError{Addr: uint32(c.PC), Err: err}
	}

	nxt, err := c.Mem.ReadWord(uint32(c.PC) + 4)
	if err != nil {
		// The successor word is pre-fetched speculatively; a failure reading it is a problem
		// for the step that tries to execute it, not this one, so Next is set to zero (a
		// no-op) and fetch succeeds.
		nxt = 0
	}

	c.Current = Instruction(cur)
	c.Next = Instruction(nxt)

	return nil
}
