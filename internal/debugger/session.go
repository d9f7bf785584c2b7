// Package debugger implements the host-facing contract a debugger console or automated test
// drives the interpreter through: construct against a BIOS image, single-step, manage
// breakpoints, and run until something interesting happens.
package debugger

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/marrow-systems/r3000/internal/cpu"
	"github.com/marrow-systems/r3000/internal/log"
	"github.com/marrow-systems/r3000/internal/memory"
)

// Session owns one running core and the BIOS path it was booted from, so Reset can rebuild the
// machine from scratch without the caller re-supplying the image.
type Session struct {
	Core *cpu.Core

	biosPath string
	paused   atomic.Bool

	log *log.Logger
}

// NewSession reads the BIOS image at biosPath and constructs a core ready to step from the reset
// vector.
func NewSession(biosPath string, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.DefaultLogger()
	}

	s := &Session{biosPath: biosPath, log: logger}

	if err := s.Reset(); err != nil {
		return nil, err
	}

	return s, nil
}

// Reset reloads the BIOS image and rebuilds the core, discarding all register and memory state.
// Breakpoints are not preserved; callers that want them to survive a reset should save
// s.Core.Breakpoints beforehand and reinstall them afterward.
func (s *Session) Reset() error {
	bios, err := os.ReadFile(s.biosPath)
	if err != nil {
		return fmt.Errorf("debugger: reset: %w", err)
	}

	bus, err := memory.New(bios, s.log)
	if err != nil {
		return fmt.Errorf("debugger: reset: %w", err)
	}

	core, err := cpu.New(bus, cpu.WithLogger(s.log))
	if err != nil {
		return fmt.Errorf("debugger: reset: %w", err)
	}

	s.Core = core

	// The machine starts paused, matching the reset/power-on state the original implementation
	// boots into (original_source/src/cpu/mod.rs's cpu_paused: true); Run un-pauses it, just as
	// the original's "start emulation" handler clears cpu_paused before stepping.
	s.paused.Store(true)

	return nil
}

// Step retires one instruction and returns the resulting status.
func (s *Session) Step() cpu.Status {
	return s.Core.Step()
}

// Run clears any pending pause and steps the core until it reports anything other than Running,
// until a concurrent Pause call lands, or until max instructions have retired, whichever comes
// first. max <= 0 means unbounded. Run is safe to call while another goroutine calls Pause, which
// is what lets a debug console's ctrl-C watcher interrupt a free-running Run.
func (s *Session) Run(max int) (cpu.Status, int) {
	s.paused.Store(false)

	n := 0

	for {
		if s.paused.Load() {
			return cpu.StatusRunning, n
		}

		status := s.Step()
		n++

		if status != cpu.StatusRunning {
			return status, n
		}

		if max > 0 && n >= max {
			return status, n
		}
	}
}

// AddBreakpoint installs a one-shot breakpoint at addr.
func (s *Session) AddBreakpoint(addr uint32) {
	s.Core.AddBreakpoint(cpu.Word(addr))
}

// RemoveBreakpoint removes a breakpoint at addr, if present.
func (s *Session) RemoveBreakpoint(addr uint32) {
	s.Core.RemoveBreakpoint(cpu.Word(addr))
}

// Breakpoints returns the currently installed breakpoint addresses.
func (s *Session) Breakpoints() []uint32 {
	out := make([]uint32, len(s.Core.Breakpoints))
	for i, bp := range s.Core.Breakpoints {
		out[i] = uint32(bp)
	}

	return out
}

// Pause requests that a running loop stop at the next opportunity. It does not interrupt a Step
// already in progress, but is safe to call concurrently with Run: the next iteration of Run's loop
// observes it and returns.
func (s *Session) Pause() { s.paused.Store(true) }

// Resume clears a pending pause request.
func (s *Session) Resume() { s.paused.Store(false) }

// Paused reports whether the session is paused: true after Reset (and so after NewSession) or
// Pause, false after Resume or once Run has started.
func (s *Session) Paused() bool { return s.paused.Load() }
