// Package tty adapts the debugger's REPL to a real terminal, using raw mode so a single keystroke
// (e.g. a pause request during a free-running "run") takes effect without waiting for a newline,
// while still supporting line-oriented debugger commands.
package tty

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrNoTTY is returned by NewConsole when standard input is not a terminal, e.g. when input has
// been redirected from a file or pipe.
var ErrNoTTY = errors.New("tty: not a terminal")

// ErrStopped is returned by ReadKey when its stop channel is closed before a keystroke arrives.
var ErrStopped = errors.New("tty: read stopped")

// Console is a raw-mode terminal console: keystrokes are delivered one byte at a time, without
// waiting for Enter, and output passes through unmodified. A single background goroutine owns the
// underlying reader and fans bytes out over a channel, so ReadKey and ReadLine never issue
// concurrent reads against the same file descriptor.
type Console struct {
	out   io.Writer
	fd    int
	state *term.State

	bytes chan byte
	errc  chan error
}

// NewConsole puts sin into raw mode and returns a Console reading from it and writing to sout.
// Callers must call Restore when done to return the terminal to cooked mode.
func NewConsole(sin, sout *os.File) (*Console, error) {
	fd := int(sin.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTTY, err)
	}

	c := &Console{
		out:   sout,
		fd:    fd,
		state: saved,
		bytes: make(chan byte),
		errc:  make(chan error, 1),
	}

	if err := c.setTerminalParams(1, 0); err != nil {
		_ = term.Restore(fd, saved)
		return nil, err
	}

	go c.readLoop(bufio.NewReader(sin))

	return c, nil
}

// readLoop reads sin one byte at a time for the lifetime of the console, handing each byte to
// whichever of ReadKey or ReadLine is currently waiting. Running this on its own goroutine is what
// lets ReadKey watch for a ctrl-C concurrently with a free-running Session.Run.
func (c *Console) readLoop(r *bufio.Reader) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			c.errc <- err
			return
		}

		c.bytes <- b
	}
}

// ReadKey blocks for a single keystroke and returns it. If stop is closed before a keystroke
// arrives, it returns ErrStopped; a nil stop blocks unconditionally.
func (c *Console) ReadKey(stop <-chan struct{}) (byte, error) {
	select {
	case b := <-c.bytes:
		return b, nil
	case err := <-c.errc:
		return 0, err
	case <-stop:
		return 0, ErrStopped
	}
}

// WatchInterrupt starts a goroutine that reads keystrokes via ReadKey until it sees ctrl-C
// (0x03), at which point it calls onInterrupt once and returns. The returned stop function must
// be called exactly once, after the watched run finishes, to cancel the watcher before the
// console's next ReadLine; it blocks until the watcher goroutine has exited.
func (c *Console) WatchInterrupt(onInterrupt func()) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)

		for {
			b, err := c.ReadKey(done)
			if err != nil {
				return
			}

			if b == 0x03 {
				onInterrupt()
				return
			}
		}
	}()

	return func() {
		close(done)
		<-exited
	}
}

// ReadLine reads bytes until carriage return, newline, or EOF, echoing each byte back to the
// console's writer since raw mode disables the terminal's own local echo. Backspace (0x7F) deletes
// the previous character from the line and its echoed output.
func (c *Console) ReadLine() (string, error) {
	var line []byte

	for {
		b, err := c.ReadKey(nil)
		if err != nil {
			return string(line), err
		}

		switch b {
		case '\r', '\n':
			fmt.Fprint(c.out, "\r\n")
			return string(line), nil
		case 0x7F: // backspace
			if len(line) > 0 {
				line = line[:len(line)-1]
				fmt.Fprint(c.out, "\b \b")
			}
		default:
			line = append(line, b)
			fmt.Fprintf(c.out, "%c", b)
		}
	}
}

// Writer returns the console's output stream.
func (c *Console) Writer() io.Writer { return c.out }

// Restore returns the terminal to its state from before NewConsole.
func (c *Console) Restore() error {
	return term.Restore(c.fd, c.state)
}

// setTerminalParams configures VMIN/VTIME on the terminal's termios struct directly through
// ioctl, since term.MakeRaw alone leaves read blocking behavior unspecified for our purposes:
// vmin=1, vtime=0 means ReadKey blocks for exactly one byte and returns as soon as it arrives.
func (c *Console) setTerminalParams(vmin, vtime byte) error {
	_ = syscall.SetNonblock(c.fd, false)

	termIO, err := unix.IoctlGetTermios(c.fd, getTermiosIoctl)
	if err != nil {
		return err
	}

	termIO.Cc[unix.VMIN] = vmin
	termIO.Cc[unix.VTIME] = vtime

	return unix.IoctlSetTermios(c.fd, setTermiosIoctl, termIO)
}
