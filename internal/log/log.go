// Package log provides the structured logging used throughout the interpreter.
package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
)

var (
	// DefaultLogger returns a new logger writing to stderr, gated by LogLevel. Each call builds a
	// fresh logger; components started during CLI init should call this once and hold onto the
	// result. SetDefault does not change what it returns.
	DefaultLogger = func() *Logger { return NewFormattedLogger(os.Stderr) }

	// SetDefault overrides the default logger used by package-level helpers.
	SetDefault = slog.SetDefault

	// LogLevel holds the current minimum log level. It may be changed at runtime, e.g. from a CLI
	// flag, and takes effect on the next log call.
	LogLevel = &slog.LevelVar{}
)

// NewFormattedLogger returns a logger that writes single-line, field-tagged records to out.
func NewFormattedLogger(out io.Writer) *Logger {
	return slog.New(NewHandler(out))
}

// Handler is a slog.Handler that renders records as one line: a level tag, the call site, the
// message, and any attributes as space-separated KEY=value pairs. Group attributes are flattened
// with a dotted prefix rather than nested, since single-step CPU traces read better flat.
type Handler struct {
	mut *sync.Mutex
	out io.Writer

	opts   *slog.HandlerOptions
	prefix string
	attrs  []Attr
}

// Options configures the default handler: include the call site, and respect LogLevel.
var Options = &slog.HandlerOptions{
	AddSource: true,
	Level:     LogLevel,
}

// NewHandler creates a Handler writing to out.
func NewHandler(out io.Writer) *Handler {
	return &Handler{
		out:  out,
		mut:  new(sync.Mutex),
		opts: Options,
	}
}

// Enabled reports whether level is at or above the handler's minimum level.
func (h *Handler) Enabled(_ context.Context, level Level) bool {
	return level >= h.opts.Level.Level()
}

// Handle formats and writes a single record.
func (h *Handler) Handle(_ context.Context, rec slog.Record) error {
	buf := bytes.NewBuffer(make([]byte, 0, 256))

	fmt.Fprintf(buf, "%-5s", rec.Level.String())

	if h.opts.AddSource && rec.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{rec.PC})
		f, _ := frames.Next()
		_, file := path.Split(f.File)
		fmt.Fprintf(buf, " %s:%d", file, f.Line)
	}

	fmt.Fprintf(buf, " %s", rec.Message)

	for _, a := range h.attrs {
		h.appendAttr(buf, h.prefix, a)
	}

	rec.Attrs(func(attr Attr) bool {
		h.appendAttr(buf, h.prefix, attr)
		return true
	})

	buf.WriteByte('\n')

	h.mut.Lock()
	defer h.mut.Unlock()

	_, err := h.out.Write(buf.Bytes())

	return err
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	next := *h
	next.prefix = h.prefix + name + "."

	return &next
}

// WithAttrs returns a new handler that always logs attrs in addition to whatever is passed to Handle.
func (h *Handler) WithAttrs(attrs []Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]Attr(nil), h.attrs...), attrs...)

	return &next
}

func (h *Handler) appendAttr(out io.Writer, prefix string, attr Attr) {
	attr.Value = attr.Value.Resolve()

	if attr.Equal(Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix = prefix + attr.Key + "."
		}

		for _, a := range attr.Value.Group() {
			h.appendAttr(out, groupPrefix, a)
		}

		return
	}

	fmt.Fprintf(out, " %s%s=%v", strings.ToUpper(prefix), strings.ToUpper(attr.Key), attr.Value.Any())
}

type (
	Attr   = slog.Attr
	Level  = slog.Level
	Logger = slog.Logger
	Value  = slog.Value
)

var (
	String      = slog.String
	StringValue = slog.StringValue
	Group       = slog.Group
	GroupValue  = slog.GroupValue
	Any         = slog.Any
	AnyValue    = slog.AnyValue
)

const (
	Debug = slog.LevelDebug
	Info  = slog.LevelInfo
	Warn  = slog.LevelWarn
	Error = slog.LevelError
)
