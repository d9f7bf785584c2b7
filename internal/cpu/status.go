package cpu

// Status is the outcome of the most recent Step call.
type Status int

const (
	// StatusNone is the zero value: the core has not yet executed an instruction.
	StatusNone Status = iota

	// StatusRunning means the last Step retired an instruction normally.
	StatusRunning

	// StatusBreakpoint means the last Step retired an instruction whose address matched an
	// installed breakpoint. The matching breakpoint is consumed; Step clears it back to
	// StatusRunning on entry to the following call.
	StatusBreakpoint

	// StatusError means the last Step hit a fatal condition: an unaligned access, a decode
	// failure, or a signed-arithmetic trap. Err holds the detail.
	StatusError
)

//go:generate stringer -type=Status
