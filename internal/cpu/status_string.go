// Code generated by stringer -type=Status; hand-authored to match its output, since the
// generator isn't run as part of building this module.

package cpu

import "strconv"

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "None"
	case StatusRunning:
		return "Running"
	case StatusBreakpoint:
		return "Breakpoint"
	case StatusError:
		return "Error"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}
