// Package sink implements the line-oriented, verbosity-gated output
// channel of spec.md §6.3. Verbosity levels, ordered from the configured
// setting that prints the fewest categories to the one that prints the
// most, under the `kind <= configured` gate the engine actually tests
// against (see the Sink type's doc comment for why Silent is therefore the
// loudest setting): Debug, Outputs, Triggers, WarningsOnly, Progress,
// Silent.
package sink

import (
	"fmt"
	"io"
)

// Verbosity enumerates the output categories of spec.md §6.3.
type Verbosity uint8

const (
	Debug Verbosity = iota
	Outputs
	Triggers
	WarningsOnly
	Progress
	Silent
)

func (v Verbosity) String() string {
	switch v {
	case Debug:
		return "debug"
	case Outputs:
		return "outputs"
	case Triggers:
		return "triggers"
	case WarningsOnly:
		return "warnings-only"
	case Progress:
		return "progress"
	case Silent:
		return "silent"
	default:
		return "unknown"
	}
}

// ParseVerbosity parses a configuration string into a Verbosity.
func ParseVerbosity(s string) (Verbosity, bool) {
	switch s {
	case "debug":
		return Debug, true
	case "outputs":
		return Outputs, true
	case "triggers":
		return Triggers, true
	case "warnings-only":
		return WarningsOnly, true
	case "progress":
		return Progress, true
	case "silent":
		return Silent, true
	default:
		return 0, false
	}
}

// Sink writes verbosity-gated lines to an underlying io.Writer. Emissions
// at a verbosity level <= configured are printed; others are suppressed
// and, by construction, since Emit takes a lazily-built message function,
// not even formatted.
//
// This preserves the original's literal `kind <= self.verbosity` gate,
// which has a counter-intuitive consequence worth calling out: because
// Debug is numerically smallest, configuring verbosity as Progress (4)
// unlocks Debug, Outputs, Triggers, and WarningsOnly messages too, not
// just progress lines. A faithful reimplementation keeps this ordering
// rather than "fixing" it (see DESIGN.md).
type Sink struct {
	w         io.Writer
	verbosity Verbosity
}

// New builds a Sink writing to w, gated at the given configured verbosity.
func New(w io.Writer, verbosity Verbosity) *Sink {
	return &Sink{w: w, verbosity: verbosity}
}

// Emit prints msg() if kind <= the configured verbosity; msg is only
// called when the message would actually be printed, so an expensive
// message format pays nothing when suppressed. I/O errors on the
// underlying writer are swallowed, per spec.md §7's "best-effort".
func (s *Sink) Emit(kind Verbosity, msg func() string) {
	if kind > s.verbosity {
		return
	}
	fmt.Fprintln(s.w, msg())
}

// Emitf is a convenience wrapper over Emit for a plain format string; the
// Sprintf only runs when the message would be printed.
func (s *Sink) Emitf(kind Verbosity, format string, args ...interface{}) {
	s.Emit(kind, func() string { return fmt.Sprintf(format, args...) })
}
