// Package source implements the event source abstraction of spec.md §6.2:
// an iterator of records, each with one optional timestamp cell and one
// cell per declared input, where an empty cell means "absent this tick".
package source

import "time"

// Record is one line of input: a timestamp (zero Time if the source has no
// time column at all, in which case online clock mode supplies wall time)
// and one cell per input column, keyed by stream name. A present-but-empty
// string denotes "no value this tick" for that column.
type Record struct {
	Time    time.Time
	HasTime bool
	Cells   map[string]string
}

// Source yields records in arrival order. Next returns io.EOF-equivalent
// via ok=false once exhausted.
type Source interface {
	Next() (Record, bool, error)
	Close() error
}
