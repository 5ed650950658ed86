package schedule

import (
	"testing"
	"time"

	"github.com/lola-rv/monitor/pkg/ir"
)

func refSet(refs []ir.StreamRef) map[ir.StreamRef]bool {
	s := make(map[ir.StreamRef]bool, len(refs))
	for _, r := range refs {
		s[r] = true
	}
	return s
}

func sameRefSet(got []ir.StreamRef, want ...ir.StreamRef) bool {
	g, w := refSet(got), refSet(want)
	if len(g) != len(w) {
		return false
	}
	for r := range w {
		if !g[r] {
			return false
		}
	}
	return true
}

// §8.1: rates 20/25/50ms must fire 20ms@{20,40,60,80,100},
// 25ms@{25,50,75,100}, 50ms@{50,100} - the due-set paired with each
// due-time must be the one that produced that pause, not the previous
// deadline's.
func TestDriverScenarioFiringSequence(t *testing.T) {
	mod := moduleWithRates(20*time.Millisecond, 25*time.Millisecond, 50*time.Millisecond)
	stream20, stream25, stream50 := ir.OutputRef(0), ir.OutputRef(1), ir.OutputRef(2)
	s := Build(mod)
	start := time.Unix(0, 0)
	d := NewDriver(s, start)

	want := []struct {
		due  time.Duration
		refs []ir.StreamRef
	}{
		{20 * time.Millisecond, []ir.StreamRef{stream20}},
		{25 * time.Millisecond, []ir.StreamRef{stream25}},
		{40 * time.Millisecond, []ir.StreamRef{stream20}},
		{50 * time.Millisecond, []ir.StreamRef{stream25, stream50}},
		{60 * time.Millisecond, []ir.StreamRef{stream20}},
		{75 * time.Millisecond, []ir.StreamRef{stream25}},
		{80 * time.Millisecond, []ir.StreamRef{stream20}},
		{100 * time.Millisecond, []ir.StreamRef{stream20, stream25, stream50}},
	}

	for i, w := range want {
		due, refs := d.Peek()
		gotOffset := due.Sub(start)
		if gotOffset != w.due {
			t.Errorf("step %d: due-time offset = %v, want %v", i, gotOffset, w.due)
		}
		if !sameRefSet(refs, w.refs...) {
			t.Errorf("step %d (due %v): due-set = %v, want %v", i, w.due, refs, w.refs)
		}
		d.Advance()
	}
}
