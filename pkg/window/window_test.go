package window

import (
	"testing"
	"time"

	"github.com/lola-rv/monitor/pkg/ir"
	"github.com/lola-rv/monitor/pkg/value"
)

func TestSumOverWindow(t *testing.T) {
	w := &ir.SlidingWindow{Duration: 10 * time.Second, Op: ir.WinSum, ElemType: value.Int64()}
	acc := NewAccumulator(w)
	base := time.Unix(0, 0)
	acc.Write(base, value.Signed(1))
	acc.Write(base.Add(1*time.Second), value.Signed(2))
	acc.Write(base.Add(2*time.Second), value.Signed(3))

	got := acc.Query(base.Add(2 * time.Second))
	sum, _ := got.AsSigned()
	if sum != 6 {
		t.Errorf("got sum %d, want 6", sum)
	}
}

func TestCountOverWindow(t *testing.T) {
	w := &ir.SlidingWindow{Duration: 5 * time.Second, Op: ir.WinCount, ElemType: value.UInt64()}
	acc := NewAccumulator(w)
	base := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		acc.Write(base.Add(time.Duration(i)*time.Second), value.Signed(int64(i)))
	}
	got := acc.Query(base.Add(4 * time.Second))
	count, _ := got.AsUnsigned()
	if count != 5 {
		t.Errorf("got count %d, want 5", count)
	}
}

func TestExpiredSamplesAreEvicted(t *testing.T) {
	w := &ir.SlidingWindow{Duration: 3 * time.Second, Op: ir.WinSum, ElemType: value.Int64()}
	acc := NewAccumulator(w)
	base := time.Unix(0, 0)
	acc.Write(base, value.Signed(100))
	// Advance well beyond the window; the old sample must no longer count.
	acc.Write(base.Add(20*time.Second), value.Signed(1))

	got := acc.Query(base.Add(20 * time.Second))
	sum, _ := got.AsSigned()
	if sum != 1 {
		t.Errorf("got sum %d, want 1 (the stale sample should have been evicted)", sum)
	}
}

func TestAverageOverWindow(t *testing.T) {
	w := &ir.SlidingWindow{Duration: 10 * time.Second, Op: ir.WinAverage, ElemType: value.Float64()}
	acc := NewAccumulator(w)
	base := time.Unix(0, 0)
	acc.Write(base, value.Signed(2))
	acc.Write(base.Add(1*time.Second), value.Signed(4))
	got := acc.Query(base.Add(1 * time.Second))
	avg, _ := got.AsFloat()
	if avg != 3 {
		t.Errorf("got average %v, want 3", avg)
	}
}

func TestManagerFansOutToAllWindowsOnTarget(t *testing.T) {
	mod := &ir.Module{
		Outputs: []*ir.OutputStream{{Name: "x"}},
		Windows: []*ir.SlidingWindow{
			{ID: 0, Target: ir.OutputRef(0), Duration: 10 * time.Second, Op: ir.WinSum, ElemType: value.Int64()},
			{ID: 1, Target: ir.OutputRef(0), Duration: 10 * time.Second, Op: ir.WinCount, ElemType: value.UInt64()},
		},
	}
	m := NewManager(mod)
	base := time.Unix(0, 0)
	m.Observe(ir.OutputRef(0), base, value.Signed(5))
	m.Observe(ir.OutputRef(0), base.Add(time.Second), value.Signed(7))

	sum := m.Query(0, base.Add(time.Second))
	count := m.Query(1, base.Add(time.Second))
	s, _ := sum.AsSigned()
	c, _ := count.AsUnsigned()
	if s != 12 {
		t.Errorf("got sum %d, want 12", s)
	}
	if c != 2 {
		t.Errorf("got count %d, want 2", c)
	}
}
