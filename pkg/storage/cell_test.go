package storage

import (
	"testing"
	"time"

	"github.com/lola-rv/monitor/pkg/ir"
	"github.com/lola-rv/monitor/pkg/value"
)

// TestReadOffsetBoundedCapacity exercises P5: after writing v0..vn to a
// stream with capacity c, read_offset(k) returns v(n-k) for 0<=k<min(n+1,c),
// and None otherwise.
func TestReadOffsetBoundedCapacity(t *testing.T) {
	c := NewCell(ir.Bounded(3))
	base := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		c.Write(int64(i), base.Add(time.Duration(i)*time.Second), value.Signed(int64(i)))
	}
	// n=4 (0-indexed last write), capacity=3: k in [0,3) valid.
	tests := []struct {
		k    int
		want int64
		ok   bool
	}{
		{0, 4, true},
		{1, 3, true},
		{2, 2, true},
		{3, 0, false},
		{-1, 0, false},
	}
	for _, tt := range tests {
		v, ok := c.ReadOffset(tt.k)
		if ok != tt.ok {
			t.Fatalf("ReadOffset(%d): ok=%v, want %v", tt.k, ok, tt.ok)
		}
		if ok {
			got, _ := v.AsSigned()
			if got != tt.want {
				t.Errorf("ReadOffset(%d): got %d, want %d", tt.k, got, tt.want)
			}
		}
	}
}

func TestReadOffsetUnboundedRetainsAll(t *testing.T) {
	c := NewCell(ir.Unbounded())
	base := time.Unix(0, 0)
	for i := 0; i < 10; i++ {
		c.Write(int64(i), base, value.Signed(int64(i)))
	}
	v, ok := c.ReadOffset(9)
	if !ok {
		t.Fatalf("ReadOffset(9) should be available in an unbounded cell")
	}
	if got, _ := v.AsSigned(); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestReadSyncOnlyMatchesLatestTick(t *testing.T) {
	c := NewCell(ir.Bounded(2))
	c.Write(5, time.Unix(0, 0), value.Signed(42))
	if _, ok := c.ReadSync(4); ok {
		t.Errorf("ReadSync(4) should miss: latest write was at tick 5")
	}
	if v, ok := c.ReadSync(5); !ok {
		t.Errorf("ReadSync(5) should hit")
	} else if got, _ := v.AsSigned(); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestSampleAndHoldNeverWritten(t *testing.T) {
	c := NewCell(ir.Bounded(1))
	if _, ok := c.SampleAndHold(); ok {
		t.Errorf("SampleAndHold on an untouched cell should miss")
	}
}

func TestSampleAndHoldAtTime(t *testing.T) {
	c := NewCell(ir.Bounded(4))
	base := time.Unix(100, 0)
	c.Write(0, base, value.Signed(1))
	c.Write(1, base.Add(10*time.Second), value.Signed(2))
	c.Write(2, base.Add(20*time.Second), value.Signed(3))

	v, ok := c.SampleAndHoldAt(base.Add(15 * time.Second))
	if !ok {
		t.Fatalf("expected a value at or before t=115s")
	}
	if got, _ := v.AsSigned(); got != 2 {
		t.Errorf("got %d, want 2 (value held from t=110s)", got)
	}

	if _, ok := c.SampleAndHoldAt(base.Add(-1 * time.Second)); ok {
		t.Errorf("expected no value before the first write")
	}
}

func TestManagerAllocatesPerStream(t *testing.T) {
	mod := &ir.Module{
		Inputs: []*ir.InputStream{
			{Name: "a", Bound: ir.Bounded(2)},
		},
		Outputs: []*ir.OutputStream{
			{Name: "b", Bound: ir.Unbounded()},
		},
	}
	m := NewManager(mod)
	in := m.Cell(ir.InputRef(0))
	out := m.Cell(ir.OutputRef(0))
	if in == out {
		t.Fatalf("input and output cells must be distinct allocations")
	}
	in.Write(0, time.Unix(0, 0), value.Bool(true))
	if _, ok := out.SampleAndHold(); ok {
		t.Errorf("writing to the input cell should not affect the output cell")
	}
}
