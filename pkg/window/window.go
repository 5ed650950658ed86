// Package window implements sliding-window aggregation over a bucketed
// deque, per spec.md §4.2/§9: a fixed small number of buckets (K, default
// 64) covering the window duration, each write folded into the current
// bucket, each query evicting expired buckets before returning the
// accumulated result. The bucketed representation is an implementation
// choice the spec explicitly permits; only the observable aggregate must
// match the exact mathematical definition.
package window

import (
	"time"

	"github.com/lola-rv/monitor/pkg/ir"
	"github.com/lola-rv/monitor/pkg/value"
)

// DefaultBuckets is K from spec.md §9: a fixed small number of sub-interval
// buckets reserved once per window.
const DefaultBuckets = 64

type bucket struct {
	start    time.Time
	sum      float64
	count    int64
	product  float64
	zeroes   int64
	lastTime time.Time
	lastVal  float64
	haveLast bool
}

// Accumulator maintains the incremental state for one SlidingWindow
// descriptor. It is keyed by window reference and updated on every write
// to the window's target stream.
type Accumulator struct {
	win      *ir.SlidingWindow
	buckets  []bucket
	width    time.Duration // duration / K
	head     int           // index of the most recent bucket
	filled   int           // how many buckets currently hold data
	lastTime time.Time
	lastVal  float64
	haveLast bool
}

// NewAccumulator reserves K+1 buckets once, per spec.md §5 ("Sliding-window
// accumulators reserve K+1 buckets once").
func NewAccumulator(win *ir.SlidingWindow) *Accumulator {
	k := DefaultBuckets
	return &Accumulator{
		win:     win,
		buckets: make([]bucket, k+1),
		width:   win.Duration / time.Duration(k),
	}
}

func (a *Accumulator) bucketAt(i int) *bucket {
	return &a.buckets[((a.head+i)%len(a.buckets)+len(a.buckets))%len(a.buckets)]
}

// Write folds v, observed at wall/event time t, into the current bucket.
func (a *Accumulator) Write(t time.Time, v value.Value) {
	f := numeric(v)

	if a.filled == 0 {
		a.buckets[a.head] = bucket{start: t}
	} else {
		cur := a.bucketAt(0)
		if t.Sub(cur.start) >= a.width {
			a.advance(t)
		}
	}
	cur := a.bucketAt(0)
	cur.sum += f
	cur.count++
	if f == 0 {
		cur.zeroes++
	} else {
		if cur.product == 0 && cur.count-cur.zeroes == 1 {
			cur.product = f
		} else {
			cur.product *= f
		}
	}
	cur.lastTime = t
	cur.lastVal = f
	cur.haveLast = true

	if a.filled == 0 {
		a.filled = 1
	}
	a.lastTime = t
	a.lastVal = f
	a.haveLast = true
}

// advance opens a fresh current bucket starting at t, shifting head back by
// one slot (wrapping through the reserved K+1 ring) and growing filled up
// to its cap.
func (a *Accumulator) advance(t time.Time) {
	a.head = (a.head - 1 + len(a.buckets)) % len(a.buckets)
	a.buckets[a.head] = bucket{start: t}
	if a.filled < len(a.buckets) {
		a.filled++
	}
}

// Query evicts buckets older than the window duration relative to `now`
// and returns the aggregated value over what remains.
func (a *Accumulator) Query(now time.Time) value.Value {
	cutoff := now.Add(-a.win.Duration)

	var sum, product float64
	var count int64
	var zeroes int64
	haveProduct := false
	var integral float64
	var prevT time.Time
	var prevV float64
	havePrev := false

	for i := a.filled - 1; i >= 0; i-- {
		b := a.bucketAt(i)
		if !b.haveLast || b.lastTime.Before(cutoff) {
			continue
		}
		sum += b.sum
		count += b.count
		zeroes += b.zeroes
		if b.count-b.zeroes > 0 {
			if !haveProduct {
				product = b.product
				haveProduct = true
			} else {
				product *= b.product
			}
		}
		if havePrev {
			dt := b.lastTime.Sub(prevT).Seconds()
			integral += (prevV + b.lastVal) / 2 * dt
		}
		prevT, prevV, havePrev = b.lastTime, b.lastVal, true
	}

	switch a.win.Op {
	case ir.WinSum:
		return floatResult(sum, a.win.ElemType)
	case ir.WinCount:
		return value.Unsigned(uint64(count))
	case ir.WinProduct:
		if zeroes > 0 {
			return floatResult(0, a.win.ElemType)
		}
		return floatResult(product, a.win.ElemType)
	case ir.WinAverage:
		if count == 0 {
			return floatResult(0, a.win.ElemType)
		}
		return floatResult(sum/float64(count), a.win.ElemType)
	case ir.WinIntegral:
		return floatResult(integral, a.win.ElemType)
	default:
		return floatResult(0, a.win.ElemType)
	}
}

func numeric(v value.Value) float64 {
	if f, ok := v.AsFloat(); ok {
		return f
	}
	if u, ok := v.AsUnsigned(); ok {
		return float64(u)
	}
	if i, ok := v.AsSigned(); ok {
		return float64(i)
	}
	if b, ok := v.AsBool(); ok {
		if b {
			return 1
		}
		return 0
	}
	return 0
}

func floatResult(f float64, elem value.Type) value.Value {
	switch {
	case elem.IsFloat():
		v, ok := value.Float(f)
		if !ok {
			return value.Value{}
		}
		return v
	case elem.IsSigned():
		return value.Signed(int64(f))
	case elem.IsUnsigned():
		if f < 0 {
			f = 0
		}
		return value.Unsigned(uint64(f))
	default:
		v, _ := value.Float(f)
		return v
	}
}

// Manager owns one Accumulator per window descriptor in a module.
type Manager struct {
	accs   []*Accumulator
	byTgt  map[ir.StreamRef][]*Accumulator
}

// NewManager builds one Accumulator per window, indexed both by position
// in mod.Windows (the WindowRef) and by target stream so the coordinator can fan a single stream write
// out to every window that observes it.
func NewManager(mod *ir.Module) *Manager {
	m := &Manager{
		accs:  make([]*Accumulator, len(mod.Windows)),
		byTgt: make(map[ir.StreamRef][]*Accumulator),
	}
	for i, w := range mod.Windows {
		acc := NewAccumulator(w)
		m.accs[i] = acc
		m.byTgt[w.Target] = append(m.byTgt[w.Target], acc)
	}
	return m
}

// Observe folds v into every window accumulator targeting ref.
func (m *Manager) Observe(ref ir.StreamRef, t time.Time, v value.Value) {
	for _, acc := range m.byTgt[ref] {
		acc.Write(t, v)
	}
}

// Query resolves a WindowRef to its current aggregated value at time now.
func (m *Manager) Query(w ir.WindowRef, now time.Time) value.Value {
	return m.accs[w].Query(now)
}
