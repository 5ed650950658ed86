package coordinator_test

import (
	"strings"
	"testing"
	"time"

	"github.com/lola-rv/monitor/pkg/coordinator"
	"github.com/lola-rv/monitor/pkg/eval"
	"github.com/lola-rv/monitor/pkg/ir"
	"github.com/lola-rv/monitor/pkg/sink"
	"github.com/lola-rv/monitor/pkg/source"
	"github.com/lola-rv/monitor/pkg/value"
)

// memSource replays a fixed slice of records, implementing source.Source
// for tests that don't need a real CSV file.
type memSource struct {
	recs []source.Record
	i    int
}

func (m *memSource) Next() (source.Record, bool, error) {
	if m.i >= len(m.recs) {
		return source.Record{}, false, nil
	}
	r := m.recs[m.i]
	m.i++
	return r, true, nil
}

func (m *memSource) Close() error { return nil }

func rec(t float64, cells map[string]string) source.Record {
	sec := int64(t)
	nsec := int64((t - float64(sec)) * 1e9)
	return source.Record{Time: time.Unix(sec, nsec), HasTime: true, Cells: cells}
}

// additionModule mirrors spec.md §8's "add two integer streams" scenario:
// inputs a, b: Int32, output c := a + b, activated only when both arrive.
func additionModule() *ir.Module {
	mod := &ir.Module{
		Inputs: []*ir.InputStream{
			{Name: "a", Type: value.Int32(), Bound: ir.Bounded(1)},
			{Name: "b", Type: value.Int32(), Bound: ir.Bounded(1)},
		},
	}
	expr := ir.ArithLog{
		Op:   value.OpAdd,
		Type: value.Int32(),
		Args: []ir.Expr{
			ir.SyncStreamLookup{Target: ir.InputRef(0)},
			ir.SyncStreamLookup{Target: ir.InputRef(1)},
		},
	}
	mod.Outputs = []*ir.OutputStream{
		{
			Name:       "c",
			Type:       value.Int32(),
			Expr:       expr,
			InputDeps:  []ir.StreamRef{ir.InputRef(0), ir.InputRef(1)},
			Bound:      ir.Bounded(1),
			Layer:      0,
			Activation: []ir.StreamRef{ir.InputRef(0), ir.InputRef(1)},
			Ref:        ir.OutputRef(0),
		},
	}
	return mod
}

func TestActivationSkipsOutputWhenOnlyOneInputArrives(t *testing.T) {
	mod := additionModule()
	src := &memSource{recs: []source.Record{
		rec(1.0, map[string]string{"a": "3", "b": ""}), // only a arrives: c must not recompute
		rec(2.0, map[string]string{"a": "", "b": "4"}),
		rec(3.0, map[string]string{"a": "5", "b": "6"}), // both arrive: c = 11
	}}
	var out strings.Builder
	co := coordinator.New(coordinator.Config{
		Module:    mod,
		Source:    src,
		Sink:      sink.New(&out, sink.Debug),
		Evaluator: eval.NewInterpreter(mod),
		ClockMode: coordinator.Offline,
	})
	if err := co.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func triggerModule() *ir.Module {
	mod := &ir.Module{
		Inputs: []*ir.InputStream{
			{Name: "x", Type: value.Int32(), Bound: ir.Bounded(1)},
		},
	}
	expr := ir.ArithLog{
		Op:   value.OpGt,
		Type: value.Bool(),
		Args: []ir.Expr{
			ir.SyncStreamLookup{Target: ir.InputRef(0)},
			ir.LoadConstant{Value: value.Signed(10)},
		},
	}
	mod.Outputs = []*ir.OutputStream{
		{
			Name:       "over",
			Type:       value.Bool(),
			Expr:       expr,
			InputDeps:  []ir.StreamRef{ir.InputRef(0)},
			Bound:      ir.Bounded(1),
			Layer:      0,
			Activation: []ir.StreamRef{ir.InputRef(0)},
			Ref:        ir.OutputRef(0),
		},
	}
	mod.Triggers = []ir.Trigger{{Ref: ir.OutputRef(0)}}
	return mod
}

func TestTriggerFiresOnlyWhenConditionIsTrue(t *testing.T) {
	mod := triggerModule()
	src := &memSource{recs: []source.Record{
		rec(1.0, map[string]string{"x": "5"}),
		rec(2.0, map[string]string{"x": "20"}),
	}}
	var out strings.Builder
	co := coordinator.New(coordinator.Config{
		Module:    mod,
		Source:    src,
		Sink:      sink.New(&out, sink.Triggers),
		Evaluator: eval.NewInterpreter(mod),
		ClockMode: coordinator.Offline,
	})
	if err := co.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := out.String()
	if strings.Count(got, "trigger over fired") != 1 {
		t.Errorf("expected exactly one trigger message, got %q", got)
	}
}

func TestClockMonotonicityViolationIsFatal(t *testing.T) {
	mod := additionModule()
	src := &memSource{recs: []source.Record{
		rec(5.0, map[string]string{"a": "1", "b": "2"}),
		rec(1.0, map[string]string{"a": "3", "b": "4"}), // time goes backwards
	}}
	var out strings.Builder
	co := coordinator.New(coordinator.Config{
		Module:    mod,
		Source:    src,
		Sink:      sink.New(&out, sink.Debug),
		Evaluator: eval.NewInterpreter(mod),
		ClockMode: coordinator.Offline,
	})
	err := co.Run()
	if err == nil {
		t.Fatalf("expected a ClockMonotonicityViolation, got nil")
	}
}

func TestLenientModeDropsUnparsableCellsInsteadOfFailing(t *testing.T) {
	mod := additionModule()
	src := &memSource{recs: []source.Record{
		rec(1.0, map[string]string{"a": "not-a-number", "b": "4"}),
	}}
	var out strings.Builder
	co := coordinator.New(coordinator.Config{
		Module:    mod,
		Source:    src,
		Sink:      sink.New(&out, sink.Debug),
		Evaluator: eval.NewInterpreter(mod),
		ClockMode: coordinator.Offline,
		InputMode: coordinator.Lenient,
	})
	if err := co.Run(); err != nil {
		t.Fatalf("Run: %v, want nil under lenient mode", err)
	}
}

func TestStrictModeFailsOnUnparsableCell(t *testing.T) {
	mod := additionModule()
	src := &memSource{recs: []source.Record{
		rec(1.0, map[string]string{"a": "not-a-number", "b": "4"}),
	}}
	var out strings.Builder
	co := coordinator.New(coordinator.Config{
		Module:    mod,
		Source:    src,
		Sink:      sink.New(&out, sink.Debug),
		Evaluator: eval.NewInterpreter(mod),
		ClockMode: coordinator.Offline,
		InputMode: coordinator.Strict,
	})
	if err := co.Run(); err == nil {
		t.Fatalf("expected an InputParseError under strict mode")
	}
}
