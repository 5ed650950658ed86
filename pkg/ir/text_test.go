package ir

import "testing"

const sampleModule = `
// two inputs, one derived sum, one trigger
.input a i32 unbounded
.input b i32 unbounded
.output c i32 0 unbounded in:0,in:1 op(add,i32,sync(in:0),sync(in:1))
.output trig bool 1 unbounded out:0 op(gt,bool,sync(out:0),const(i32,2))
.trigger out:1
`

func TestLoadParsesStreamsAndExpr(t *testing.T) {
	mod, err := Load(sampleModule)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(mod.Inputs) != 2 {
		t.Fatalf("want 2 inputs, got %d", len(mod.Inputs))
	}
	if len(mod.Outputs) != 2 {
		t.Fatalf("want 2 outputs, got %d", len(mod.Outputs))
	}
	if len(mod.Triggers) != 1 {
		t.Fatalf("want 1 trigger, got %d", len(mod.Triggers))
	}

	c := mod.Outputs[0]
	if c.Name != "c" {
		t.Errorf("got name %q, want c", c.Name)
	}
	if _, ok := c.Expr.(ArithLog); !ok {
		t.Fatalf("expected c's expression to be ArithLog, got %T", c.Expr)
	}
	if len(c.InputDeps) != 2 {
		t.Errorf("want 2 collected deps, got %d", len(c.InputDeps))
	}
}

func TestLoadRejectsUnknownReference(t *testing.T) {
	_, err := Load(".trigger out:5\n")
	if err == nil {
		t.Fatalf("expected error referencing unknown output")
	}
}

func TestLoadRejectsMalformedBound(t *testing.T) {
	_, err := Load(".input a i32 bogus\n")
	if err == nil {
		t.Fatalf("expected error on malformed bound")
	}
}

func TestParseExprWindowAndDefault(t *testing.T) {
	e, err := parseExpr("default(offd(in:0,3),win(w:0))")
	if err != nil {
		t.Fatalf("parseExpr failed: %v", err)
	}
	def, ok := e.(DefaultExpr)
	if !ok {
		t.Fatalf("expected DefaultExpr, got %T", e)
	}
	off, ok := def.Inner.(OffsetLookup)
	if !ok {
		t.Fatalf("expected inner OffsetLookup, got %T", def.Inner)
	}
	if off.Discrete != 3 {
		t.Errorf("got discrete offset %d, want 3", off.Discrete)
	}
	if _, ok := def.Default.(WindowLookup); !ok {
		t.Fatalf("expected default branch to be WindowLookup, got %T", def.Default)
	}
}

func TestSplitTopLevelArgsHandlesNesting(t *testing.T) {
	got := splitTopLevelArgs("add,i32,sync(in:0),tuple(sync(in:0),sync(in:1))")
	want := []string{"add", "i32", "sync(in:0)", "tuple(sync(in:0),sync(in:1))"}
	if len(got) != len(want) {
		t.Fatalf("got %d args, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
