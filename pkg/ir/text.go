package ir

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Load parses the line-oriented, directive-prefixed IR text format into a
// Module. Source-text parsing and semantic analysis are out of scope
// (spec.md §1); this is the format the upstream frontend emits once it
// has already resolved names to stream indices, computed memorization
// bounds, and assigned evaluation layers. The grammar, one directive per
// line, fields separated by whitespace:
//
//	.input  name type bound
//	.output name type layer bound activation expr
//	.timedriven ref rate
//	.window id target duration op elemtype
//	.trigger ref
//
// bound is "unbounded" or "bounded:N"; activation is "-" or a comma list of
// stream refs with no embedded whitespace ("in:0,in:1"); expr is the
// call-form expression language of exprparse.go, also whitespace-free so a
// single field holds an entire expression tree. Comments start with "//" or
// ";"; blank lines are ignored.
func Load(text string) (*Module, error) {
	p := &textParser{
		scanner: bufio.NewScanner(strings.NewReader(text)),
		mod:     &Module{},
	}
	return p.parse()
}

type textParser struct {
	scanner *bufio.Scanner
	mod     *Module
	line    int
}

func (p *textParser) parse() (*Module, error) {
	for p.scanner.Scan() {
		p.line++
		line := strings.TrimSpace(p.scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, ";") {
			continue
		}
		if err := p.parseLine(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}
	}
	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	if err := p.resolve(); err != nil {
		return nil, err
	}
	return p.mod, nil
}

func (p *textParser) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case ".input":
		return p.parseInput(fields)
	case ".output":
		return p.parseOutput(fields)
	case ".timedriven":
		return p.parseTimeDriven(fields)
	case ".window":
		return p.parseWindow(fields)
	case ".trigger":
		return p.parseTrigger(fields)
	default:
		return fmt.Errorf("unknown directive %q", fields[0])
	}
}

func (p *textParser) parseInput(fields []string) error {
	if len(fields) != 4 {
		return fmt.Errorf(".input wants 3 args, got %d", len(fields)-1)
	}
	t, err := parseTypeToken(fields[2])
	if err != nil {
		return err
	}
	bound, err := parseBound(fields[3])
	if err != nil {
		return err
	}
	p.mod.Inputs = append(p.mod.Inputs, &InputStream{
		Name:  fields[1],
		Type:  t,
		Bound: bound,
	})
	return nil
}

func (p *textParser) parseOutput(fields []string) error {
	if len(fields) != 7 {
		return fmt.Errorf(".output wants 6 args, got %d", len(fields)-1)
	}
	t, err := parseTypeToken(fields[2])
	if err != nil {
		return err
	}
	layer, err := strconv.Atoi(fields[3])
	if err != nil {
		return fmt.Errorf("layer: %w", err)
	}
	bound, err := parseBound(fields[4])
	if err != nil {
		return err
	}
	var activation []StreamRef
	if fields[5] != "-" {
		for _, tok := range strings.Split(fields[5], ",") {
			ref, err := parseStreamRef(tok)
			if err != nil {
				return fmt.Errorf("activation: %w", err)
			}
			activation = append(activation, ref)
		}
	}
	expr, err := parseExpr(fields[6])
	if err != nil {
		return fmt.Errorf("expr: %w", err)
	}

	out := &OutputStream{
		Name:       fields[1],
		Type:       t,
		Expr:       expr,
		Bound:      bound,
		Layer:      layer,
		Activation: activation,
		Ref:        OutputRef(len(p.mod.Outputs)),
	}
	out.InputDeps, out.Offsets = collectDeps(expr)
	p.mod.Outputs = append(p.mod.Outputs, out)
	return nil
}

func (p *textParser) parseTimeDriven(fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf(".timedriven wants 2 args, got %d", len(fields)-1)
	}
	ref, err := parseStreamRef(fields[1])
	if err != nil {
		return err
	}
	rate, err := time.ParseDuration(fields[2])
	if err != nil {
		return fmt.Errorf("rate: %w", err)
	}
	if rate <= 0 {
		return fmt.Errorf("rate must be positive, got %s", rate)
	}
	p.mod.TimeDriven = append(p.mod.TimeDriven, TimeDrivenStream{Ref: ref, Rate: rate})
	return nil
}

func (p *textParser) parseWindow(fields []string) error {
	if len(fields) != 6 {
		return fmt.Errorf(".window wants 5 args, got %d", len(fields)-1)
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("window id: %w", err)
	}
	target, err := parseStreamRef(fields[2])
	if err != nil {
		return err
	}
	dur, err := time.ParseDuration(fields[3])
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	op, err := parseWindowOp(fields[4])
	if err != nil {
		return err
	}
	elem, err := parseTypeToken(fields[5])
	if err != nil {
		return err
	}
	p.mod.Windows = append(p.mod.Windows, &SlidingWindow{
		ID:       id,
		Target:   target,
		Duration: dur,
		Op:       op,
		ElemType: elem,
	})
	return nil
}

func (p *textParser) parseTrigger(fields []string) error {
	if len(fields) != 2 {
		return fmt.Errorf(".trigger wants 1 arg, got %d", len(fields)-1)
	}
	ref, err := parseStreamRef(fields[1])
	if err != nil {
		return err
	}
	p.mod.Triggers = append(p.mod.Triggers, Trigger{Ref: ref})
	return nil
}

// resolve performs the cross-reference validation spec.md §7's
// SpecLoadError covers: every stream reference (output dependencies,
// activations, time-driven refs, window targets, triggers) must land in
// Inputs/Outputs. Window references inside output expressions are not
// checked against Windows.
func (p *textParser) resolve() error {
	checkRef := func(ref StreamRef) error {
		if ref.IsInput() {
			if ref.Index < 0 || ref.Index >= len(p.mod.Inputs) {
				return fmt.Errorf("reference to unknown input %s", ref)
			}
		} else {
			if ref.Index < 0 || ref.Index >= len(p.mod.Outputs) {
				return fmt.Errorf("reference to unknown output %s", ref)
			}
		}
		return nil
	}
	for _, o := range p.mod.Outputs {
		for _, dep := range o.InputDeps {
			if err := checkRef(dep); err != nil {
				return err
			}
		}
		for _, a := range o.Activation {
			if err := checkRef(a); err != nil {
				return err
			}
		}
	}
	for _, td := range p.mod.TimeDriven {
		if err := checkRef(td.Ref); err != nil {
			return err
		}
	}
	for _, w := range p.mod.Windows {
		if err := checkRef(w.Target); err != nil {
			return err
		}
	}
	for _, tr := range p.mod.Triggers {
		if err := checkRef(tr.Ref); err != nil {
			return err
		}
	}
	return nil
}

func parseBound(s string) (MemorizationBound, error) {
	if s == "unbounded" {
		return Unbounded(), nil
	}
	if strings.HasPrefix(s, "bounded:") {
		n, err := strconv.Atoi(s[len("bounded:"):])
		if err != nil || n < 1 {
			return MemorizationBound{}, fmt.Errorf("malformed bound %q", s)
		}
		return Bounded(n), nil
	}
	return MemorizationBound{}, fmt.Errorf("malformed bound %q", s)
}

func parseWindowOp(s string) (WindowOp, error) {
	switch s {
	case "sum":
		return WinSum, nil
	case "product":
		return WinProduct, nil
	case "average":
		return WinAverage, nil
	case "count":
		return WinCount, nil
	case "integral":
		return WinIntegral, nil
	default:
		return 0, fmt.Errorf("unknown window operation %q", s)
	}
}

// collectDeps walks an expression tree and gathers every referenced
// stream along with the discrete offsets at which it is accessed, per
// spec.md §3's OutputStream "ordered list of input dependencies, outgoing
// offsets". A SyncStreamLookup or sample-and-hold is recorded at offset 0.
func collectDeps(e Expr) ([]StreamRef, []int) {
	var deps []StreamRef
	var offsets []int
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case LoadConstant:
		case ArithLog:
			for _, a := range n.Args {
				walk(a)
			}
		case OffsetLookup:
			deps = append(deps, n.Target)
			if n.Kind == OffsetDiscrete {
				offsets = append(offsets, n.Discrete)
			} else {
				offsets = append(offsets, 0)
			}
		case SampleAndHoldStreamLookup:
			deps = append(deps, n.Target)
			offsets = append(offsets, 0)
		case SyncStreamLookup:
			deps = append(deps, n.Target)
			offsets = append(offsets, 0)
		case WindowLookup:
		case Ite:
			walk(n.Cond)
			walk(n.Then)
			walk(n.Else)
		case TupleExpr:
			for _, el := range n.Elems {
				walk(el)
			}
		case FunctionCall:
			for _, a := range n.Args {
				walk(a)
			}
		case ConvertExpr:
			walk(n.Inner)
		case DefaultExpr:
			walk(n.Inner)
			walk(n.Default)
		}
	}
	walk(e)
	return deps, offsets
}
