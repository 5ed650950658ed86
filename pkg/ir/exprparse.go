package ir

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lola-rv/monitor/pkg/value"
)

// parseExpr parses one expression in the compact call-form text language
// emitted alongside the rest of the module (see Load's doc comment in
// text.go):
// name(arg,arg,...) with no embedded whitespace. Nested calls are
// themselves valid args, so argument splitting must track paren depth.
func parseExpr(s string) (Expr, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("malformed expression %q", s)
	}
	name := s[:open]
	args := splitTopLevelArgs(s[open+1 : len(s)-1])

	switch name {
	case "const":
		if len(args) != 2 {
			return nil, fmt.Errorf("const wants 2 args, got %d", len(args))
		}
		t, err := parseTypeToken(args[0])
		if err != nil {
			return nil, err
		}
		v, err := parseLiteral(args[1], t)
		if err != nil {
			return nil, err
		}
		return LoadConstant{Value: v}, nil

	case "sync":
		if len(args) != 1 {
			return nil, fmt.Errorf("sync wants 1 arg")
		}
		r, err := parseStreamRef(args[0])
		if err != nil {
			return nil, err
		}
		return SyncStreamLookup{Target: r}, nil

	case "sh":
		if len(args) != 1 {
			return nil, fmt.Errorf("sh wants 1 arg")
		}
		r, err := parseStreamRef(args[0])
		if err != nil {
			return nil, err
		}
		return SampleAndHoldStreamLookup{Target: r}, nil

	case "offd":
		if len(args) != 2 {
			return nil, fmt.Errorf("offd wants 2 args")
		}
		r, err := parseStreamRef(args[0])
		if err != nil {
			return nil, err
		}
		k, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("offd offset: %w", err)
		}
		return OffsetLookup{Target: r, Kind: OffsetDiscrete, Discrete: k}, nil

	case "offt":
		if len(args) != 2 {
			return nil, fmt.Errorf("offt wants 2 args")
		}
		r, err := parseStreamRef(args[0])
		if err != nil {
			return nil, err
		}
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return nil, fmt.Errorf("offt duration: %w", err)
		}
		return OffsetLookup{Target: r, Kind: OffsetRealTime, Duration: d.Nanoseconds()}, nil

	case "win":
		if len(args) != 1 {
			return nil, fmt.Errorf("win wants 1 arg")
		}
		n, err := strconv.Atoi(strings.TrimPrefix(args[0], "w:"))
		if err != nil {
			return nil, fmt.Errorf("win ref: %w", err)
		}
		return WindowLookup{Window: WindowRef(n)}, nil

	case "ite":
		if len(args) != 3 {
			return nil, fmt.Errorf("ite wants 3 args")
		}
		cond, err := parseExpr(args[0])
		if err != nil {
			return nil, err
		}
		then, err := parseExpr(args[1])
		if err != nil {
			return nil, err
		}
		els, err := parseExpr(args[2])
		if err != nil {
			return nil, err
		}
		return Ite{Cond: cond, Then: then, Else: els}, nil

	case "tuple":
		elems := make([]Expr, len(args))
		for i, a := range args {
			e, err := parseExpr(a)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return TupleExpr{Elems: elems}, nil

	case "fn":
		if len(args) < 2 {
			return nil, fmt.Errorf("fn wants at least 2 args")
		}
		t, err := parseTypeToken(args[1])
		if err != nil {
			return nil, err
		}
		fnArgs := make([]Expr, len(args)-2)
		for i, a := range args[2:] {
			e, err := parseExpr(a)
			if err != nil {
				return nil, err
			}
			fnArgs[i] = e
		}
		return FunctionCall{Name: args[0], Args: fnArgs, Type: t}, nil

	case "conv":
		if len(args) != 3 {
			return nil, fmt.Errorf("conv wants 3 args")
		}
		from, err := parseTypeToken(args[0])
		if err != nil {
			return nil, err
		}
		to, err := parseTypeToken(args[1])
		if err != nil {
			return nil, err
		}
		inner, err := parseExpr(args[2])
		if err != nil {
			return nil, err
		}
		return ConvertExpr{From: from, To: to, Inner: inner}, nil

	case "default":
		if len(args) != 2 {
			return nil, fmt.Errorf("default wants 2 args")
		}
		inner, err := parseExpr(args[0])
		if err != nil {
			return nil, err
		}
		def, err := parseExpr(args[1])
		if err != nil {
			return nil, err
		}
		return DefaultExpr{Inner: inner, Default: def}, nil

	case "op":
		if len(args) < 2 {
			return nil, fmt.Errorf("op wants at least 2 args")
		}
		op, err := parseOpToken(args[0])
		if err != nil {
			return nil, err
		}
		t, err := parseTypeToken(args[1])
		if err != nil {
			return nil, err
		}
		opArgs := make([]Expr, len(args)-2)
		for i, a := range args[2:] {
			e, err := parseExpr(a)
			if err != nil {
				return nil, err
			}
			opArgs[i] = e
		}
		return ArithLog{Op: op, Args: opArgs, Type: t}, nil

	default:
		return nil, fmt.Errorf("unknown expression form %q", name)
	}
}

// splitTopLevelArgs splits a comma-separated argument list, ignoring commas
// nested inside parens so that e.g. "op(add,i32,sync(in:0),sync(in:1))"'s
// inner args aren't split prematurely.
func splitTopLevelArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, s[start:i])
				start = i + 1
			}
		}
	}
	args = append(args, s[start:])
	return args
}

func parseStreamRef(s string) (StreamRef, error) {
	switch {
	case strings.HasPrefix(s, "in:"):
		n, err := strconv.Atoi(s[3:])
		if err != nil {
			return StreamRef{}, fmt.Errorf("stream ref %q: %w", s, err)
		}
		return InputRef(n), nil
	case strings.HasPrefix(s, "out:"):
		n, err := strconv.Atoi(s[4:])
		if err != nil {
			return StreamRef{}, fmt.Errorf("stream ref %q: %w", s, err)
		}
		return OutputRef(n), nil
	default:
		return StreamRef{}, fmt.Errorf("malformed stream ref %q", s)
	}
}

func parseTypeToken(s string) (value.Type, error) {
	if strings.HasPrefix(s, "tuple(") && strings.HasSuffix(s, ")") {
		inner := splitTopLevelArgs(s[len("tuple(") : len(s)-1])
		elems := make([]value.Type, len(inner))
		for i, e := range inner {
			t, err := parseTypeToken(e)
			if err != nil {
				return value.Type{}, err
			}
			elems[i] = t
		}
		return value.TupleOf(elems...), nil
	}
	switch s {
	case "bool":
		return value.Bool(), nil
	case "u8":
		return value.UInt8(), nil
	case "u16":
		return value.UInt16(), nil
	case "u32":
		return value.UInt32(), nil
	case "u64":
		return value.UInt64(), nil
	case "i8":
		return value.Int8(), nil
	case "i16":
		return value.Int16(), nil
	case "i32":
		return value.Int32(), nil
	case "i64":
		return value.Int64(), nil
	case "f32":
		return value.Float32(), nil
	case "f64":
		return value.Float64(), nil
	case "string":
		return value.Str(), nil
	default:
		return value.Type{}, fmt.Errorf("unknown type token %q", s)
	}
}

func parseOpToken(s string) (value.Op, error) {
	switch s {
	case "add":
		return value.OpAdd, nil
	case "sub":
		return value.OpSub, nil
	case "mul":
		return value.OpMul, nil
	case "div":
		return value.OpDiv, nil
	case "mod":
		return value.OpMod, nil
	case "pow":
		return value.OpPow, nil
	case "neg":
		return value.OpNeg, nil
	case "not":
		return value.OpNot, nil
	case "and":
		return value.OpAnd, nil
	case "or":
		return value.OpOr, nil
	case "eq":
		return value.OpEq, nil
	case "ne":
		return value.OpNe, nil
	case "lt":
		return value.OpLt, nil
	case "le":
		return value.OpLe, nil
	case "gt":
		return value.OpGt, nil
	case "ge":
		return value.OpGe, nil
	default:
		return 0, fmt.Errorf("unknown operator token %q", s)
	}
}

// parseLiteral parses a const's literal token under its declared type.
// String literals are base64-encoded in the text format so that arbitrary
// text (including commas and parens) survives the call-form argument
// splitter unambiguously.
func parseLiteral(tok string, t value.Type) (value.Value, error) {
	if t.Kind == value.TString {
		raw, err := base64.StdEncoding.DecodeString(tok)
		if err != nil {
			return value.Value{}, fmt.Errorf("malformed base64 string literal: %w", err)
		}
		return value.Str(string(raw)), nil
	}
	v, ok := value.Parse(tok, t)
	if !ok {
		return value.Value{}, fmt.Errorf("malformed literal %q for type %s", tok, t)
	}
	return v, nil
}
