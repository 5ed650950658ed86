package value

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Op enumerates the operators the expression evaluator can apply to
// values, per spec.md §4.1/§4.3.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpNeg
	OpNot
	OpAnd
	OpOr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// Fault is returned for division by zero, NaN production, and (were it
// modeled) integer overflow, per spec.md's ArithmeticFault.
type Fault struct {
	Reason string
}

func (f *Fault) Error() string { return f.Reason }

func fault(format string, args ...interface{}) error {
	return &Fault{Reason: fmt.Sprintf(format, args...)}
}

// foldIntegers applies an integer-domain op generically so the two
// integer kinds (signed, unsigned) share one implementation instead of two
// hand-duplicated switches.
func foldIntegers[T constraints.Integer](op Op, a, b T) (T, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		if b == 0 {
			return 0, fault("division by zero")
		}
		return a / b, nil
	case OpMod:
		if b == 0 {
			return 0, fault("modulo by zero")
		}
		return a % b, nil
	case OpPow:
		return pow(a, b), nil
	default:
		return 0, fault("unsupported integer operator %d", op)
	}
}

func pow[T constraints.Integer](base, exp T) T {
	var result T = 1
	for exp > 0 {
		result *= base
		exp--
	}
	return result
}

// Binary applies a binary operator to two values of the same kind,
// returning an ArithmeticFault-style error on division by zero, modulo by
// zero, or NaN production. Mixing kinds is a type error the frontend must
// have already prevented (spec.md §3); Binary panics in that case rather
// than silently coercing, matching the original's `panic!("Incompatible
// types.")` in rtlola/src/storage/value.rs.
func Binary(op Op, a, b Value) (Value, error) {
	if a.kind != b.kind {
		panic(fmt.Sprintf("value: incompatible kinds in binary op: %v vs %v", a.kind, b.kind))
	}

	switch a.kind {
	case KindUnsigned:
		if r, ok := compareOp(op, a.u, b.u); ok {
			return r, nil
		}
		r, err := foldIntegers(op, a.u, b.u)
		if err != nil {
			return Value{}, err
		}
		return Unsigned(r), nil

	case KindSigned:
		if r, ok := compareOp(op, a.i, b.i); ok {
			return r, nil
		}
		r, err := foldIntegers(op, a.i, b.i)
		if err != nil {
			return Value{}, err
		}
		return Signed(r), nil

	case KindFloat:
		if r, ok := compareOp(op, a.f, b.f); ok {
			return r, nil
		}
		f, err := floatOp(op, a.f, b.f)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindFloat, f: f}, nil

	case KindBool:
		switch op {
		case OpAnd:
			return Bool(a.b && b.b), nil
		case OpOr:
			return Bool(a.b || b.b), nil
		case OpEq:
			return Bool(a.b == b.b), nil
		case OpNe:
			return Bool(a.b != b.b), nil
		default:
			return Value{}, fault("unsupported boolean operator %d", op)
		}

	case KindString:
		switch op {
		case OpEq:
			return Bool(a.s == b.s), nil
		case OpNe:
			return Bool(a.s != b.s), nil
		default:
			return Value{}, fault("unsupported string operator %d", op)
		}

	default:
		return Value{}, fault("unsupported kind for binary operator")
	}
}

func compareOp[T constraints.Ordered](op Op, a, b T) (Value, bool) {
	switch op {
	case OpEq:
		return Bool(a == b), true
	case OpNe:
		return Bool(a != b), true
	case OpLt:
		return Bool(a < b), true
	case OpLe:
		return Bool(a <= b), true
	case OpGt:
		return Bool(a > b), true
	case OpGe:
		return Bool(a >= b), true
	}
	return Value{}, false
}

func floatOp(op Op, a, b float64) (float64, error) {
	switch op {
	case OpAdd:
		return checkFloat(a + b)
	case OpSub:
		return checkFloat(a - b)
	case OpMul:
		return checkFloat(a * b)
	case OpDiv:
		return checkFloat(a / b)
	case OpMod:
		return checkFloat(math.Mod(a, b))
	case OpPow:
		return checkFloat(math.Pow(a, b))
	default:
		return 0, fault("unsupported float operator %d", op)
	}
}

// checkFloat rejects NaN (spec.md §4.1: "NaN in a Float is then rejected
// and surfaced as ArithmeticFault"); +/-Inf is allowed through, matching
// IEEE semantics the spec explicitly calls out ("produces IEEE
// infinity/NaN").
func checkFloat(f float64) (float64, error) {
	if math.IsNaN(f) {
		return 0, fault("floating point operation produced NaN")
	}
	return f, nil
}

// Unary applies a unary operator (negation, logical not) to a.
func Unary(op Op, a Value) (Value, error) {
	switch a.kind {
	case KindUnsigned:
		if op == OpNeg {
			return Value{}, fault("cannot negate an unsigned value")
		}
	case KindSigned:
		if op == OpNeg {
			return Signed(-a.i), nil
		}
	case KindFloat:
		if op == OpNeg {
			f, err := checkFloat(-a.f)
			if err != nil {
				return Value{}, err
			}
			return Value{kind: KindFloat, f: f}, nil
		}
	case KindBool:
		if op == OpNot {
			return Bool(!a.b), nil
		}
	}
	return Value{}, fault("unsupported unary operator %d for kind %d", op, a.kind)
}
