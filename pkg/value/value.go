package value

import "strconv"

// Kind tags which field of Value is live.
type Kind uint8

const (
	KindUnsigned Kind = iota
	KindSigned
	KindFloat
	KindBool
	KindString
	KindTuple
)

// Value is the tagged runtime value described in spec.md §3: a union over
// unsigned/signed integers, a NaN-free float, a bool, a string, or an
// ordered tuple of values. Native widths are uint64/int64 rather than the
// spec's u128/i128 (see DESIGN.md for why).
type Value struct {
	kind Kind
	u    uint64
	i    int64
	f    float64
	b    bool
	s    string
	tup  []Value
}

func Unsigned(u uint64) Value { return Value{kind: KindUnsigned, u: u} }
func Signed(i int64) Value    { return Value{kind: KindSigned, i: i} }
func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func Str(s string) Value      { return Value{kind: KindString, s: s} }
func Tuple(vs []Value) Value  { return Value{kind: KindTuple, tup: vs} }

// Float constructs a Float value, rejecting NaN per spec.md §3's invariant.
func Float(f float64) (Value, bool) {
	if f != f { // NaN
		return Value{}, false
	}
	return Value{kind: KindFloat, f: f}, true
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsUnsigned() (uint64, bool) {
	if v.kind != KindUnsigned {
		return 0, false
	}
	return v.u, true
}

func (v Value) AsSigned() (int64, bool) {
	if v.kind != KindSigned {
		return 0, false
	}
	return v.i, true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) AsTuple() ([]Value, bool) {
	if v.kind != KindTuple {
		return nil, false
	}
	return v.tup, true
}

func (v Value) String() string {
	switch v.kind {
	case KindUnsigned:
		return strconv.FormatUint(v.u, 10)
	case KindSigned:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindString:
		return v.s
	case KindTuple:
		out := "("
		for i, e := range v.tup {
			if i > 0 {
				out += ", "
			}
			out += e.String()
		}
		return out + ")"
	default:
		return "<invalid>"
	}
}
