package value

import "strconv"

// Parse constructs a Value from a textual token given its declared type,
// per spec.md §4.1. It returns ok=false on a malformed token. Parse never
// special-cases the empty string: spec.md treats an empty cell as "no
// value this tick," a decision the caller (the event source / coordinator)
// makes before ever calling Parse, not Parse itself.
func Parse(text string, t Type) (Value, bool) {
	switch t.Kind {
	case TBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, false
		}
		return Bool(b), true

	case TUInt8, TUInt16, TUInt32, TUInt64:
		u, err := strconv.ParseUint(text, 10, t.BitWidth())
		if err != nil {
			return Value{}, false
		}
		return Unsigned(u), true

	case TInt8, TInt16, TInt32, TInt64:
		i, err := strconv.ParseInt(text, 10, t.BitWidth())
		if err != nil {
			return Value{}, false
		}
		return Signed(i), true

	case TFloat32, TFloat64:
		f, err := strconv.ParseFloat(text, t.BitWidth())
		if err != nil {
			return Value{}, false
		}
		return Float(f)

	case TString:
		return Str(text), true

	default:
		return Value{}, false
	}
}
