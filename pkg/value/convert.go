package value

// Convert applies the conversion rules of spec.md §4.1: widening is exact,
// float-to-integer narrowing truncates toward zero, and signed/unsigned
// conversion reinterprets via two's complement modulo 2^N at the target
// bit width.
func Convert(v Value, to Type) (Value, error) {
	switch {
	case to.IsUnsigned():
		return toUnsigned(v, to)
	case to.IsSigned():
		return toSigned(v, to)
	case to.IsFloat():
		return toFloat(v, to)
	case to.Kind == TBool:
		if b, ok := v.AsBool(); ok {
			return Bool(b), nil
		}
		return Value{}, fault("cannot convert to Bool")
	case to.Kind == TString:
		return Str(v.String()), nil
	default:
		return Value{}, fault("unsupported conversion target %s", to)
	}
}

func maskTo(width int, u uint64) uint64 {
	if width >= 64 {
		return u
	}
	return u & ((uint64(1) << uint(width)) - 1)
}

func toUnsigned(v Value, to Type) (Value, error) {
	width := to.BitWidth()
	switch v.kind {
	case KindUnsigned:
		return Unsigned(maskTo(width, v.u)), nil
	case KindSigned:
		// Signed -> unsigned reinterprets via two's complement modulo 2^N.
		return Unsigned(maskTo(width, uint64(v.i))), nil
	case KindFloat:
		if v.f < 0 {
			return Value{}, fault("cannot convert negative float %v to an unsigned type", v.f)
		}
		return Unsigned(maskTo(width, uint64(v.f))), nil
	default:
		return Value{}, fault("cannot convert kind %d to unsigned", v.kind)
	}
}

func toSigned(v Value, to Type) (Value, error) {
	width := to.BitWidth()
	switch v.kind {
	case KindSigned:
		return Signed(signExtend(maskTo(width, uint64(v.i)), width)), nil
	case KindUnsigned:
		return Signed(signExtend(maskTo(width, v.u), width)), nil
	case KindFloat:
		return Signed(signExtend(maskTo(width, uint64(int64(v.f))), width)), nil
	default:
		return Value{}, fault("cannot convert kind %d to signed", v.kind)
	}
}

// signExtend interprets the low `width` bits of u as a two's complement
// signed integer of that width, widened to int64.
func signExtend(u uint64, width int) int64 {
	if width >= 64 {
		return int64(u)
	}
	signBit := uint64(1) << uint(width-1)
	if u&signBit != 0 {
		return int64(u) - int64(uint64(1)<<uint(width))
	}
	return int64(u)
}

func toFloat(v Value, to Type) (Value, error) {
	var f float64
	switch v.kind {
	case KindFloat:
		f = v.f
	case KindSigned:
		f = float64(v.i)
	case KindUnsigned:
		f = float64(v.u)
	default:
		return Value{}, fault("cannot convert kind %d to float", v.kind)
	}
	if to.Kind == TFloat32 {
		f = float64(float32(f))
	}
	r, ok := Float(f)
	if !ok {
		return Value{}, fault("conversion produced NaN")
	}
	return r, nil
}
