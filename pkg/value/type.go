// Package value implements the tagged runtime value used by every stream:
// arithmetic, comparison, logical operations, text parsing, and numeric
// conversion, per spec.md §4.1.
package value

import "fmt"

// TypeKind enumerates the declared value types a stream may carry.
type TypeKind uint8

const (
	TBool TypeKind = iota
	TUInt8
	TUInt16
	TUInt32
	TUInt64
	TInt8
	TInt16
	TInt32
	TInt64
	TFloat32
	TFloat64
	TString
	TTuple
)

// Type is the declared type of a stream or sub-expression. Tuple types
// carry their element types in Elems.
type Type struct {
	Kind  TypeKind
	Elems []Type
}

func Bool() Type    { return Type{Kind: TBool} }
func UInt8() Type   { return Type{Kind: TUInt8} }
func UInt16() Type  { return Type{Kind: TUInt16} }
func UInt32() Type  { return Type{Kind: TUInt32} }
func UInt64() Type  { return Type{Kind: TUInt64} }
func Int8() Type    { return Type{Kind: TInt8} }
func Int16() Type   { return Type{Kind: TInt16} }
func Int32() Type   { return Type{Kind: TInt32} }
func Int64() Type   { return Type{Kind: TInt64} }
func Float32() Type { return Type{Kind: TFloat32} }
func Float64() Type { return Type{Kind: TFloat64} }
func Str() Type     { return Type{Kind: TString} }
func TupleOf(elems ...Type) Type {
	return Type{Kind: TTuple, Elems: elems}
}

// IsUnsigned reports whether t is one of the UIntN kinds.
func (t Type) IsUnsigned() bool {
	switch t.Kind {
	case TUInt8, TUInt16, TUInt32, TUInt64:
		return true
	}
	return false
}

// IsSigned reports whether t is one of the IntN kinds.
func (t Type) IsSigned() bool {
	switch t.Kind {
	case TInt8, TInt16, TInt32, TInt64:
		return true
	}
	return false
}

// IsFloat reports whether t is Float32 or Float64.
func (t Type) IsFloat() bool {
	return t.Kind == TFloat32 || t.Kind == TFloat64
}

// IsNumeric reports whether t supports arithmetic.
func (t Type) IsNumeric() bool {
	return t.IsUnsigned() || t.IsSigned() || t.IsFloat()
}

// BitWidth returns the declared bit width of a numeric kind, or 0 for
// Bool/String/Tuple.
func (t Type) BitWidth() int {
	switch t.Kind {
	case TUInt8, TInt8:
		return 8
	case TUInt16, TInt16:
		return 16
	case TUInt32, TInt32, TFloat32:
		return 32
	case TUInt64, TInt64, TFloat64:
		return 64
	}
	return 0
}

func (t Type) String() string {
	switch t.Kind {
	case TBool:
		return "Bool"
	case TUInt8:
		return "UInt8"
	case TUInt16:
		return "UInt16"
	case TUInt32:
		return "UInt32"
	case TUInt64:
		return "UInt64"
	case TInt8:
		return "Int8"
	case TInt16:
		return "Int16"
	case TInt32:
		return "Int32"
	case TInt64:
		return "Int64"
	case TFloat32:
		return "Float32"
	case TFloat64:
		return "Float64"
	case TString:
		return "String"
	case TTuple:
		s := "("
		for i, e := range t.Elems {
			if i > 0 {
				s += ", "
			}
			s += e.String()
		}
		return s + ")"
	default:
		return fmt.Sprintf("Type(%d)", t.Kind)
	}
}
