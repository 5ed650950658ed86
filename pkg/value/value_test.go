package value

import (
	"math"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
		typ  Type
		want string
	}{
		{"bool", "true", Bool(), "true"},
		{"uint", "3", UInt8(), "3"},
		{"signed", "-5", Int8(), "-5"},
		{"float", "-123.456", Float64(), "-123.456"},
		{"string", "foobar", Str(), "foobar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := Parse(tt.text, tt.typ)
			if !ok {
				t.Fatalf("Parse(%q) failed", tt.text)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	if _, ok := Parse("not-a-number", UInt8()); ok {
		t.Errorf("expected malformed token to fail to parse")
	}
}

func TestBinaryArithmetic(t *testing.T) {
	a := Signed(3)
	b := Signed(4)
	r, err := Binary(OpAdd, a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := r.AsSigned(); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}

func TestDivisionByZeroIsArithmeticFault(t *testing.T) {
	_, err := Binary(OpDiv, Signed(1), Signed(0))
	if err == nil {
		t.Fatalf("expected division by zero to fault")
	}
}

func TestFloatRejectsNaN(t *testing.T) {
	if _, ok := Float(0.0); !ok {
		t.Fatalf("0.0 should be a valid float")
	}
	nan := math.NaN()
	if _, ok := Float(nan); ok {
		t.Errorf("Float(NaN) should be rejected")
	}
}

func TestFloatDivisionByZeroProducesInfNotFault(t *testing.T) {
	a, _ := Float(1.0)
	b, _ := Float(0.0)
	r, err := Binary(OpDiv, a, b)
	if err != nil {
		t.Fatalf("division by zero float should yield infinity, not a fault: %v", err)
	}
	f, _ := r.AsFloat()
	if f != f+1 { // crude +Inf check: Inf+1 == Inf
		t.Errorf("expected +Inf, got %v", f)
	}
}

func TestFloatNaNProductionFaults(t *testing.T) {
	zero, _ := Float(0.0)
	_, err := Binary(OpDiv, zero, zero)
	if err == nil {
		t.Fatalf("0/0 should fault as NaN production")
	}
}

func TestConvertWidening(t *testing.T) {
	v := Unsigned(200)
	r, err := Convert(v, UInt16())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := r.AsUnsigned(); got != 200 {
		t.Errorf("got %d, want 200", got)
	}
}

func TestConvertNarrowingTruncates(t *testing.T) {
	v := Unsigned(258) // 0x102
	r, err := Convert(v, UInt8())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := r.AsUnsigned(); got != 2 {
		t.Errorf("got %d, want 2 (0x102 truncated to 8 bits)", got)
	}
}

func TestConvertSignedUnsignedReinterprets(t *testing.T) {
	v := Signed(-1)
	r, err := Convert(v, UInt8())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := r.AsUnsigned(); got != 255 {
		t.Errorf("got %d, want 255 (two's complement of -1 at 8 bits)", got)
	}
}
