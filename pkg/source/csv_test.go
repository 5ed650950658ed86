package source

import (
	"io"
	"strings"
	"testing"
)

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

func TestCSVSourceDiscoversTimeColumnByName(t *testing.T) {
	data := "time,a,b\n1.10,3,\n1.20,,3\n"
	src, err := NewCSVSource(nopCloser{strings.NewReader(data)}, -1, 0)
	if err != nil {
		t.Fatalf("NewCSVSource: %v", err)
	}
	if src.Columns().TimeIndex != 0 {
		t.Fatalf("got time index %d, want 0", src.Columns().TimeIndex)
	}

	rec, ok, err := src.Next()
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if !rec.HasTime {
		t.Fatalf("expected a time for the first record")
	}
	if rec.Cells["a"] != "3" {
		t.Errorf("got a=%q, want 3", rec.Cells["a"])
	}
	if _, present := rec.Cells["b"]; !present || rec.Cells["b"] != "" {
		t.Errorf("expected b to be present but empty this tick")
	}
}

func TestCSVSourceEOF(t *testing.T) {
	src, err := NewCSVSource(nopCloser{strings.NewReader("a\n1\n")}, -1, 0)
	if err != nil {
		t.Fatalf("NewCSVSource: %v", err)
	}
	if _, ok, err := src.Next(); !ok || err != nil {
		t.Fatalf("expected a record, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := src.Next(); ok || err != nil {
		t.Fatalf("expected EOF, got ok=%v err=%v", ok, err)
	}
}

func TestColumnMappingExplicitIndexOverridesName(t *testing.T) {
	m := NewColumnMapping([]string{"ts", "a"}, 1)
	if m.TimeIndex != 1 {
		t.Errorf("got time index %d, want 1 (explicit override)", m.TimeIndex)
	}
}

func TestColumnMappingNoTimeColumn(t *testing.T) {
	m := NewColumnMapping([]string{"a", "b"}, -1)
	if m.TimeIndex != -1 {
		t.Errorf("got time index %d, want -1", m.TimeIndex)
	}
}

func TestTimeColumnIsStreamDiagnostic(t *testing.T) {
	m := NewColumnMapping([]string{"time", "a"}, -1)
	if !m.TimeColumnIsStream(map[string]bool{"time": true}) {
		t.Errorf("expected time column to be flagged when it shadows a declared input")
	}
	if m.TimeColumnIsStream(map[string]bool{"a": true}) {
		t.Errorf("time column should not be flagged when it doesn't shadow any declared input")
	}
}
