package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// timeColumnNames are the header names auto-discovered as the timestamp
// column, per spec.md §6.2.
var timeColumnNames = map[string]bool{"time": true, "timestamp": true, "ts": true}

// ColumnMapping resolves a CSV header to the timestamp column (by name or
// explicit index) and every other column to an input name.
type ColumnMapping struct {
	Header     []string
	TimeIndex  int // -1 if there is no timestamp column
	isStreamed bool
}

// NewColumnMapping builds a mapping from a CSV header row. explicitIndex,
// if >= 0, overrides name-based discovery. When neither finds a timestamp
// column, TimeIndex is -1 and records carry no time (the caller must run
// in online clock mode).
func NewColumnMapping(header []string, explicitIndex int) *ColumnMapping {
	m := &ColumnMapping{Header: header, TimeIndex: -1}
	if explicitIndex >= 0 && explicitIndex < len(header) {
		m.TimeIndex = explicitIndex
		return m
	}
	for i, name := range header {
		if timeColumnNames[name] {
			m.TimeIndex = i
			return m
		}
	}
	return m
}

// TimeColumnIsStream reports whether the discovered timestamp column's
// header name also matches a declared input stream name, i.e. whether
// time is *also* an ordinary input, which spec.md §9's time_is_stream open
// question leaves unresolved upstream. SPEC_FULL.md §12 resolves it here
// as a diagnostic only: the engine does not treat time specially as a
// stream even when this returns true.
func (m *ColumnMapping) TimeColumnIsStream(declaredInputs map[string]bool) bool {
	if m.TimeIndex < 0 {
		return false
	}
	return declaredInputs[m.Header[m.TimeIndex]]
}

// CSVSource reads records from a CSV reader: one optional timestamp column
// (parsed as Unix seconds with optional fractional part) plus one column
// per input, matched to Record.Cells by header name. Delay, if nonzero, is
// slept before each record is returned; it simulates an online producer
// pacing input for demonstrations and manual testing.
type CSVSource struct {
	r      *csv.Reader
	closer io.Closer
	cols   *ColumnMapping
	delay  time.Duration
}

// NewCSVSource reads and consumes the header row, building a ColumnMapping
// from it, before returning. explicitTimeIndex < 0 requests name-based
// discovery.
func NewCSVSource(rc io.ReadCloser, explicitTimeIndex int, delay time.Duration) (*CSVSource, error) {
	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	return &CSVSource{
		r:      r,
		closer: rc,
		cols:   NewColumnMapping(header, explicitTimeIndex),
		delay:  delay,
	}, nil
}

// Columns exposes the discovered column mapping, e.g. for diagnostics.
func (s *CSVSource) Columns() *ColumnMapping { return s.cols }

func (s *CSVSource) Next() (Record, bool, error) {
	row, err := s.r.Read()
	if err == io.EOF {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("reading CSV record: %w", err)
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	rec := Record{Cells: make(map[string]string, len(row))}
	for i, raw := range row {
		if i == s.cols.TimeIndex {
			if raw != "" {
				t, err := parseTimestamp(raw)
				if err != nil {
					return Record{}, false, fmt.Errorf("malformed timestamp %q: %w", raw, err)
				}
				rec.Time = t
				rec.HasTime = true
			}
			continue
		}
		if i < len(s.cols.Header) {
			rec.Cells[s.cols.Header[i]] = raw
		}
	}
	return rec, true, nil
}

func (s *CSVSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// parseTimestamp accepts fractional Unix seconds, e.g. "1547627523.600536".
func parseTimestamp(s string) (time.Time, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec), nil
}
