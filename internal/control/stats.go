package control

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	cerrors "github.com/mir00r/airtraffic/internal/errors"
)

// Stats is one decoded row of "show stat" output keyed by column name.
// Records are immutable and share nothing with the response they came from.
type Stats struct {
	fields map[string]string
}

// NewStats builds a record from a copy of fields
func NewStats(fields map[string]string) Stats {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Stats{fields: copied}
}

// Get returns the value of the named column. A column that is absent from
// the record is an error, never an empty string, so schema drift between
// HAProxy versions is visible to callers.
func (s Stats) Get(name string) (string, error) {
	v, ok := s.Lookup(name)
	if !ok {
		return "", cerrors.NewFieldAccessError(name)
	}
	return v, nil
}

// Lookup returns the value of the named column and whether it was present
func (s Stats) Lookup(name string) (string, bool) {
	v, ok := s.fields[name]
	return v, ok
}

// Int returns a numeric column. HAProxy leaves counters that do not apply
// to a row empty; those read as zero.
func (s Stats) Int(name string) (int64, error) {
	v, err := s.Get(name)
	if err != nil {
		return 0, err
	}
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, cerrors.NewFieldFormatError(name, v, err)
	}
	return n, nil
}

// Len returns the number of columns in the record
func (s Stats) Len() int { return len(s.fields) }

// Fields returns a copy of the record
func (s Stats) Fields() map[string]string {
	copied := make(map[string]string, len(s.fields))
	for k, v := range s.fields {
		copied[k] = v
	}
	return copied
}

// UnknownColumns returns the record's columns that are not in KnownColumns, sorted
func (s Stats) UnknownColumns() []string {
	var unknown []string
	for k := range s.fields {
		if !IsKnownColumn(k) {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// MarshalJSON encodes the record as a flat object
func (s Stats) MarshalJSON() ([]byte, error) {
	if s.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.fields)
}

// DecodeStats parses a "show stat" response. The first line is the header;
// every following non-empty line becomes one record whose columns are paired
// positionally with the header. When a row and the header differ in length
// only the overlapping leading columns are kept.
func DecodeStats(text string) ([]Stats, error) {
	if text == "" {
		return nil, cerrors.NewDecodeError("empty response, expected a header line")
	}

	lines := strings.Split(text, "\n")
	header := strings.TrimSuffix(lines[0], "\r")
	if strings.TrimSpace(header) == "" {
		return nil, cerrors.NewDecodeError("blank header line")
	}
	names := strings.Split(header, ",")

	records := make([]Stats, 0, len(lines)-1)
	for _, line := range lines[1:] {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		cols := strings.Split(line, ",")
		n := len(names)
		if len(cols) < n {
			n = len(cols)
		}
		fields := make(map[string]string, n)
		for i := 0; i < n; i++ {
			fields[names[i]] = cols[i]
		}
		records = append(records, Stats{fields: fields})
	}
	return records, nil
}
