// Package domain defines the business entities returned by the backend
// (products, expenses, catalog lookups, auth) as immutable snapshots, plus
// the lenient scalar types needed to decode them.
//
// The backend is not under our control: ids arrive as strings or numbers and
// timestamps in several layouts. Decoding tolerates all of them rather than
// failing a whole list because of one odd field.
package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ID is an entity identity. It accepts JSON strings and numbers; any other
// JSON value (bool, object, array) decodes as the empty id.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		*id = ""
		return nil
	}
	*id = ID(n.String())
	return nil
}

// String returns the id as a plain string.
func (id ID) String() string { return string(id) }

// IsZero reports whether the id is empty.
func (id ID) IsZero() bool { return id == "" }

// timestampLayouts lists accepted timestamp layouts, most specific first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a lenient point in time. Values that cannot be parsed are
// kept as zero and treated as missing.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s with the accepted layouts. Unparseable input
// returns the zero Timestamp.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}
		}
	}
	return Timestamp{}
}

// UnmarshalJSON implements json.Unmarshaler. Epoch numbers are read as
// milliseconds.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*ts = Timestamp{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*ts = ParseTimestamp(s)
	default:
		ms, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			*ts = Timestamp{}
			return nil
		}
		*ts = Timestamp{Time: time.UnixMilli(ms).UTC()}
	}
	return nil
}

// MarshalJSON implements json.Marshaler; missing timestamps encode as null.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339Nano))
}

// Valid reports whether the timestamp holds a parsed time.
func (ts Timestamp) Valid() bool { return !ts.IsZero() }

// Money is a decimal amount. The backend sends numbers or numeric strings;
// anything that does not parse ("N/A", objects) decodes as 0.
type Money float64

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(b []byte) error {
	*m = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*m = Money(f)
	}
	return nil
}
