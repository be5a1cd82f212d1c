package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies a backend record. The API sends ids as numbers, a few
// older endpoints as strings; both decode to the same value.
type ID string

// String returns the id as text.
func (id ID) String() string { return string(id) }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id == "" }

// MarshalJSON writes canonical integer ids as JSON numbers so write
// payloads match what the backend expects for foreign keys. Anything else,
// "007" included, stays a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a number, a string, null, or an embedded record
// from which the "id" field is taken.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case b[0] == '{':
		var rec struct {
			ID ID `json:"id"`
		}
		if err := json.Unmarshal(b, &rec); err != nil {
			return fmt.Errorf("models: id: %w", err)
		}
		*id = rec.ID
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("models: id: %w", err)
		}
		*id = ID(n.String())
		return nil
	}
}
