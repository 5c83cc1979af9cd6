package store

import (
	"encoding/json"
	"fmt"
)

// ID is an opaque server-assigned identifier. The backend is not
// consistent about id JSON types (some endpoints emit numbers, others
// strings); ID accepts both and compares as text. The client never
// fabricates ids.
type ID string

// String returns the textual form of the id.
func (id ID) String() string { return string(id) }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id == "" }

// UnmarshalJSON accepts string and number representations.
func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("empty id")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits the id as a JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}
