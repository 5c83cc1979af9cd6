package gateway

import (
	"bytes"
	"encoding/json"
)

// Payload holds a successful response body. The backend is not
// consistent about envelopes: some endpoints return the entity
// directly, some wrap it in {"data": ...}, and a few use bespoke
// shapes ({"users","count"} and the like). Decode normalizes the
// common cases; bespoke envelopes are decoded by their stores from
// Raw so the irregularity stays visible at exactly one call site.
type Payload struct {
	raw    json.RawMessage
	status int
}

// Status returns the HTTP status code of the response.
func (p *Payload) Status() int { return p.status }

// Raw returns the raw response body.
func (p *Payload) Raw() json.RawMessage { return p.raw }

// Decode unmarshals the response into v, unwrapping a {"data": ...}
// envelope when one is present.
func (p *Payload) Decode(v interface{}) error {
	if len(p.raw) == 0 {
		return nil
	}

	trimmed := bytes.TrimSpace(p.raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
			return json.Unmarshal(env.Data, v)
		}
	}

	return json.Unmarshal(trimmed, v)
}
