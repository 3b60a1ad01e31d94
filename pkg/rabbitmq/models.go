package rabbitmq

import "encoding/json"

// JobEnvelope is the wire shape shared by every queue message. Kind selects
// the payload type; consumers decode Payload explicitly per kind.
type JobEnvelope struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}
