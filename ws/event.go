package ws

import "encoding/json"

// Envelope is the wire frame for every event in both directions:
// {"event": "...", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Outbound is the server-side counterpart with an already-shaped payload.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// SendAck is the synchronous reply to message:send. Message holds the
// canonical persisted message on success and the reason string on error.
type SendAck struct {
	Status  string `json:"status"`
	Message any    `json:"message"`
}

const (
	ackStatusOK    = "ok"
	ackStatusError = "error"
)
