package models

// LogEntry - one audit record, stored JSON-encoded in the logs sorted
// set scored by its epoch-millisecond timestamp.
type LogEntry struct {
	Ts       string `json:"ts"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Action   string `json:"action"`
	Detail   string `json:"detail,omitempty"`
}
