package stream

import "time"

// State is the connection lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON status output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Connected reports whether the stream is currently delivering messages.
func (s State) Connected() bool {
	return s == StateOpen
}

// Status is a point-in-time view of the connection.
type Status struct {
	State       State     `json:"state"`
	Attempts    int       `json:"attempts"`
	SessionID   string    `json:"sessionId,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
	ConnectedAt time.Time `json:"connectedAt,omitempty"`
	// Exhausted is set once the retry budget ran out; no further attempts follow.
	Exhausted bool `json:"exhausted"`
}
