package session

// ConnectionState is the lifecycle state of the realtime session.
// Joined means at least one trade room confirmed membership since the
// current connection opened; it resets to Open on every fresh
// connection.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateOpen
	StateJoined
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "connected"
	case StateJoined:
		return "joined"
	default:
		return "unknown"
	}
}

// StatusFunc is invoked on every ConnectionState change with a
// human-readable message for the host application to render.
type StatusFunc func(state ConnectionState, message string)
