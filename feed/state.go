package feed

// State is the lifecycle of a Connection.
type State int32

// Connection states. StateTerminated is final.
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateTerminated
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
