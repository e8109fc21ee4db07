package monitor

// State is the lifecycle state of the Manager's streaming session.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateGivenUp
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateGivenUp:
		return "given_up"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
