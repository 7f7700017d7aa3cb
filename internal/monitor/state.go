package monitor

// State is the alert monitor's lifecycle state.
type State int32

const (
	// StateIdle means no subscription is being monitored.
	StateIdle State = iota
	// StatePolling means the recurring threshold check is scheduled.
	StatePolling
	// StateCooldown means an alert fired recently; no polling happens until
	// the quiet window expires.
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateCooldown:
		return "cooldown"
	default:
		return "idle"
	}
}
