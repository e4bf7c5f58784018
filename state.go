package netwait

// State is the lifecycle state of a [Poller].
//
// States only move forward: [StateIdle] to [StatePolling] on Start, then to
// exactly one of the terminal states [StateSucceeded] or [StateStopped].
type State int

const (
	// StateIdle is a constructed poller that has not been started.
	StateIdle State = iota

	// StatePolling means probes are being issued.
	StatePolling

	// StateSucceeded is terminal: a probe succeeded and the success
	// callback has been (or is being) invoked.
	StateSucceeded

	// StateStopped is terminal: the poller was stopped or its context was
	// cancelled before any probe succeeded.
	StateStopped
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "succeeded"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateStopped
}
