package netwait

import "time"

// Attempt records the outcome of one probe.
//
// Attempts are delivered to hooks registered with [WithAttemptHook] after the
// probe has resolved and before the poller either stops or sleeps.
type Attempt struct {
	// SessionID identifies the poller that issued the probe.
	SessionID string

	// Number is the 1-based sequence number of the attempt.
	Number int

	// Target is the probed resource.
	Target string

	// StartedAt is when the probe was issued.
	StartedAt time.Time

	// Latency is the latency reported by the probe on success, or the
	// time until the failure was observed.
	Latency time.Duration

	// Err is nil on success and a [*ProbeFailure] otherwise.
	Err error
}

// Succeeded reports whether the probe succeeded.
func (a Attempt) Succeeded() bool {
	return a.Err == nil
}

// Reason returns the failure reason, or an empty string on success.
func (a Attempt) Reason() string {
	if pf, ok := a.Err.(*ProbeFailure); ok {
		return pf.Reason
	}
	return ""
}
