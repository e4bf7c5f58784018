package netwait

import (
	"errors"
	"fmt"

	"github.com/jpalmerr/netwait/internal/probe"
)

var (
	// ErrInvalidConfiguration is matched by every [*ConfigError].
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrAlreadyStarted is returned by [Poller.Start] on a poller that
	// has already been started. Pollers are single use.
	ErrAlreadyStarted = errors.New("poller already started")

	// ErrStopped is returned by [Poller.Start] after [Poller.Stop], and by
	// [Poller.Wait] when the poller stopped without a successful probe.
	ErrStopped = errors.New("poller stopped")
)

// ConfigError reports a rejected argument or option.
//
// ConfigError matches [ErrInvalidConfiguration] with errors.Is.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidConfiguration) succeed.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// ProbeFailure is the error recorded on a failed [Attempt].
//
// Reason classifies the failure (timeout, dns, network, status, ...). The
// poller treats all reasons the same way: the failure is logged and the next
// probe is scheduled.
type ProbeFailure struct {
	Reason string
	Err    error
}

func (f *ProbeFailure) Error() string {
	return fmt.Sprintf("probe failed (%s): %v", f.Reason, f.Err)
}

func (f *ProbeFailure) Unwrap() error {
	return f.Err
}

// newProbeFailure classifies err. A probe that panics or returns its own
// error types still produces a usable reason.
func newProbeFailure(err error) *ProbeFailure {
	return &ProbeFailure{Reason: string(probe.ReasonOf(err)), Err: err}
}
