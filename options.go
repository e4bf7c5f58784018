package netwait

import (
	"log/slog"
	"time"
)

const defaultProbeTimeout = 10 * time.Second

// pollerConfig holds mutable state during Poller construction.
type pollerConfig struct {
	probe        Probe
	probeTimeout time.Duration
	logger       *slog.Logger
	hooks        []func(Attempt)
	sessionID    string
}

// Option configures a [Poller] during construction.
//
// Options return a [*ConfigError] if validation fails; [New] returns it
// unchanged.
type Option func(*pollerConfig) error

// WithProbe sets the reachability check used for every attempt.
//
// Defaults to [HTTPProbe] with a HEAD request.
func WithProbe(p Probe) Option {
	return func(cfg *pollerConfig) error {
		if p == nil {
			return &ConfigError{Field: "probe", Reason: "must not be nil"}
		}
		cfg.probe = p
		return nil
	}
}

// WithProbeTimeout bounds the latency of a single probe.
//
// A probe still running when the timeout elapses has its context cancelled
// and counts as a failed attempt. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithProbeTimeout(d time.Duration) Option {
	return func(cfg *pollerConfig) error {
		if d <= 0 {
			return &ConfigError{Field: "probe_timeout", Reason: "must be positive"}
		}
		cfg.probeTimeout = d
		return nil
	}
}

// WithLogger sets the logger for poller events.
//
// Routine attempts are logged at debug level; lifecycle events at info.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *pollerConfig) error {
		if logger == nil {
			return &ConfigError{Field: "logger", Reason: "must not be nil"}
		}
		cfg.logger = logger
		return nil
	}
}

// WithAttemptHook registers a function called with every resolved [Attempt].
//
// Hooks run synchronously on the polling goroutine, in registration order,
// so a slow hook delays the next probe. A hook may call [Poller.Stop], which
// then cancels polling without waiting for the hook to return.
// Panics are recovered and logged. Can be used multiple times.
func WithAttemptHook(fn func(Attempt)) Option {
	return func(cfg *pollerConfig) error {
		if fn == nil {
			return &ConfigError{Field: "attempt_hook", Reason: "must not be nil"}
		}
		cfg.hooks = append(cfg.hooks, fn)
		return nil
	}
}

// WithSessionID overrides the generated session ID attached to log lines and
// attempts.
func WithSessionID(id string) Option {
	return func(cfg *pollerConfig) error {
		if id == "" {
			return &ConfigError{Field: "session_id", Reason: "must not be empty"}
		}
		cfg.sessionID = id
		return nil
	}
}
