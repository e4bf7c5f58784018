package netwait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Poller probes a target on a fixed interval until one probe succeeds.
//
// A Poller is single use. It is created Idle by [New], started once with
// [Poller.Start], and ends in exactly one terminal state: [StateSucceeded]
// after the first successful probe, or [StateStopped] after [Poller.Stop] or
// cancellation of the context passed to Start.
//
// Probes are issued strictly one at a time. The first probe fires as soon as
// the poller starts; each following probe fires one interval after the
// previous probe resolved, whether it failed or not. A probe still running
// when the probe timeout elapses is abandoned and counts as a timeout. Probe
// failures are never surfaced: they are logged, passed to attempt hooks, and
// retried forever at the same interval.
//
// All methods are safe for concurrent use.
type Poller struct {
	probe        Probe
	probeTimeout time.Duration
	logger       *slog.Logger
	hooks        []func(Attempt)
	sessionID    string

	mu       sync.Mutex
	state    State
	target   string
	attempts int
	latency  time.Duration
	cancel   context.CancelFunc
	inHooks  bool // polling goroutine is running attempt hooks

	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

// New creates an Idle [Poller] with the given options.
//
// Defaults:
//   - Probe: [HTTPProbe] with HEAD requests
//   - Probe timeout: 10 seconds
//   - Logger: slog.Default()
//   - Session ID: a random UUID
//
// Returns a [*ConfigError] if any option is invalid.
func New(opts ...Option) (*Poller, error) {
	cfg := &pollerConfig{
		probeTimeout: defaultProbeTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.probe == nil {
		cfg.probe = HTTPProbe("", nil)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.sessionID == "" {
		cfg.sessionID = uuid.NewString()
	}

	return &Poller{
		probe:        cfg.probe,
		probeTimeout: cfg.probeTimeout,
		logger:       cfg.logger.With("session_id", cfg.sessionID),
		hooks:        cfg.hooks,
		sessionID:    cfg.sessionID,
		done:         make(chan struct{}),
	}, nil
}

// Start begins polling target every interval and returns immediately.
//
// onSuccess is called exactly once, on the polling goroutine, with the
// latency reported by the first successful probe. It is never called if the
// poller is stopped first. It may call [Poller.Stop], which is then a no-op.
//
// Start validates its arguments before any probe is issued and returns a
// [*ConfigError] for a blank target, a non-positive interval or a nil
// callback. It returns [ErrAlreadyStarted] if the poller was started before
// and [ErrStopped] if it was stopped before being started.
//
// Cancelling ctx has the same effect as [Poller.Stop]. A nil ctx is treated
// as context.Background().
func (p *Poller) Start(ctx context.Context, target string, interval time.Duration, onSuccess func(latency time.Duration)) error {
	target = strings.TrimSpace(target)
	switch {
	case target == "":
		return &ConfigError{Field: "target", Reason: "must not be empty"}
	case interval <= 0:
		return &ConfigError{Field: "interval", Reason: fmt.Sprintf("must be positive, got %s", interval)}
	case onSuccess == nil:
		return &ConfigError{Field: "on_success", Reason: "must not be nil"}
	}

	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	switch p.state {
	case StateIdle:
	case StateStopped:
		p.mu.Unlock()
		return ErrStopped
	default:
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.state = StatePolling
	p.target = target
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	p.logger.Info("poller started",
		"target", target,
		"interval", interval.String(),
		"probe_timeout", p.probeTimeout.String(),
	)

	go p.run(pollCtx, cancel, target, interval, onSuccess)
	return nil
}

// Stop cancels polling and waits for the polling goroutine to exit.
//
// The pending interval timer and the context of any in-flight probe are
// cancelled. The in-flight probe is abandoned rather than awaited, so Stop
// returns promptly even if the probe ignores its context. Once Stop returns
// no further probe is issued and the success callback will not fire, even if
// the abandoned probe later resolves successfully.
//
// Stop is idempotent. Calling it before Start moves the poller straight to
// [StateStopped]. Calling it after success, including from inside the success
// callback, is a no-op. Called from an attempt hook, Stop cancels polling and
// returns without waiting; the polling goroutine exits once the hook returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	switch p.state {
	case StateIdle:
		p.state = StateStopped
		p.mu.Unlock()
		p.closeDone()
		return
	case StatePolling:
		p.state = StateStopped
		p.cancel()
		fromHook := p.inHooks
		p.mu.Unlock()
		if !fromHook {
			p.wg.Wait()
		}
	default:
		p.mu.Unlock()
	}
}

// Wait blocks until the poller reaches a terminal state or ctx is done.
//
// It returns the success latency, [ErrStopped] if the poller stopped without
// success, or the context's error.
func (p *Poller) Wait(ctx context.Context) (time.Duration, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateSucceeded {
		return p.latency, nil
	}
	return 0, ErrStopped
}

// Done returns a channel that is closed once the poller is terminal and the
// success callback, if any, has returned.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// State returns the current lifecycle state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Attempts returns the number of probes that have resolved so far.
func (p *Poller) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// Latency returns the latency of the successful probe. ok is false until the
// poller has succeeded.
func (p *Poller) Latency() (latency time.Duration, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latency, p.state == StateSucceeded
}

// Target returns the probed target, or an empty string before Start.
func (p *Poller) Target() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// SessionID returns the identifier attached to this poller's logs and attempts.
func (p *Poller) SessionID() string {
	return p.sessionID
}

// run is the polling loop. It owns the only in-flight probe.
func (p *Poller) run(ctx context.Context, cancel context.CancelFunc, target string, interval time.Duration, onSuccess func(time.Duration)) {
	defer p.wg.Done()
	defer p.closeDone()
	defer cancel()

	for n := 1; ; n++ {
		if ctx.Err() != nil {
			p.stopped(n - 1)
			return
		}

		attempt := p.attempt(ctx, n, target)

		// stopped while the probe was in flight: its outcome is discarded
		if ctx.Err() != nil {
			p.stopped(n - 1)
			return
		}

		p.mu.Lock()
		p.attempts = n
		p.inHooks = true
		p.mu.Unlock()
		p.notifyHooks(attempt)
		p.mu.Lock()
		p.inHooks = false
		p.mu.Unlock()

		if attempt.Succeeded() {
			if !p.commitSuccess(attempt.Latency) {
				// stopped from a hook
				p.stopped(n)
				return
			}
			p.logger.Info("target reachable",
				"target", target,
				"attempts", n,
				"latency_ms", attempt.Latency.Milliseconds(),
			)
			p.invokeSuccess(onSuccess, attempt.Latency)
			return
		}

		p.logger.Debug("probe failed",
			"target", target,
			"attempt", n,
			"reason", attempt.Reason(),
			"error", attempt.Err.Error(),
			"retry_in", interval.String(),
		)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.stopped(n)
			return
		case <-timer.C:
		}
	}
}

// probeResult carries a probe's return values back to the polling loop.
type probeResult struct {
	latency time.Duration
	err     error
}

// attempt runs one probe bounded by the probe timeout.
//
// The probe runs on its own goroutine. When the probe timeout elapses or the
// poller is stopped first, the probe is abandoned: its eventual result lands
// in a buffered channel nobody reads. A result that arrives after the
// deadline counts as a timeout even if the probe reported success.
func (p *Poller) attempt(ctx context.Context, n int, target string) Attempt {
	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	a := Attempt{
		SessionID: p.sessionID,
		Number:    n,
		Target:    target,
		StartedAt: time.Now(),
	}

	results := make(chan probeResult, 1)
	go func() {
		latency, err := p.safeProbe(probeCtx, target)
		results <- probeResult{latency: latency, err: err}
	}()

	var res probeResult
	select {
	case res = <-results:
		if res.err == nil && errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			res = probeResult{err: context.DeadlineExceeded}
		}
	case <-probeCtx.Done():
		res = probeResult{err: probeCtx.Err()}
	}

	if res.err != nil {
		if res.latency <= 0 {
			res.latency = time.Since(a.StartedAt)
		}
		a.Err = newProbeFailure(res.err)
	}
	a.Latency = res.latency
	return a
}

// commitSuccess moves Polling to Succeeded. It reports false if Stop won the
// race, in which case the success must not be reported.
func (p *Poller) commitSuccess(latency time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePolling {
		return false
	}
	p.state = StateSucceeded
	p.latency = latency
	return true
}

// stopped records a cancellation that was not initiated through Stop.
func (p *Poller) stopped(attempts int) {
	p.mu.Lock()
	if p.state == StatePolling {
		p.state = StateStopped
	}
	p.mu.Unlock()

	p.logger.Info("poller stopped", "target", p.Target(), "attempts", attempts)
}

func (p *Poller) closeDone() {
	p.closeOnce.Do(func() { close(p.done) })
}

// safeProbe calls the probe with panic recovery.
// A panicking probe is a failed attempt; the stack is logged with a
// correlation ID that is also placed in the returned error.
func (p *Poller) safeProbe(ctx context.Context, target string) (latency time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			p.logger.Error("probe panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			latency = 0
			err = fmt.Errorf("probe panic (correlation_id: %s)", correlationID)
		}
	}()
	return p.probe.Probe(ctx, target)
}

func (p *Poller) notifyHooks(a Attempt) {
	for _, hook := range p.hooks {
		p.invokeSafe("attempt hook", func() { hook(a) })
	}
}

func (p *Poller) invokeSuccess(onSuccess func(time.Duration), latency time.Duration) {
	p.invokeSafe("success callback", func() { onSuccess(latency) })
}

// invokeSafe runs fn, logging instead of propagating a panic.
func (p *Poller) invokeSafe(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(what+" panicked", "panic", r)
		}
	}()
	fn()
}
