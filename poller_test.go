package netwait

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type outcome struct {
	latency time.Duration
	err     error
}

var errUnreachable = errors.New("unreachable")

// scriptedProbe returns the scripted outcomes in order, then fails forever.
// It records when each probe was issued and resolved, and the maximum number
// of probes observed in flight at once.
type scriptedProbe struct {
	outcomes []outcome
	work     time.Duration

	mu       sync.Mutex
	calls    int
	issued   []time.Time
	resolved []time.Time

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (s *scriptedProbe) Probe(ctx context.Context, target string) (time.Duration, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxInFlight.Load()
		if n <= m || s.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	s.mu.Lock()
	s.issued = append(s.issued, time.Now())
	o := outcome{err: errUnreachable}
	if s.calls < len(s.outcomes) {
		o = s.outcomes[s.calls]
	}
	s.calls++
	s.mu.Unlock()

	if s.work > 0 {
		time.Sleep(s.work)
	}

	s.mu.Lock()
	s.resolved = append(s.resolved, time.Now())
	s.mu.Unlock()
	return o.latency, o.err
}

func (s *scriptedProbe) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// successCounter records every invocation of the success callback.
type successCounter struct {
	mu        sync.Mutex
	calls     int
	latencies []time.Duration
}

func (c *successCounter) onSuccess(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.latencies = append(c.latencies, latency)
}

func (c *successCounter) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// waitFor polls cond until it is true or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func newTestPoller(t *testing.T, opts ...Option) *Poller {
	t.Helper()
	p, err := New(append([]Option{WithLogger(testLogger())}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(p.Stop)
	return p
}

func waitDone(t *testing.T, p *Poller) (time.Duration, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	latency, err := p.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("poller did not reach a terminal state in time")
	}
	return latency, err
}

// TestPoller_SucceedsAfterFailures runs the fail, fail, success(50ms) scenario
// with the interval scaled down to keep the test fast.
func TestPoller_SucceedsAfterFailures(t *testing.T) {
	const interval = 20 * time.Millisecond

	probe := &scriptedProbe{outcomes: []outcome{
		{err: errUnreachable},
		{err: errUnreachable},
		{latency: 50 * time.Millisecond},
	}}

	var mu sync.Mutex
	var states []State
	var p *Poller
	p = newTestPoller(t,
		WithProbe(probe),
		WithAttemptHook(func(Attempt) {
			mu.Lock()
			states = append(states, p.State())
			mu.Unlock()
		}),
	)

	if p.State() != StateIdle {
		t.Fatalf("State() before Start = %v, want idle", p.State())
	}

	counter := &successCounter{}
	started := time.Now()
	if err := p.Start(context.Background(), "https://example.com", interval, counter.onSuccess); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	latency, err := waitDone(t, p)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if latency != 50*time.Millisecond {
		t.Errorf("Wait() latency = %v, want 50ms", latency)
	}

	if p.State() != StateSucceeded {
		t.Errorf("State() = %v, want succeeded", p.State())
	}
	if counter.Calls() != 1 {
		t.Fatalf("onSuccess calls = %d, want 1", counter.Calls())
	}
	if counter.latencies[0] != 50*time.Millisecond {
		t.Errorf("onSuccess latency = %v, want 50ms", counter.latencies[0])
	}
	if p.Attempts() != 3 {
		t.Errorf("Attempts() = %d, want 3", p.Attempts())
	}

	mu.Lock()
	defer mu.Unlock()
	for i, s := range states {
		if s != StatePolling {
			t.Errorf("state during attempt %d = %v, want polling", i+1, s)
		}
	}

	probe.mu.Lock()
	defer probe.mu.Unlock()
	if elapsed := probe.issued[2].Sub(started); elapsed < 2*interval {
		t.Errorf("success probe issued after %v, want >= %v", elapsed, 2*interval)
	}
}

func TestPoller_SuccessAfterStopsProbing(t *testing.T) {
	probe := &scriptedProbe{outcomes: []outcome{{latency: time.Millisecond}}}
	p := newTestPoller(t, WithProbe(probe))

	counter := &successCounter{}
	if err := p.Start(context.Background(), "target", time.Millisecond, counter.onSuccess); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := waitDone(t, p); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	// give a runaway loop the chance to issue more probes
	time.Sleep(20 * time.Millisecond)

	if probe.Calls() != 1 {
		t.Errorf("probe calls = %d, want 1", probe.Calls())
	}
	if counter.Calls() != 1 {
		t.Errorf("onSuccess calls = %d, want 1", counter.Calls())
	}
}

func TestPoller_AllFailuresKeepPolling(t *testing.T) {
	probe := &scriptedProbe{}
	p := newTestPoller(t, WithProbe(probe))

	counter := &successCounter{}
	if err := p.Start(context.Background(), "target", time.Millisecond, counter.onSuccess); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	const n = 10
	waitFor(t, 5*time.Second, func() bool { return p.Attempts() >= n })

	if p.State() != StatePolling {
		t.Errorf("State() after %d failures = %v, want polling", n, p.State())
	}
	if counter.Calls() != 0 {
		t.Errorf("onSuccess calls = %d, want 0", counter.Calls())
	}

	p.Stop()
	if p.State() != StateStopped {
		t.Errorf("State() after Stop = %v, want stopped", p.State())
	}
}

func TestPoller_NeverTwoProbesInFlight(t *testing.T) {
	probe := &scriptedProbe{work: 3 * time.Millisecond}
	p := newTestPoller(t, WithProbe(probe))

	if err := p.Start(context.Background(), "target", time.Millisecond, func(time.Duration) {}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, 5*time.Second, func() bool { return p.Attempts() >= 10 })
	p.Stop()

	if got := probe.maxInFlight.Load(); got != 1 {
		t.Errorf("max probes in flight = %d, want 1", got)
	}
}

func TestPoller_DelayBetweenProbesAtLeastInterval(t *testing.T) {
	const interval = 15 * time.Millisecond

	probe := &scriptedProbe{outcomes: []outcome{
		{err: errUnreachable},
		{err: errUnreachable},
		{err: errUnreachable},
		{err: errUnreachable},
		{latency: time.Millisecond},
	}}
	p := newTestPoller(t, WithProbe(probe))

	if err := p.Start(context.Background(), "target", interval, func(time.Duration) {}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := waitDone(t, p); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	probe.mu.Lock()
	defer probe.mu.Unlock()
	if len(probe.issued) != 5 {
		t.Fatalf("probes issued = %d, want 5", len(probe.issued))
	}
	for i := 0; i < len(probe.issued)-1; i++ {
		gap := probe.issued[i+1].Sub(probe.resolved[i])
		if gap < interval {
			t.Errorf("gap between probe %d resolution and probe %d issue = %v, want >= %v", i+1, i+2, gap, interval)
		}
	}
}

func TestPoller_StartRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		interval  time.Duration
		onSuccess func(time.Duration)
		wantField string
	}{
		{"zero interval", "https://example.com", 0, func(time.Duration) {}, "interval"},
		{"negative interval", "https://example.com", -time.Second, func(time.Duration) {}, "interval"},
		{"empty target", "", time.Second, func(time.Duration) {}, "target"},
		{"blank target", "   ", time.Second, func(time.Duration) {}, "target"},
		{"nil callback", "https://example.com", time.Second, nil, "on_success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := &scriptedProbe{}
			p := newTestPoller(t, WithProbe(probe))

			err := p.Start(context.Background(), tt.target, tt.interval, tt.onSuccess)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("Start() error = %v, want ErrInvalidConfiguration", err)
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Start() error should be *ConfigError, got %T", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("ConfigError.Field = %q, want %q", cfgErr.Field, tt.wantField)
			}

			// give a wrongly started loop the chance to probe
			time.Sleep(5 * time.Millisecond)
			if probe.Calls() != 0 {
				t.Errorf("probe calls = %d, want 0", probe.Calls())
			}
			if p.State() != StateIdle {
				t.Errorf("State() = %v, want idle", p.State())
			}
		})
	}
}

func TestPoller_StopBetweenProbes(t *testing.T) {
	probe := &scriptedProbe{outcomes: []outcome{
		{err: errUnreachable},
		{latency: time.Millisecond},
	}}
	p := newTestPoller(t, WithProbe(probe))

	counter := &successCounter{}
	if err := p.Start(context.Background(), "target", 100*time.Millisecond, counter.onSuccess); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, time.Second, func() bool { return p.Attempts() == 1 })
	p.Stop()

	// past the point where probe 2 would have been issued
	time.Sleep(150 * time.Millisecond)

	if probe.Calls() != 1 {
		t.Errorf("probe calls = %d, want 1", probe.Calls())
	}
	if counter.Calls() != 0 {
		t.Errorf("onSuccess calls = %d, want 0", counter.Calls())
	}
	if p.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", p.State())
	}
	if _, err := waitDone(t, p); !errors.Is(err, ErrStopped) {
		t.Errorf("Wait() error = %v, want ErrStopped", err)
	}
}

// TestPoller_StopDiscardsLateSuccess verifies that a probe which resolves
// successfully after Stop does not trigger the success callback.
func TestPoller_StopDiscardsLateSuccess(t *testing.T) {
	inFlight := make(chan struct{})
	var once sync.Once
	probe := ProbeFunc(func(ctx context.Context, target string) (time.Duration, error) {
		once.Do(func() { close(inFlight) })
		<-ctx.Done()
		return 10 * time.Millisecond, nil
	})
	p := newTestPoller(t, WithProbe(probe))

	counter := &successCounter{}
	if err := p.Start(context.Background(), "target", time.Second, counter.onSuccess); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	<-inFlight
	p.Stop()

	if counter.Calls() != 0 {
		t.Errorf("onSuccess calls = %d, want 0", counter.Calls())
	}
	if p.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", p.State())
	}
	if p.Attempts() != 0 {
		t.Errorf("Attempts() = %d, want 0 (cancelled probe is not counted)", p.Attempts())
	}
}

func TestPoller_ContextCancelStops(t *testing.T) {
	probe := &scriptedProbe{}
	p := newTestPoller(t, WithProbe(probe))

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx, "target", 5*time.Millisecond, func(time.Duration) {}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, time.Second, func() bool { return p.Attempts() >= 1 })
	cancel()

	if _, err := waitDone(t, p); !errors.Is(err, ErrStopped) {
		t.Errorf("Wait() error = %v, want ErrStopped", err)
	}
	if p.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", p.State())
	}
}

func TestPoller_Lifecycle(t *testing.T) {
	t.Run("start twice", func(t *testing.T) {
		p := newTestPoller(t, WithProbe(&scriptedProbe{}))
		if err := p.Start(context.Background(), "target", time.Second, func(time.Duration) {}); err != nil {
			t.Fatalf("first Start() error = %v", err)
		}
		err := p.Start(context.Background(), "other", time.Second, func(time.Duration) {})
		if !errors.Is(err, ErrAlreadyStarted) {
			t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
		}
		if p.Target() != "target" {
			t.Errorf("Target() = %q, want %q", p.Target(), "target")
		}
	})

	t.Run("start after success", func(t *testing.T) {
		p := newTestPoller(t, WithProbe(&scriptedProbe{outcomes: []outcome{{}}}))
		if err := p.Start(context.Background(), "target", time.Millisecond, func(time.Duration) {}); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if _, err := waitDone(t, p); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		err := p.Start(context.Background(), "target", time.Millisecond, func(time.Duration) {})
		if !errors.Is(err, ErrAlreadyStarted) {
			t.Errorf("Start() after success error = %v, want ErrAlreadyStarted", err)
		}
	})

	t.Run("stop before start", func(t *testing.T) {
		p := newTestPoller(t, WithProbe(&scriptedProbe{}))
		p.Stop()
		if p.State() != StateStopped {
			t.Errorf("State() = %v, want stopped", p.State())
		}
		err := p.Start(context.Background(), "target", time.Second, func(time.Duration) {})
		if !errors.Is(err, ErrStopped) {
			t.Errorf("Start() after Stop error = %v, want ErrStopped", err)
		}
		select {
		case <-p.Done():
		default:
			t.Error("Done() should be closed after Stop")
		}
	})

	t.Run("stop twice", func(t *testing.T) {
		p := newTestPoller(t, WithProbe(&scriptedProbe{}))
		if err := p.Start(context.Background(), "target", time.Millisecond, func(time.Duration) {}); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		p.Stop()
		p.Stop()
	})

	t.Run("stop from success callback", func(t *testing.T) {
		p := newTestPoller(t, WithProbe(&scriptedProbe{outcomes: []outcome{{}}}))
		if err := p.Start(context.Background(), "target", time.Millisecond, func(time.Duration) { p.Stop() }); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if _, err := waitDone(t, p); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if p.State() != StateSucceeded {
			t.Errorf("State() = %v, want succeeded", p.State())
		}
	})

	t.Run("concurrent start and stop", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			p := newTestPoller(t, WithProbe(&scriptedProbe{}))

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				_ = p.Start(context.Background(), "target", time.Millisecond, func(time.Duration) {})
			}()
			go func() {
				defer wg.Done()
				p.Stop()
			}()
			wg.Wait()

			p.Stop()
			if p.State() != StateStopped {
				t.Fatalf("iteration %d: State() = %v, want stopped", i, p.State())
			}
		}
	})
}

func TestPoller_ProbeTimeoutIsFailure(t *testing.T) {
	var calls atomic.Int32
	probe := ProbeFunc(func(ctx context.Context, target string) (time.Duration, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return 5 * time.Millisecond, nil
	})

	var mu sync.Mutex
	var attempts []Attempt
	p := newTestPoller(t,
		WithProbe(probe),
		WithProbeTimeout(20*time.Millisecond),
		WithAttemptHook(func(a Attempt) {
			mu.Lock()
			attempts = append(attempts, a)
			mu.Unlock()
		}),
	)

	if err := p.Start(context.Background(), "target", time.Millisecond, func(time.Duration) {}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := waitDone(t, p); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(attempts))
	}
	first := attempts[0]
	if first.Succeeded() {
		t.Fatal("first attempt should have failed")
	}
	if first.Reason() != "timeout" {
		t.Errorf("first attempt reason = %q, want timeout", first.Reason())
	}
	if first.Latency < 20*time.Millisecond {
		t.Errorf("first attempt latency = %v, want >= probe timeout", first.Latency)
	}
	if first.Number != 1 || attempts[1].Number != 2 {
		t.Errorf("attempt numbers = %d, %d, want 1, 2", first.Number, attempts[1].Number)
	}
	if !attempts[1].Succeeded() || attempts[1].Reason() != "" {
		t.Errorf("second attempt = %+v, want success", attempts[1])
	}
	if first.SessionID != p.SessionID() || first.Target != "target" {
		t.Errorf("attempt metadata = %+v", first)
	}
}

// TestPoller_TimeoutOverridesLateResult uses a check that ignores its context
// and reports success well after the timeout. The attempt must be recorded as
// a timeout and polling must continue.
func TestPoller_TimeoutOverridesLateResult(t *testing.T) {
	var calls atomic.Int32
	slow := ProbeFunc(func(ctx context.Context, target string) (time.Duration, error) {
		if calls.Add(1) == 1 {
			time.Sleep(300 * time.Millisecond)
			return 7 * time.Millisecond, nil
		}
		return 5 * time.Millisecond, nil
	})

	var mu sync.Mutex
	var attempts []Attempt
	p := newTestPoller(t,
		WithProbe(slow),
		WithProbeTimeout(30*time.Millisecond),
		WithAttemptHook(func(a Attempt) {
			mu.Lock()
			attempts = append(attempts, a)
			mu.Unlock()
		}),
	)

	start := time.Now()
	if err := p.Start(context.Background(), "target", time.Millisecond, func(time.Duration) {}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	latency, err := waitDone(t, p)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 300*time.Millisecond {
		t.Errorf("poller waited %v for a timed-out attempt", elapsed)
	}
	if latency != 5*time.Millisecond {
		t.Errorf("latency = %v, want 5ms from the second attempt", latency)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(attempts))
	}
	if attempts[0].Succeeded() || attempts[0].Reason() != "timeout" {
		t.Errorf("first attempt = %+v, want timeout failure", attempts[0])
	}
	if !errors.Is(attempts[0].Err, context.DeadlineExceeded) {
		t.Errorf("first attempt error = %v, want DeadlineExceeded", attempts[0].Err)
	}
}

// TestPoller_StopDoesNotWaitForStuckCheck verifies Stop abandons a check that
// ignores its context instead of blocking until it returns.
func TestPoller_StopDoesNotWaitForStuckCheck(t *testing.T) {
	inFlight := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	var once sync.Once
	stuck := ProbeFunc(func(ctx context.Context, target string) (time.Duration, error) {
		once.Do(func() { close(inFlight) })
		<-release
		return time.Millisecond, nil
	})
	p := newTestPoller(t, WithProbe(stuck), WithProbeTimeout(time.Minute))

	counter := &successCounter{}
	if err := p.Start(context.Background(), "target", time.Second, counter.onSuccess); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-inFlight

	start := time.Now()
	p.Stop()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop() blocked for %v", elapsed)
	}

	select {
	case <-p.Done():
	default:
		t.Error("Done() not closed after Stop returned")
	}
	if p.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", p.State())
	}
	if counter.Calls() != 0 {
		t.Errorf("onSuccess calls = %d, want 0", counter.Calls())
	}
}

func TestPoller_StopFromAttemptHook(t *testing.T) {
	tests := []struct {
		name    string
		outcome outcome
	}{
		{"after failure", outcome{err: errUnreachable}},
		{"after success", outcome{latency: time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := &scriptedProbe{outcomes: []outcome{tt.outcome}}

			var p *Poller
			p = newTestPoller(t,
				WithProbe(check),
				WithAttemptHook(func(Attempt) { p.Stop() }),
			)

			counter := &successCounter{}
			if err := p.Start(context.Background(), "target", time.Millisecond, counter.onSuccess); err != nil {
				t.Fatalf("Start() error = %v", err)
			}

			if _, err := waitDone(t, p); !errors.Is(err, ErrStopped) {
				t.Errorf("Wait() error = %v, want ErrStopped", err)
			}
			if p.State() != StateStopped {
				t.Errorf("State() = %v, want stopped", p.State())
			}
			if counter.Calls() != 0 {
				t.Errorf("onSuccess calls = %d, want 0", counter.Calls())
			}
			if p.Attempts() != 1 {
				t.Errorf("Attempts() = %d, want 1", p.Attempts())
			}
		})
	}
}

func TestPoller_ProbePanicIsFailure(t *testing.T) {
	var calls atomic.Int32
	probe := ProbeFunc(func(ctx context.Context, target string) (time.Duration, error) {
		if calls.Add(1) == 1 {
			panic("probe exploded")
		}
		return time.Millisecond, nil
	})
	p := newTestPoller(t, WithProbe(probe))

	if err := p.Start(context.Background(), "target", time.Millisecond, func(time.Duration) {}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := waitDone(t, p); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if p.Attempts() != 2 {
		t.Errorf("Attempts() = %d, want 2", p.Attempts())
	}
}

func TestPoller_CallbackPanicsAreRecovered(t *testing.T) {
	p := newTestPoller(t,
		WithProbe(&scriptedProbe{outcomes: []outcome{{err: errUnreachable}, {}}}),
		WithAttemptHook(func(Attempt) { panic("hook exploded") }),
	)

	if err := p.Start(context.Background(), "target", time.Millisecond, func(time.Duration) { panic("callback exploded") }); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := waitDone(t, p); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if p.State() != StateSucceeded {
		t.Errorf("State() = %v, want succeeded", p.State())
	}
}

func TestPoller_WaitHonoursContext(t *testing.T) {
	p := newTestPoller(t, WithProbe(&scriptedProbe{}))
	if err := p.Start(context.Background(), "target", time.Millisecond, func(time.Duration) {}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := p.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
	}
	if _, ok := p.Latency(); ok {
		t.Error("Latency() ok = true while still polling")
	}
}

// TestPoller_HTTPTargetComesOnline polls a real HTTP server that is
// unavailable for the first two requests.
func TestPoller_HTTPTargetComesOnline(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := newTestPoller(t, WithProbeTimeout(time.Second))

	counter := &successCounter{}
	if err := p.Start(context.Background(), server.URL, 5*time.Millisecond, counter.onSuccess); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	latency, err := waitDone(t, p)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if latency <= 0 {
		t.Errorf("latency = %v, want > 0", latency)
	}
	if requests.Load() != 3 {
		t.Errorf("requests = %d, want 3", requests.Load())
	}
	if counter.Calls() != 1 {
		t.Errorf("onSuccess calls = %d, want 1", counter.Calls())
	}
}
