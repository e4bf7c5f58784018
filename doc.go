// Package netwait waits for a network resource to become reachable.
//
// The core type is [Poller]: it probes a target on a fixed interval until one
// probe succeeds, then stops and reports success exactly once. It is meant for
// "wait until the network is up" situations such as a device coming online,
// a captive portal letting traffic through, or a dependency finishing its
// startup.
//
// # Quick Start
//
//	p, err := netwait.New(netwait.WithProbeTimeout(5 * time.Second))
//	if err != nil {
//	    return err
//	}
//
//	err = p.Start(ctx, "https://www.google.com/", 2*time.Second, func(latency time.Duration) {
//	    slog.Info("online", "latency", latency)
//	})
//	if err != nil {
//	    return err // *ConfigError for a blank target or non-positive interval
//	}
//
//	latency, err := p.Wait(ctx)
//
// # Semantics
//
// Probes are strictly sequential: a new probe is issued only after the
// previous one resolved and the interval elapsed. Every probe failure is
// treated as transient. There is no retry limit and no backoff.
//
// A poller is single use. [Poller.Stop] (or cancelling the context given to
// [Poller.Start]) abandons the pending timer and the in-flight probe; after
// Stop returns the success callback can no longer fire.
//
// # Probes
//
// Built-in probes are [HTTPProbe], [TCPProbe] and [DNSProbe]. Any function
// with the right signature can be used through [ProbeFunc]. Each probe runs
// under a per-attempt timeout set with [WithProbeTimeout].
package netwait
