// Package probe provides the reachability checks used by the netwait poller.
//
// Each probe performs exactly one check per call and reports the latency of
// that check. Probes never retry on their own; retrying is the poller's job.
//
// The available probes are:
//
//   - [HTTP]: HEAD (or a configured method) request, 2xx/3xx is reachable
//   - [TCP]: TCP connect to host:port
//   - [DNS]: host name resolution
//
// All probes return a [*Failure] on error so callers can log a [Reason]
// without inspecting error strings.
package probe
