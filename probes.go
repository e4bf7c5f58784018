package netwait

import (
	"context"
	"time"

	"github.com/jpalmerr/netwait/internal/probe"
)

// Probe performs one reachability check against target.
//
// A nil error means the target is reachable and the returned duration is the
// measured latency. Any non-nil error is a failed attempt. Implementations
// must honour ctx: the poller cancels it on Stop and when the probe timeout
// elapses.
type Probe interface {
	Probe(ctx context.Context, target string) (time.Duration, error)
}

// ProbeFunc adapts an ordinary function to the [Probe] interface.
type ProbeFunc func(ctx context.Context, target string) (time.Duration, error)

// Probe calls f(ctx, target).
func (f ProbeFunc) Probe(ctx context.Context, target string) (time.Duration, error) {
	return f(ctx, target)
}

// HTTPProbe returns a [Probe] that issues one HTTP request per attempt.
//
// An empty method means HEAD, with a single GET retry when the server answers
// 405 Method Not Allowed. Statuses in [200, 400) are reachable.
func HTTPProbe(method string, headers map[string]string) Probe {
	return probe.NewHTTP(method, headers)
}

// TCPProbe returns a [Probe] that opens a TCP connection to a host:port or
// URL target.
func TCPProbe() Probe {
	return probe.NewTCP()
}

// DNSProbe returns a [Probe] that resolves the target's host name.
func DNSProbe() Probe {
	return probe.NewDNS()
}
