package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// DNS probes a target by resolving its host name.
//
// URL and host:port targets are reduced to the host name first. A lookup that
// returns no addresses counts as a failure.
type DNS struct {
	resolver *net.Resolver
}

// NewDNS creates a [DNS] probe using the OS resolver.
func NewDNS() *DNS {
	return &DNS{resolver: &net.Resolver{}}
}

// Probe resolves target and returns the lookup latency.
func (d *DNS) Probe(ctx context.Context, target string) (time.Duration, error) {
	host := hostOf(target)
	if host == "" {
		return 0, &Failure{Reason: ReasonInvalidTarget, Err: fmt.Errorf("cannot extract host from %q", target)}
	}

	start := time.Now()
	addrs, err := d.resolver.LookupHost(ctx, host)
	latency := time.Since(start)
	if err != nil {
		return latency, fail(err)
	}
	if len(addrs) == 0 {
		return latency, &Failure{Reason: ReasonDNS, Err: errors.New("no addresses for " + host)}
	}
	return latency, nil
}
