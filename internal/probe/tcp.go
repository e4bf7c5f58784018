package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// TCP probes a target by opening and immediately closing a TCP connection.
//
// Targets are either host:port or a URL; a URL without an explicit port uses
// the scheme's default (80 for http, 443 for https).
type TCP struct {
	dialer net.Dialer
}

// NewTCP creates a [TCP] probe.
func NewTCP() *TCP {
	return &TCP{}
}

// Probe dials target and returns the time taken to establish the connection.
func (t *TCP) Probe(ctx context.Context, target string) (time.Duration, error) {
	addr, err := dialAddr(target)
	if err != nil {
		return 0, &Failure{Reason: ReasonInvalidTarget, Err: err}
	}

	start := time.Now()
	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	latency := time.Since(start)
	if err != nil {
		return latency, fail(err)
	}
	_ = conn.Close()
	return latency, nil
}

func dialAddr(target string) (string, error) {
	target = strings.TrimSpace(target)
	if !strings.Contains(target, "://") {
		if _, _, err := net.SplitHostPort(target); err != nil {
			return "", err
		}
		return target, nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if u.Hostname() == "" {
		return "", errors.New("target has no host")
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		default:
			return "", errors.New("target has no port and scheme " + u.Scheme + " has no default")
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
