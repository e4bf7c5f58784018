package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Reason classifies why a probe failed.
//
// Reasons are informational. The poller treats every failure as transient and
// retries regardless of the reason.
type Reason string

const (
	ReasonTimeout       Reason = "timeout"
	ReasonDNS           Reason = "dns"
	ReasonNetwork       Reason = "network"
	ReasonStatus        Reason = "status"
	ReasonCanceled      Reason = "canceled"
	ReasonInvalidTarget Reason = "invalid_target"
)

// Failure is the error returned by every probe in this package.
type Failure struct {
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %v", f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// fail wraps err in a [Failure], classifying it from the error chain.
func fail(err error) *Failure {
	return &Failure{Reason: ReasonOf(err), Err: err}
}

// ReasonOf classifies an arbitrary probe error.
//
// Errors that already carry a [Failure] keep its reason. Everything else is
// inspected for context, DNS and network errors, falling back to
// [ReasonNetwork].
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return ReasonTimeout
		}
		return ReasonDNS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}

	return ReasonNetwork
}

// hostOf extracts the host name from a URL or host:port target.
func hostOf(target string) string {
	target = strings.TrimSpace(target)
	if strings.Contains(target, "://") {
		if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
		return ""
	}
	if host, _, err := net.SplitHostPort(target); err == nil {
		return host
	}
	return target
}
