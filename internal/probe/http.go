package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits; a single target rarely needs more than a few
const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 2
	defaultIdleConnTimeout     = 60 * time.Second
)

// HTTP probes a URL with an HTTP request.
//
// A response with a status in [200, 400) counts as reachable. With the default
// HEAD method a 405 Method Not Allowed response is retried once as GET, since
// some servers refuse HEAD outright. Timeouts come from the context passed to
// [HTTP.Probe]; the underlying client has no global timeout.
type HTTP struct {
	client  *http.Client
	method  string
	headers map[string]string
}

// NewHTTP creates an [HTTP] probe.
//
// An empty method defaults to HEAD. Headers are copied and sent with every
// request.
func NewHTTP(method string, headers map[string]string) *HTTP {
	if method == "" {
		method = http.MethodHead
	}
	hdrs := make(map[string]string, len(headers))
	for k, v := range headers {
		hdrs[k] = v
	}
	return &HTTP{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		method:  method,
		headers: hdrs,
	}
}

// Method returns the configured HTTP method.
func (h *HTTP) Method() string {
	return h.method
}

// Probe performs one request against target and returns its latency.
//
// The latency covers the whole exchange, including the GET fallback when it
// happens. Every error is a [*Failure].
func (h *HTTP) Probe(ctx context.Context, target string) (time.Duration, error) {
	start := time.Now()

	code, err := h.do(ctx, h.method, target)
	if err == nil && code == http.StatusMethodNotAllowed && h.method == http.MethodHead {
		code, err = h.do(ctx, http.MethodGet, target)
	}
	latency := time.Since(start)
	if err != nil {
		return latency, err
	}

	if code < 200 || code >= 400 {
		return latency, &Failure{
			Reason: ReasonStatus,
			Err:    fmt.Errorf("unexpected status %d %s", code, http.StatusText(code)),
		}
	}
	return latency, nil
}

func (h *HTTP) do(ctx context.Context, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, &Failure{Reason: ReasonInvalidTarget, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	for key, value := range h.headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, fail(fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize))

	return resp.StatusCode, nil
}

// Close releases idle connections held by the probe's transport.
//
// Safe to call multiple times and on a nil receiver. The probe stays usable.
func (h *HTTP) Close() {
	if h == nil || h.client == nil {
		return
	}
	if transport, ok := h.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
