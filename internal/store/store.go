package store

import (
	"context"
	"time"
)

// Record is the storage representation of one probe attempt, shaped for
// JSON serialization by the status endpoint.
type Record struct {
	// SessionID identifies the poller that made the attempt.
	SessionID string `json:"session_id"`

	// Target is the probed resource.
	Target string `json:"target"`

	// Attempt is the 1-based attempt number within the session.
	Attempt int `json:"attempt"`

	// StartedAt is when the probe was issued.
	StartedAt time.Time `json:"started_at"`

	// LatencyMs is the probe latency in milliseconds.
	LatencyMs int64 `json:"latency_ms"`

	// Success reports whether the target was reachable.
	Success bool `json:"success"`

	// Reason classifies a failure (timeout, dns, network, status, ...).
	Reason string `json:"reason,omitempty"`

	// Error contains the failure message. nil on success.
	Error *string `json:"error"`
}

// Store defines the interface for recording and reading attempts.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Append records one attempt.
	Append(ctx context.Context, r Record) error

	// Recent returns up to limit records, newest first. A limit of zero or
	// less returns every retained record.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// Close releases resources held by the store.
	Close() error
}
