package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// StartMockTarget runs a mock health endpoint that answers 503 until upAfter
// has elapsed and 200 from then on. Each request is logged with its number.
// Call this in a goroutine before starting the poller.
func StartMockTarget(addr string, upAfter time.Duration) {
	upAt := time.Now().Add(upAfter)
	var requests atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		up := time.Now().After(upAt)
		slog.Info("mock request", "n", n, "method", r.Method, "up", up)

		if !up {
			http.Error(w, "starting", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
