// Standalone mock target for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/netwait wait -c example/netwait.yaml
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// upAfter is how long the mock answers 503 before turning healthy.
const upAfter = 10 * time.Second

func main() {
	fmt.Println("Mock target starting on :9999")
	fmt.Printf("/health answers 503 for %s, then 200\n", upAfter)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	upAt := time.Now().Add(upAfter)
	var requests atomic.Int64

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		if time.Now().Before(upAt) {
			slog.Info("still starting", "request", n)
			http.Error(w, "starting", http.StatusServiceUnavailable)
			return
		}
		slog.Info("healthy", "request", n)
		w.WriteHeader(http.StatusOK)
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
