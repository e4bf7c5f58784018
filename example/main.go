package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/netwait"
)

func main() {
	// start mock target that comes up after 5s (see mock_server.go)
	go StartMockTarget(":9999", 5*time.Second)
	time.Sleep(100 * time.Millisecond)

	p, err := netwait.New(
		netwait.WithProbeTimeout(2*time.Second),
		netwait.WithAttemptHook(func(a netwait.Attempt) {
			if !a.Succeeded() {
				fmt.Printf("  attempt %d: %s\n", a.Number, a.Reason())
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create poller", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  Waiting for http://localhost:9999/health (up in ~5s)")
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = p.Start(ctx, "http://localhost:9999/health", time.Second, func(latency time.Duration) {
		fmt.Printf("  online after %d attempts, latency %s\n", p.Attempts(), latency)
	})
	if err != nil {
		slog.Error("failed to start poller", "error", err)
		os.Exit(1)
	}

	if _, err := p.Wait(context.Background()); err != nil {
		slog.Error("gave up waiting", "error", err)
		os.Exit(1)
	}
}
