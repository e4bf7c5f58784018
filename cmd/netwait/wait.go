package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jpalmerr/netwait"
	"github.com/jpalmerr/netwait/config"
	"github.com/jpalmerr/netwait/internal/logging"
	"github.com/jpalmerr/netwait/internal/server"
	"github.com/jpalmerr/netwait/internal/store"
	"github.com/spf13/cobra"
)

// recentLimit is the number of attempts kept in memory for the status endpoint.
const recentLimit = 50

// newWaitCmd runs a poller until the target is reachable.
func newWaitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Wait until the target is reachable",
		Long: `Probe the target on a fixed interval until one probe succeeds.

Settings come from the config file when one is given; flags override it.
Without a config file the defaults are used: https://www.google.com/
probed with HTTP HEAD every 2s.

On success the probe latency is printed and the exit code is 0. The command
exits 1 when the deadline passes or on SIGINT/SIGTERM.

Example:
  netwait wait --target https://example.com/health --interval 1s
  netwait wait --target db.internal:5432 --probe tcp --deadline 2m
  netwait wait -c netwait.yaml --history /var/lib/netwait/history.db`,
		RunE: runWait,
	}

	f := cmd.Flags()
	f.StringP("config", "c", "", "path to config file")
	f.String("target", "", "resource to probe (URL, host:port or host name)")
	f.Duration("interval", 0, "delay between probes")
	f.String("probe", "", "probe type: http, tcp or dns")
	f.Duration("probe-timeout", 0, "timeout for a single probe")
	f.Duration("deadline", 0, "give up after this long (0 waits forever)")
	f.String("history", "", "SQLite database recording every attempt")
	f.String("status-addr", "", "listen address of the status endpoint")
	return cmd
}

func runWait(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, logCloser, err := logging.New(logConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to open log output: %w", err)
	}
	defer logCloser.Close()

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recent := store.NewMemoryStore(recentLimit)
	defer recent.Close()

	var history store.Store
	if cfg.History != "" {
		history, err = store.NewSQLiteStore(cfg.History)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer history.Close()
	}

	opts, err := config.BuildOptions(cfg, logger,
		netwait.WithAttemptHook(recordAttempt(ctx, logger, recent, history)),
	)
	if err != nil {
		return fmt.Errorf("failed to build poller options: %w", err)
	}

	p, err := netwait.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create poller: %w", err)
	}

	if cfg.StatusAddr != "" {
		srv := server.NewServer(&pollerStatus{poller: p, recent: recent}, cfg.StatusAddr, logger)
		if err := srv.Start(ctx); err != nil {
			return err
		}
	}

	runCtx := ctx
	if d := cfg.Deadline.Duration(); d > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	out := cmd.OutOrStdout()
	err = p.Start(runCtx, cfg.Target, cfg.Interval.Duration(), func(latency time.Duration) {
		fmt.Fprintf(out, "%s is reachable (latency %s, %d attempts)\n",
			cfg.Target, latency.Round(time.Millisecond), p.Attempts())
	})
	if err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}
	defer p.Stop()

	if _, err := p.Wait(context.Background()); err != nil {
		return waitError(runCtx, cfg, p.Attempts(), err)
	}
	return nil
}

// waitError explains why the poller stopped without success.
func waitError(runCtx context.Context, cfg *config.Config, attempts int, err error) error {
	if !errors.Is(err, netwait.ErrStopped) {
		return err
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s not reachable within %s (%d attempts)",
			cfg.Target, cfg.Deadline.Duration(), attempts)
	}
	return fmt.Errorf("interrupted after %d attempts", attempts)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// applyFlagOverrides copies explicitly set flags onto cfg.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()

	if f.Changed("target") {
		cfg.Target, _ = f.GetString("target")
	}
	if f.Changed("probe") {
		typ, _ := f.GetString("probe")
		cfg.Probe.Type = strings.ToLower(strings.TrimSpace(typ))
	}
	if f.Changed("history") {
		cfg.History, _ = f.GetString("history")
	}
	if f.Changed("status-addr") {
		cfg.StatusAddr, _ = f.GetString("status-addr")
	}

	durations := []struct {
		flag string
		dst  *config.Duration
	}{
		{"interval", &cfg.Interval},
		{"probe-timeout", &cfg.Probe.Timeout},
		{"deadline", &cfg.Deadline},
	}
	for _, d := range durations {
		if !f.Changed(d.flag) {
			continue
		}
		v, err := f.GetDuration(d.flag)
		if err != nil {
			return err
		}
		*d.dst = config.Duration(v)
	}
	return nil
}

func logConfig(cfg *config.Config) logging.Config {
	return logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}
}

// recordAttempt returns an attempt hook writing to the in-memory store and,
// when configured, the history database.
func recordAttempt(ctx context.Context, logger *slog.Logger, recent, history store.Store) func(netwait.Attempt) {
	return func(a netwait.Attempt) {
		rec := toRecord(a)
		if err := recent.Append(ctx, rec); err != nil {
			logger.Warn("failed to keep attempt", "attempt", a.Number, "error", err)
		}
		if history == nil {
			return
		}
		if err := history.Append(ctx, rec); err != nil {
			logger.Warn("failed to record attempt", "attempt", a.Number, "error", err)
		}
	}
}

func toRecord(a netwait.Attempt) store.Record {
	rec := store.Record{
		SessionID: a.SessionID,
		Target:    a.Target,
		Attempt:   a.Number,
		StartedAt: a.StartedAt,
		LatencyMs: a.Latency.Milliseconds(),
		Success:   a.Succeeded(),
		Reason:    a.Reason(),
	}
	if a.Err != nil {
		msg := a.Err.Error()
		rec.Error = &msg
	}
	return rec
}

// pollerStatus adapts a poller and its recent attempts to [server.Source].
type pollerStatus struct {
	poller *netwait.Poller
	recent store.Store
}

func (s *pollerStatus) Status(ctx context.Context) (server.Status, error) {
	recs, err := s.recent.Recent(ctx, 0)
	if err != nil {
		return server.Status{}, err
	}

	st := server.Status{
		SessionID: s.poller.SessionID(),
		Target:    s.poller.Target(),
		State:     s.poller.State().String(),
		Attempts:  s.poller.Attempts(),
		Recent:    recs,
	}
	if latency, ok := s.poller.Latency(); ok {
		ms := latency.Milliseconds()
		st.LatencyMs = &ms
	}
	return st, nil
}
