package config

import (
	"fmt"
	"log/slog"

	"github.com/jpalmerr/netwait"
)

// BuildProbe converts the probe configuration into a [netwait.Probe].
func BuildProbe(cfg *Config) (netwait.Probe, error) {
	switch cfg.Probe.Type {
	case ProbeHTTP, "":
		return netwait.HTTPProbe(cfg.Probe.Method, cfg.Probe.Headers), nil
	case ProbeTCP:
		return netwait.TCPProbe(), nil
	case ProbeDNS:
		return netwait.DNSProbe(), nil
	default:
		return nil, fmt.Errorf("unknown probe type %q", cfg.Probe.Type)
	}
}

// BuildOptions converts parsed configuration into poller options.
//
// Extra options (attempt hooks, session IDs) are appended after the ones
// derived from cfg.
func BuildOptions(cfg *Config, logger *slog.Logger, extra ...netwait.Option) ([]netwait.Option, error) {
	probe, err := BuildProbe(cfg)
	if err != nil {
		return nil, err
	}

	opts := []netwait.Option{
		netwait.WithProbe(probe),
		netwait.WithProbeTimeout(cfg.Probe.Timeout.Duration()),
	}
	if logger != nil {
		opts = append(opts, netwait.WithLogger(logger))
	}
	return append(opts, extra...), nil
}
