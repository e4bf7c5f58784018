package main

import (
	"fmt"

	"github.com/jpalmerr/netwait/config"
	"github.com/spf13/cobra"
)

// newValidateCmd validates a config file without probing anything.
func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		Long: `Validate a netwait configuration file without probing the target.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  netwait validate -c netwait.yaml
  netwait validate --config /etc/netwait/netwait.yaml`,
		RunE: runValidate,
	}

	cmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Target:        %s\n", cfg.Target)
	fmt.Fprintf(out, "  Probe:         %s\n", describeProbe(cfg))
	fmt.Fprintf(out, "  Interval:      %s\n", cfg.Interval.Duration())
	fmt.Fprintf(out, "  Deadline:      %s\n", orNone(cfg.Deadline.Duration().String(), cfg.Deadline == 0))
	fmt.Fprintf(out, "  History:       %s\n", orNone(cfg.History, cfg.History == ""))
	fmt.Fprintf(out, "  Status addr:   %s\n", orNone(cfg.StatusAddr, cfg.StatusAddr == ""))

	return nil
}

func describeProbe(cfg *config.Config) string {
	if cfg.Probe.Type != config.ProbeHTTP {
		return fmt.Sprintf("%s (timeout %s)", cfg.Probe.Type, cfg.Probe.Timeout.Duration())
	}
	method := cfg.Probe.Method
	if method == "" {
		method = "HEAD"
	}
	return fmt.Sprintf("http %s (timeout %s, %d headers)",
		method, cfg.Probe.Timeout.Duration(), len(cfg.Probe.Headers))
}

func orNone(s string, none bool) string {
	if none {
		return "none"
	}
	return s
}
