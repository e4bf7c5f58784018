// Package main is the entry point for the netwait CLI.
//
// netwait blocks until a network resource is reachable. It can be run with
// flags alone or with a YAML configuration file.
//
// Usage:
//
//	netwait wait --target https://example.com/   # Wait for a URL
//	netwait wait -c netwait.yaml                 # Wait using a config file
//	netwait validate -c netwait.yaml             # Validate configuration
//	netwait history -f history.db                # Show recorded attempts
//	netwait version                              # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd builds the command tree. It just displays help when called
// without subcommands.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "netwait",
		Short: "Wait until a network resource is reachable",
		Long: `netwait polls a target on a fixed interval until a probe succeeds,
then prints the probe latency and exits.

Quick start:
  netwait wait --target https://www.google.com/ --interval 2s

Example config:
  target: https://api.example.com/health
  interval: 2s
  deadline: 5m
  probe:
    type: http
    method: HEAD
    timeout: 10s`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newWaitCmd(),
		newValidateCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// newVersionCmd prints version information.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of this netwait binary.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "netwait %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
