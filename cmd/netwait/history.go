package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jpalmerr/netwait/internal/store"
	"github.com/spf13/cobra"
)

// newHistoryCmd prints attempts recorded by earlier wait runs.
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded attempts",
		Long: `Print the most recent attempts recorded in a history database,
newest first. The database is written by "netwait wait --history".

Example:
  netwait history -f /var/lib/netwait/history.db
  netwait history -c netwait.yaml --limit 50`,
		RunE: runHistory,
	}

	cmd.Flags().StringP("file", "f", "", "history database path")
	cmd.Flags().StringP("config", "c", "", "read the history path from this config file")
	cmd.Flags().IntP("limit", "n", 20, "number of attempts to show (0 shows all)")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path = cfg.History
	}
	if path == "" {
		return fmt.Errorf("no history database: pass --file or set history in the config")
	}

	st, err := store.NewSQLiteStore(path)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer st.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := st.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No attempts recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSESSION\tATTEMPT\tRESULT\tLATENCY\tTARGET")
	for _, r := range records {
		result := "ok"
		if !r.Success {
			result = "fail:" + r.Reason
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%dms\t%s\n",
			r.StartedAt.Local().Format(time.RFC3339),
			shortID(r.SessionID),
			r.Attempt,
			result,
			r.LatencyMs,
			r.Target,
		)
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
