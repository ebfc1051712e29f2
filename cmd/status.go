package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/songplay-dwh/internal/schema"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show row counts for every warehouse table",
	Long:  "Counts the rows in the staging, fact and dimension tables. Missing tables are reported, not fatal.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		conn, err := openWarehouse(ctx, "schema")
		if err != nil {
			return err
		}
		defer conn.Close()

		formatCounts(cmd.OutOrStdout(), schema.Counts(ctx, conn))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// formatCounts writes a tabular representation of table counts to out.
func formatCounts(out io.Writer, counts []schema.TableCount) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TABLE\tROLE\tROWS\tERROR")
	_, _ = fmt.Fprintln(w, "-----\t----\t----\t-----")

	for _, c := range counts {
		rows := fmt.Sprintf("%d", c.Rows)
		errMsg := ""
		if c.Err != nil {
			rows = "-"
			errMsg = truncate(c.Err.Error(), 60)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Table, c.Role, rows, errMsg)
	}
	_ = w.Flush()
}

// truncate shortens s to max bytes, marking the cut with "...".
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
