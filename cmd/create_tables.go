package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/songplay-dwh/internal/schema"
)

var createTablesCmd = &cobra.Command{
	Use:   "create-tables",
	Short: "Drop and recreate all warehouse tables",
	Long: `Drops the staging, fact and dimension tables if they exist, then creates them again.
Each statement commits on its own; a failing statement is logged and the rest still run
unless warehouse.fail_fast is set.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		conn, err := openWarehouse(ctx, "schema")
		if err != nil {
			return err
		}
		defer conn.Close()

		report := schema.NewManager(conn, policy()).Reset(ctx)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "All of the tables have been dropped")
		if report.Skipped() == 0 {
			fmt.Fprintln(out, "All of the tables have been created")
		}
		return finish(cmd.ErrOrStderr(), report)
	},
}

func init() {
	rootCmd.AddCommand(createTablesCmd)
}
