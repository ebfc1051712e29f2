package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/songplay-dwh/internal/etl"
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Load staging tables and populate the star schema",
	Long: `Bulk-loads staging_events and staging_songs, then runs the insert queries that fill
songplays, users, songs, artists and time. On Redshift the staging load is a COPY from
object storage; the postgres and sqlite dialects read the configured local paths.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		conn, err := openWarehouse(ctx, "etl")
		if err != nil {
			return err
		}
		defer conn.Close()

		src := etl.SourcesFromConfig(cfg)
		zap.L().Info("starting etl",
			zap.String("dialect", conn.Dialect().String()),
			zap.String("log_data", src.LogData),
			zap.String("song_data", src.SongData),
			zap.Bool("fail_fast", cfg.Warehouse.FailFast),
		)

		report := etl.New(conn, src, policy()).Run(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "ETL complete: %d statements, %d rows\n",
			len(report.Results), report.RowsAffected())
		return finish(cmd.ErrOrStderr(), report)
	},
}

func init() {
	rootCmd.AddCommand(etlCmd)
}
