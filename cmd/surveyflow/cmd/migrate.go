package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/surveyflow/internal/core/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closer, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closer.Close()

		database, err := db.Open(cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		if err := db.MigrateUp(cmd.Context(), database); err != nil {
			return err
		}
		logger.Info("migrations applied", "driver", database.DriverName())
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, closer, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closer.Close()

		database, err := db.Open(cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		statuses, err := db.MigrateStatus(cmd.Context(), database)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MIGRATION\tSTATUS\tAPPLIED AT\tDURATION")
		for _, s := range statuses {
			state, appliedAt, duration := "pending", "-", "-"
			if s.Applied {
				state = "applied"
				duration = fmt.Sprintf("%dms", s.ExecutionMs)
				if s.AppliedAt != nil {
					appliedAt = s.AppliedAt.UTC().Format(time.RFC3339)
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, state, appliedAt, duration)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
}
