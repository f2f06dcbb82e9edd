package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/solatis/surveyflow/internal/core/config"
	"github.com/solatis/surveyflow/internal/core/db"
	"github.com/solatis/surveyflow/internal/core/logging"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:           "surveyflow",
	Short:         "surveyflow survey logic engine",
	Long:          `surveyflow evaluates conditional survey logic: question visibility, early termination and next-question navigation.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file and environment, then applies the
// persistent flags the user actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db-url") {
		cfg.Database.URL = dbURL
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads configuration and installs the process logger. The returned
// closer flushes the log file, if any.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, io.Closer, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, closer := logging.Setup(cfg.Log)
	return cfg, logger, closer, nil
}

// openStore connects to the configured database. With migrate set, pending
// migrations are applied first; otherwise pending migrations are an error.
func openStore(ctx context.Context, cfg *config.Config, migrate bool) (*sqlx.DB, *db.Store, error) {
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("database URL required (--db-url or SF_DATABASE_URL)")
	}
	database, err := db.Open(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if migrate {
		if err := db.MigrateUp(ctx, database); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	} else if err := requireMigrated(ctx, database); err != nil {
		database.Close()
		return nil, nil, err
	}

	store, err := db.NewStore(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to create store: %w", err)
	}
	return database, store, nil
}

func requireMigrated(ctx context.Context, database *sqlx.DB) error {
	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			return fmt.Errorf("migration %s not applied - run 'surveyflow migrate up' first", s.ID)
		}
	}
	return nil
}
