package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/records-api/internal/config"
	"github.com/jwalitptl/records-api/internal/repository/postgres"
	"github.com/jwalitptl/records-api/internal/seed"
	"github.com/jwalitptl/records-api/pkg/logger"
	"github.com/jwalitptl/records-api/pkg/messaging"
	"github.com/jwalitptl/records-api/pkg/messaging/redis"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "recordsctl",
		Short:        "Patient records administration",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(eventsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type env struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func setup() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	l, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: logger.FormatConsole, Output: os.Stderr})
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: l}, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Database.Driver == "memory" {
		return nil, fmt.Errorf("database.driver %q has no schema to manage", cfg.Database.Driver)
	}
	return postgres.NewDB(ctx, cfg.Database)
}

func migrateUp(ctx context.Context, db *sqlx.DB) error {
	applied, err := postgres.NewMigrator(db).Up(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	for _, name := range applied {
		fmt.Printf("applied %s\n", name)
	}
	fmt.Printf("Applied %d migration(s) successfully.\n", len(applied))
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}

			db, err := openDB(cmd.Context(), e.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			return migrateUp(cmd.Context(), db)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}

			db, err := openDB(cmd.Context(), e.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			statuses, err := postgres.NewMigrator(db).Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample patients and notes into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}

			db, err := openDB(cmd.Context(), e.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if !skipMigrate {
				if err := migrateUp(cmd.Context(), db); err != nil {
					return err
				}
			}

			res, err := seed.Run(cmd.Context(), postgres.NewStore(db, nil), &e.logger)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			if res.Skipped {
				fmt.Println("Database already has sample data. Skipping initialization.")
				return nil
			}
			fmt.Printf("Inserted %d patients and %d notes.\n", res.Patients, res.Notes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations first")

	return cmd
}

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect record change events",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "tail",
		Short: "Print events published on the events channel until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}

			broker, err := redis.NewRedisBroker(redis.Config{
				URL:             e.cfg.Redis.URL,
				MaxRetries:      e.cfg.Redis.MaxRetries,
				RetryBackoff:    e.cfg.Redis.RetryBackoff,
				PoolSize:        e.cfg.Redis.PoolSize,
				MinIdleConns:    e.cfg.Redis.MinIdleConns,
				BreakerFailures: e.cfg.Redis.BreakerFailures,
				BreakerTimeout:  e.cfg.Redis.BreakerTimeout,
			}, &e.logger, nil)
			if err != nil {
				return err
			}
			defer broker.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			e.logger.Info().Str("channel", e.cfg.Events.Channel).Msg("tailing events")
			err = messaging.Consume(ctx, broker, e.cfg.Events.Channel,
				func(m messaging.Message) error {
					fmt.Printf("%s %-16s %s %v\n", m.OccurredAt.Format("2006-01-02T15:04:05Z07:00"), m.Type, m.ID, m.Payload)
					return nil
				},
				func(err error) {
					e.logger.Warn().Err(err).Msg("failed to decode event")
				},
			)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	})

	return cmd
}
