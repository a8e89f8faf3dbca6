package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasklane/tasklane-core/internal/auth"
	"github.com/tasklane/tasklane-core/internal/infrastructure/database"
)

// newMigrateCmd returns the migrate command group.
func newMigrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := openRaw(cmd, opts)
				if err != nil {
					return err
				}
				defer db.Close() //nolint:errcheck // CLI exit

				if err := db.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("running migrations: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := openRaw(cmd, opts)
				if err != nil {
					return err
				}
				defer db.Close() //nolint:errcheck // CLI exit

				if err := db.MigrateDown(cmd.Context()); err != nil {
					return fmt.Errorf("rolling back migration: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "latest migration rolled back")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := openRaw(cmd, opts)
				if err != nil {
					return err
				}
				defer db.Close() //nolint:errcheck // CLI exit

				applied, pending, err := db.GetMigrationStatus(cmd.Context())
				if err != nil {
					return fmt.Errorf("reading migration status: %w", err)
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT")
				for _, m := range applied {
					fmt.Fprintf(tw, "%s\tapplied\t%s\n", m.Version, m.AppliedAt.Format(time.RFC3339))
				}
				for _, m := range pending {
					fmt.Fprintf(tw, "%s\tpending\t-\n", m.Version)
				}
				return tw.Flush()
			},
		},
	)
	return cmd
}

// newSeedAdminCmd creates the first admin account when there are no users.
func newSeedAdminCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the first admin account if no users exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*opts)
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // CLI exit

			password, err := auth.SeedAdmin(cmd.Context(), auth.NewUserRepository(db),
				cfg.Security.Seed.AdminEmail, cfg.Security.Seed.AdminUserName, log)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if password == "" {
				fmt.Fprintln(out, "users already exist, nothing to do")
				return nil
			}
			fmt.Fprintf(out, "admin %s created with password %s\n", cfg.Security.Seed.AdminEmail, password)
			return nil
		},
	}
}

// openRaw opens the configured database without migrating it.
func openRaw(cmd *cobra.Command, opts *options) (*database.DB, error) {
	cfg, _, err := loadConfig(*opts)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}
