// cmd/server/migrate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/javajoker/applied-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB, _ []string) error {
		return database.RunMigrations(db)
	}),
}

var migrateToCmd = &cobra.Command{
	Use:   "to <migration-id>",
	Short: "Apply migrations up to and including the given ID",
	Args:  cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB, args []string) error {
		return database.MigrateTo(db, args[0])
	}),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recently applied migration",
	Args:  cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB, _ []string) error {
		return database.RollbackLast(db)
	}),
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether they are applied",
	Args:  cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB, _ []string) error {
		statuses, err := database.Status(db)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			mark := " "
			if s.Applied {
				mark = "x"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", mark, s.ID)
		}
		return nil
	}),
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateToCmd, migrateDownCmd, migrateStatusCmd)
}

func withDB(fn func(cmd *cobra.Command, db *gorm.DB, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := database.Initialize(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.Close(db)

		return fn(cmd, db.WithContext(cmd.Context()), args)
	}
}
