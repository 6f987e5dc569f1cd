package cli

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/muhammedkisla/deryailetisim/internal/config"
	"github.com/muhammedkisla/deryailetisim/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *sqlx.DB) error {
			if err := database.MigrateUp(db.DB); err != nil {
				return err
			}
			return printVersion(cmd, db)
		})
	},
}

var migrateDownSteps int

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Long: `Roll back the given number of migrations.

Examples:
  deryactl migrate down --steps 1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateDownSteps <= 0 {
			return fmt.Errorf("--steps must be positive")
		}
		return withDB(func(db *sqlx.DB) error {
			if err := database.MigrateDown(db.DB, migrateDownSteps); err != nil {
				return err
			}
			return printVersion(cmd, db)
		})
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

func printVersion(cmd *cobra.Command, db *sqlx.DB) error {
	version, dirty, err := database.MigrationVersion(db.DB)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
	return nil
}

func withDB(fn func(db *sqlx.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}
