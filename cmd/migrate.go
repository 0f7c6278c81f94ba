package cmd

import (
	"context"
	"log"

	"github.com/frahmantamala/bookkeeping/db"
	"github.com/frahmantamala/bookkeeping/internal/migration"
	"github.com/frahmantamala/bookkeeping/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the embedded db migration files",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	initLogger(cfg)

	sqlDB, err := goose.OpenDBWithDriver("pgx", cfg.Database.GetDSN())
	if err != nil {
		log.Fatalf("goose: failed to open DB: %v\n", err)
	}
	defer sqlDB.Close()

	migrator := migration.NewMigrator(sqlDB, db.Migrations, db.MigrationsDir, logger.LoggerWrapper())
	if migrateRollback {
		result, err := migrator.Rollback(ctx)
		if err != nil {
			log.Fatalf("goose down: %v", err)
		}
		log.Printf("rolled back from version %d to %d", result.FromVersion, result.ToVersion)
		return nil
	}

	result, err := migrator.Up(ctx)
	if err != nil {
		log.Fatalf("goose up: %v", err)
	}
	log.Printf("migrated from version %d to %d", result.FromVersion, result.ToVersion)
	return nil
}
