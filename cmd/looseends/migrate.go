package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"loose-ends/internal/config"
	"loose-ends/internal/logging"
	"loose-ends/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create or update the database schema and exit.

The server migrates on start as well; this command is for preparing a
database ahead of a deploy.`,
	RunE: runMigrate,
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := repository.NewDB(cfg.Database.DSN, logger)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer sqlDB.Close()

	logger.Info("database migrated", zap.String("dsn", cfg.Database.DSN))
	return nil
}
