package main

import (
	"github.com/spf13/cobra"

	"tradecore/internal/adapter/repository/mysql"
	"tradecore/internal/config"
	"tradecore/internal/infrastructure/db"
	"tradecore/internal/infrastructure/logging"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			log := logging.New(cfg.LogLevel, cfg.AppEnv)
			gdb, err := db.Open(cfg.DBDriver, cfg.DSN(), db.GormLogLevel(cfg.LogLevel))
			if err != nil {
				return err
			}
			if err := mysql.Migrate(gdb); err != nil {
				return err
			}
			log.Info().Str("db", cfg.DBDriver).Int("tables", len(mysql.Models())).Msg("schema migrated")
			return nil
		},
	}
}
