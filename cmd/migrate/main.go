// Command migrate applies the embedded goose migrations.
//
//	migrate [up|down|status|redo|reset|version] [args...]
package main

import (
	"context"
	"fmt"
	"os"

	"event-token-ledger/config"
	pgStorage "event-token-ledger/internal/adapter/storage/postgres"
	"event-token-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("ETL_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	command := "up"
	var args []string
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	if err := pgStorage.RunMigrations(context.Background(), cfg.Database.DSN(), command, args...); err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("Migration failed")
	}
	log.Info().Str("command", command).Msg("Migration finished")
}
