// Command migrate runs goose commands against the ledger database.
//
//	migrate up | down | status | version | redo | reset
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"exchange-ticket-bot/internal/common/logger"
	"exchange-ticket-bot/internal/platform/db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()
	logger.Init("exchange-ticket-bot-migrate", os.Getenv("DEBUG") == "true")

	command := "up"
	var args []string
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}
	pg, err := db.Open(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	if err := db.RunMigrations(ctx, pg, command, args...); err != nil {
		logger.Fatal().Err(err).Str("command", command).Msg("Migration failed")
	}
	logger.Info().Str("command", command).Msg("Migration finished")
}
