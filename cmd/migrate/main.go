package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"userauth/backend/internal/config"
	"userauth/backend/internal/infrastructure/postgres"
	"userauth/backend/internal/logger"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status|down)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	target := flag.Int64("target", 0, "target version for down command (optional)")
	flag.Parse()

	log := logger.New("userauth-migrate", slog.LevelInfo)

	dsn, err := config.LoadDatabaseURL()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := postgres.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	switch *command {
	case "up":
		err = db.Migrate(ctx)
	case "status":
		err = db.MigrationStatus(ctx)
	case "down":
		err = db.MigrateDown(ctx, *target)
	default:
		log.Error("unsupported command", "command", *command)
		db.Close()
		os.Exit(2)
	}
	if err != nil {
		log.Error("migration command failed", "command", *command, "error", err)
		db.Close()
		os.Exit(1)
	}

	log.Info("migration command completed", "command", *command)
}
