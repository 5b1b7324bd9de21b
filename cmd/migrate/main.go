package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"bookshelf-api/internal/config"
	"bookshelf-api/internal/infrastructure/migrate"
	"bookshelf-api/pkg/logger"
)

const usage = "usage: migrate [up|down|status]"

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"), "info")

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	if err := run(command); err != nil {
		logger.Error("Migration failed", err)
		os.Exit(1)
	}
}

func run(command string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := migrate.Open(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	runner, err := migrate.NewEmbeddedRunner(db)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		n, err := runner.Up(ctx)
		if err != nil {
			return err
		}
		logger.Info("Migrations applied", map[string]interface{}{"count": n})

	case "down":
		m, err := runner.Down(ctx)
		if err != nil {
			return err
		}
		if m == nil {
			logger.Info("Nothing to roll back", nil)
			return nil
		}
		logger.Info("Migration rolled back", map[string]interface{}{"migration": m.String()})

	case "status":
		status, err := runner.Status(ctx)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(status))
		for name := range status {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			state := "pending"
			if status[name] {
				state = "applied"
			}
			fmt.Printf("%-40s %s\n", name, state)
		}

	default:
		return fmt.Errorf("unknown command %q, %s", command, usage)
	}
	return nil
}
