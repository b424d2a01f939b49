package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"sessionbot/cmd"
	"sessionbot/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.WithError(err).Error("sessionbot failed")
		os.Exit(1)
	}
}

// run dispatches the subcommand and returns once it finishes or a signal arrives
func run(args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	command := ""
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "migrate":
		return handleMigrationCommand(args)
	case "ingest":
		return cmd.Ingest(ctx, args)
	case "adjust-balance":
		return cmd.AdjustBalance(ctx, args)
	case "":
		return cmd.Run(ctx)
	default:
		return fmt.Errorf("unknown command %q (want migrate, ingest or adjust-balance)", command)
	}
}

func handleMigrationCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sessionbot migrate [up|down|status] [args...]")
	}

	switch args[0] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid steps value %q: %w", args[1], err)
			}
			steps = n
		}
		return database.MigrateDown(steps)
	case "status":
		status, err := database.MigrateStatus()
		if err != nil {
			return err
		}
		if !status.Applied {
			log.Info("No migrations applied")
			return nil
		}
		log.WithFields(log.Fields{
			"version": status.Version,
			"dirty":   status.Dirty,
		}).Info("Migration status")
		return nil
	default:
		return fmt.Errorf("unknown migration command: %s", args[0])
	}
}
