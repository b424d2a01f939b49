package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"sessionbot/config"
	"sessionbot/database"
	"sessionbot/events"
	"sessionbot/models"
	"sessionbot/repository"
	"sessionbot/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// openFactory connects to the database for one-shot admin commands. Events published
// here have no subscribers.
func openFactory(ctx context.Context) (*database.DB, service.UnitOfWorkFactory, error) {
	cfg := config.Get()
	ConfigureLogging(cfg)

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, repository.NewUnitOfWorkFactory(db, events.NewBus()), nil
}

type ingestOptions struct {
	platform string
	country  string
	price    int64
	path     string
}

// parseIngestArgs returns nil options when only help was requested
func parseIngestArgs(args []string) (*ingestOptions, error) {
	var opts ingestOptions

	flagSet := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
	flagSet.StringVar(&opts.platform, "platform", "", "platform tag, e.g. telegram")
	flagSet.StringVar(&opts.country, "country", "", "country tag, e.g. india")
	flagSet.Int64Var(&opts.price, "price", 0, "price in whole rupees")
	flagSet.StringVar(&opts.path, "file", "", "path to the session ZIP archive")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, nil
		}
		return nil, err
	}
	if flagSet.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", flagSet.Args())
	}
	if opts.path == "" {
		return nil, fmt.Errorf("--file is required")
	}
	return &opts, nil
}

// Ingest adds one archive to the inventory:
//
//	sessionbot ingest --platform telegram --country india --price 10 --file numbers.zip
func Ingest(ctx context.Context, args []string) error {
	opts, err := parseIngestArgs(args)
	if err != nil || opts == nil {
		return err
	}

	payload, err := os.ReadFile(opts.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.path, err)
	}

	db, factory, err := openFactory(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	record, err := service.NewInventoryService(factory).Ingest(ctx, opts.platform, opts.country, opts.price, payload)
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", opts.path, err)
	}

	log.WithFields(log.Fields{
		"numberID": record.ID,
		"platform": record.Platform,
		"country":  record.Country,
		"price":    models.FormatINR(record.Price),
	}).Info("Number added")
	return nil
}

type adjustOptions struct {
	userID int64
	amount int64
	reason string
}

func (o *adjustOptions) metadata() map[string]any {
	metadata := map[string]any{"source": "cli"}
	if o.reason != "" {
		metadata["reason"] = o.reason
	}
	return metadata
}

// parseAdjustArgs returns nil options when only help was requested
func parseAdjustArgs(args []string) (*adjustOptions, error) {
	var opts adjustOptions

	flagSet := pflag.NewFlagSet("adjust-balance", pflag.ContinueOnError)
	flagSet.Int64Var(&opts.userID, "user", 0, "Telegram user id")
	flagSet.Int64Var(&opts.amount, "amount", 0, "signed amount in paise")
	flagSet.StringVar(&opts.reason, "reason", "", "note stored in the balance history")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, nil
		}
		return nil, err
	}
	if flagSet.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", flagSet.Args())
	}
	if opts.userID == 0 || opts.amount == 0 {
		return nil, fmt.Errorf("--user and a non-zero --amount are required")
	}
	return &opts, nil
}

// AdjustBalance applies a signed paise adjustment to one wallet:
//
//	sessionbot adjust-balance --user 123 --amount -500 --reason "refund dispute"
func AdjustBalance(ctx context.Context, args []string) error {
	opts, err := parseAdjustArgs(args)
	if err != nil || opts == nil {
		return err
	}

	db, factory, err := openFactory(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	newBalance, err := service.NewLedgerService(factory).Adjust(ctx, opts.userID, opts.amount, models.TransactionTypeAdminAdjustment, opts.metadata())
	if err != nil {
		return fmt.Errorf("failed to adjust balance of %d: %w", opts.userID, err)
	}

	log.WithFields(log.Fields{
		"userID":     opts.userID,
		"amount":     models.FormatINR(opts.amount),
		"newBalance": models.FormatINR(newBalance),
	}).Info("Balance adjusted")
	return nil
}
