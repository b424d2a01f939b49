package cmd

import (
	"context"
	"fmt"
	"time"

	"sessionbot/bot"
	"sessionbot/config"
	"sessionbot/database"
	"sessionbot/events"
	"sessionbot/infrastructure"
	"sessionbot/infrastructure/observability"
	"sessionbot/payment"
	"sessionbot/repository"
	"sessionbot/service"
	"sessionbot/session"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)
	log.Info("Starting session bot...")

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics := observability.GetMetrics()

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize conversation state store
	log.Info("Connecting to Redis...")
	redisClient, err := session.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()
	stateStore := session.NewStateStore(redisClient, cfg.ConversationTTL)

	// Initialize event bus and unit of work factory
	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Forward domain events to NATS when configured
	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		natsClient, err = connectNATS(cfg.NATSServers)
		if err != nil {
			return err
		}
		defer natsClient.Close()
		infrastructure.NewNATSEventPublisher(natsClient, metrics).Forward(eventBus)
	} else {
		log.Info("NATS_SERVERS not set, event forwarding disabled")
	}

	// Initialize services
	gateway := payment.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayCallbackURL)
	userService := service.NewUserService(uowFactory, cfg.AdminIDs, cfg.ReferralBonus)
	paymentService := service.NewPaymentService(uowFactory, gateway, metrics, cfg.MinRecharge)
	services := bot.Services{
		User:       userService,
		Inventory:  service.NewInventoryService(uowFactory),
		Allocation: service.NewAllocationService(uowFactory, metrics),
		Ledger:     service.NewLedgerService(uowFactory),
		OTP:        service.NewOTPService(uowFactory, userService, metrics),
		Payment:    paymentService,
	}

	// Start the webhook and health server
	webhookServer := payment.NewWebhookServer(cfg.HTTPAddr, cfg.RazorpayWebhookSecret, paymentService, map[string]payment.Pinger{
		"database": db,
		"redis":    stateStore,
	})
	webhookServer.Start()

	// Initialize Telegram bot
	log.Info("Initializing Telegram bot...")
	telegramBot, err := bot.New(bot.Config{
		Token:         cfg.TelegramToken,
		SupportURL:    cfg.SupportURL,
		LogChannelID:  cfg.LogChannelID,
		ReferralBonus: cfg.ReferralBonus,
	}, services, stateStore, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	if err := telegramBot.Start(ctx); err != nil {
		return fmt.Errorf("failed to start Telegram bot: %w", err)
	}

	log.WithField("environment", cfg.Environment).Info("Bot is running")
	<-ctx.Done()

	log.Info("Shutting down bot...")
	telegramBot.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := webhookServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down webhook server")
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return nil
}

func connectNATS(servers string) (*infrastructure.NATSClient, error) {
	client := infrastructure.NewNATSClient(servers)
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if err := client.EnsureStream(infrastructure.EventStreamName, infrastructure.EventSubjects(), infrastructure.DefaultStreamSettings); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}
	return client, nil
}
