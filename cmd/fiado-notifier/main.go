package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fiado/internal/amqp"
	"fiado/internal/config"
	"fiado/internal/log"
	"fiado/internal/services"
	"fiado/internal/sheets"
	gsheet "fiado/internal/sheets/google"
	"fiado/internal/storage"
	"fiado/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{})
	log.SetDefault(logger)

	logger.Info("Starting fiado-notifier")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Weekly summary export is optional; without a spreadsheet the sweep
	// still publishes notifications.
	var reports sheets.ReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		reports = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	reminders := services.NewReminderService(repo, amqpClient, reports)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier := worker.NewNotifier(reminders, cfg.NotifierCronSpec, cfg.NotifierRunAtBoot, logger)
	if err := notifier.Start(ctx); err != nil {
		logger.Error("Failed to start notifier", log.FieldError, err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	notifier.Stop()
	logger.Info("Notifier stopped gracefully")
}
