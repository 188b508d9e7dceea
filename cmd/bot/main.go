package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/telebot.v3"

	"tracker_notification_bot/internal/app"
	"tracker_notification_bot/internal/domain/schedule"
	"tracker_notification_bot/internal/infra/config"
	"tracker_notification_bot/internal/infra/logger"
	"tracker_notification_bot/internal/infra/scheduler"
	"tracker_notification_bot/internal/infra/sheets"
	itelegram "tracker_notification_bot/internal/infra/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Get()

	log.Infof("Tracker notification bot starting. Environment: %s, Timezone: %s", cfg.Environment, cfg.Timezone)

	// Resilient store client. Missing credentials degrade to a store-less
	// run instead of aborting startup.
	storeClient := sheets.NewClient(context.Background(), sheets.Config{
		SpreadsheetID:   cfg.SpreadsheetID,
		CredentialsFile: cfg.CredentialsFile,
		CallTimeout:     cfg.StoreCallTimeout,
		MaxRetries:      cfg.StoreMaxRetries,
		RetryBaseDelay:  cfg.StoreRetryBaseDelay,
		RetryMaxDelay:   cfg.StoreRetryMaxDelay,
	}, log)

	notifRepo := sheets.NewNotificationRepository(storeClient, log)
	log.Info("Notification repository initialized.")

	calc := schedule.NewCalculator(cfg.Location())
	notifService := app.NewNotificationService(notifRepo, calc, log)
	log.Info("Notification service initialized.")

	// Telegram bot used as the delivery sink.
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			log.Errorf("Telebot error: %v", err)
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		log.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}
	deliverer := itelegram.NewDueNotifier(itelegram.NewTelebotAdapter(bot), cfg.NotifyChatID)

	dispatcher := scheduler.NewDispatcher(notifService, deliverer, log, cfg.CronSpecScan, cfg.Location())
	if err := dispatcher.Start(); err != nil {
		log.Fatalf("FATAL: Could not start dispatcher: %v", err)
	}

	go bot.Start()
	log.Info("Application setup complete. Dispatcher and bot are running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	dispatcher.Stop()
	bot.Stop()
	log.Info("Application shut down gracefully.")
}
