package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/config"
	"enstore_storefront/internal/models"
	"enstore_storefront/internal/services"
	"enstore_storefront/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// The worker keeps its schedule in the database
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(cfg.DBDriver, cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Redis unavailable, sweep lock and cache warmup disabled: %v", err)
			cache = nil
		}
	}

	events, err := services.NewEventPublisher(cfg.NatsURL)
	if err != nil {
		log.Printf("Warning: NATS unavailable, status events disabled: %v", err)
		events = nil
	}
	defer events.Close()

	api := apiclient.New(cfg.APIBaseURL, cfg.APITimeout, apiclient.StaticToken(cfg.APIToken))
	watch := services.NewWatchService(db, events)
	notifier := services.NewReceiptNotifier(
		services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom),
		services.NewWahaService(cfg.WahaBaseURL, cfg.WahaAPIKey),
	)

	registry := tasks.NewRegistry()
	tasks.DefineTasks(registry, tasks.Deps{
		Transactions: services.NewTransactionService(api),
		Locks:        cache,
		Channels:     services.NewPaymentChannelService(api, cache, cfg.CacheTTL),
		Categories:   services.NewCategoryService(api, cache, cfg.CacheTTL),
		Notifier:     notifier,
		Watch:        watch,
	})
	log.Printf("Registered tasks: %v", registry.Names())

	runner := tasks.NewRunner(db, registry)

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runner.EnsureDefaults(ctx); err != nil {
		log.Fatalf("Failed to schedule default tasks: %v", err)
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down worker...")
		cancel()
	}()

	// Settled transactions published by the server get their receipt without
	// waiting for the next scheduled run.
	settled := make(chan struct{}, 1)
	if sub, err := events.SubscribeStatusChanges(func(ev services.StatusChangeEvent) {
		tx := models.Transaction{Status: ev.To, PaymentStatus: ev.PaymentStatus}
		if !tx.IsTerminal() {
			return
		}
		select {
		case settled <- struct{}{}:
		default:
		}
	}); err == nil {
		defer sub.Unsubscribe()
	}

	ticker := time.NewTicker(cfg.WorkerTick)
	defer ticker.Stop()

	log.Printf("Worker started, ticking every %s", cfg.WorkerTick)
	runner.RunDue(ctx)

	for {
		select {
		case <-ticker.C:
			runner.RunDue(ctx)
		case <-settled:
			sendReceipts(ctx, registry)
		case <-ctx.Done():
			return
		}
	}
}

func sendReceipts(ctx context.Context, registry *tasks.Registry) {
	handler, ok := registry.Get(tasks.TaskSendStatusNotification)
	if !ok {
		return
	}
	result, err := handler(ctx, models.ScheduledTask{TaskName: tasks.TaskSendStatusNotification})
	if err != nil {
		log.Printf("Immediate receipts failed: %v", err)
		return
	}
	log.Printf("Immediate receipts: %v", result)
}
