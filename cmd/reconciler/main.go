package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/disk_entulho/internal/api"
	"github.com/Freeeeeet/disk_entulho/internal/app"
	"github.com/Freeeeeet/disk_entulho/internal/clock"
	"github.com/Freeeeeet/disk_entulho/internal/config"
	"github.com/Freeeeeet/disk_entulho/internal/controller"
	"github.com/Freeeeeet/disk_entulho/internal/gateway"
	"github.com/Freeeeeet/disk_entulho/internal/repository"
	"github.com/Freeeeeet/disk_entulho/internal/repository/memory"
	"github.com/Freeeeeet/disk_entulho/internal/service"
	"github.com/Freeeeeet/disk_entulho/migrations"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting disk entulho reconciler",
		zap.String("store", cfg.Store),
		zap.Bool("gateway", cfg.GatewayEnabled()),
		zap.Bool("telegram", cfg.TelegramToken != ""),
	)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	clk := clock.Real{}
	paymentTypes, _ := cfg.PaymentTypes() // проверено в Validate

	var gw *gateway.Client
	if cfg.GatewayEnabled() {
		gw = gateway.NewClient(gateway.Config{
			BaseURL:    cfg.GatewayURL,
			Token:      cfg.GatewayToken,
			Timeout:    cfg.GatewayTimeout,
			MaxRetries: cfg.GatewayMaxRetries,
		}, logger.Named("gateway"))
	}

	// Сервисы
	notificationService := service.NewNotificationService(store, clk, logger)
	expirationService := service.NewExpirationService(store, clk, cfg.BookingGracePeriod, logger)
	decisionService := service.NewDecisionService(store, notificationService, logger)

	var charges service.ChargeCreator
	if gw != nil {
		charges = gw
	}
	attachmentService := service.NewAttachmentService(store, charges, logger)

	tasks := []app.Task{
		app.SweepTask(expirationService, cfg.SweepInterval),
	}

	if gw != nil {
		reconciliationService := service.NewReconciliationService(
			store, gw, notificationService, paymentTypes, cfg.GatewayTimeout, logger,
		)
		tasks = append(tasks, app.ReconcileTask(reconciliationService, cfg.ReconcileInterval, logger))
	} else {
		logger.Warn("GATEWAY_URL not set, payment reconciliation disabled")
	}

	// Telegram бот: админские решения и доставка уведомлений
	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken)
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}

		botController := controller.NewBotController(b, decisionService, cfg.AdminTelegramIDs, logger.Named("bot"))
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Failed to register bot commands", zap.Error(err))
		}
		go botController.Start(ctx)

		dispatcher := service.NewDispatcher(store, b, clk, 0, logger)
		tasks = append(tasks, app.DispatchTask(dispatcher, cfg.DispatchInterval, logger))
	} else {
		logger.Warn("TELEGRAM_TOKEN not set, bot and notification delivery disabled")
	}

	scheduler := app.NewScheduler(logger.Named("scheduler"), tasks...)
	scheduler.Start(ctx)

	handlers := api.NewHandlers(decisionService, attachmentService, notificationService)
	server := api.NewServer(handlers, cfg.JWTSecret, logger.Named("api"))

	if err := api.Serve(ctx, server, cfg.HTTPAddr, logger); err != nil {
		logger.Error("HTTP server stopped with error", zap.Error(err))
		stop()
	}

	scheduler.Stop()
	logger.Info("Reconciler stopped")
}

// openStore открывает хранилище согласно STORE и применяет миграции для Postgres
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("Using in-memory store, data will not survive restart")
		return memory.NewStore(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	migrator, err := app.NewMigrator(pool, migrations.FS, ".", logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return repository.NewPgStore(pool), pool.Close, nil
}
